// Package header writes the network as a C header for the Arduino sketch.
//
// The weights are placed in flash memory with PROGMEM and the scalars become const declarations.
// Comments carry the metadata the sketch does not need.
// Loading parses the declarations by name and reads the comments best effort.
package header

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/drakos74/ardu-ann/internal/ml"
	"github.com/drakos74/ardu-ann/internal/storage"
	"github.com/rs/zerolog/log"
)

const (
	guard = "NETWORK_CONFIG_H"

	numInputNodes    = "numInputNodes"
	numHiddenNodes   = "numHiddenNodes"
	numOutputNodes   = "numOutputNodes"
	learningRate     = "learningRate"
	momentum         = "momentum"
	initialWeightMax = "initialWeightMax"

	run                      = "run"
	trainingCycle            = "trainingCycle"
	hiddenActivationFunction = "hiddenActivationFunction"
	outputActivationFunction = "outputActivationFunction"
	errorFunction            = "errorFunction"

	hiddenWeights = "hiddenWeights"
	outputWeights = "outputWeights"
)

var (
	declaration = regexp.MustCompile(`^const\s+(?:int|float)\s+(\w+)\s*=\s*([^;{]+);$`)
	comment     = regexp.MustCompile(`^//\s*(\w+)\s*=\s*(.*)$`)
	array       = regexp.MustCompile(`^(?:const\s+)?float\s+(\w+)\s*\[[^\]]*\]\s*\[[^\]]*\]\s*(?:PROGMEM\s*)?=\s*\{$`)
	row         = regexp.MustCompile(`^\{(.*)\},?$`)
)

// Codec is the Arduino header format.
type Codec struct{}

// Encode writes the snapshot as a header that compiles into the sketch.
func (Codec) Encode(w io.Writer, s storage.Snapshot) error {
	if err := s.Check(); err != nil {
		return err
	}
	cfg := s.Config
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(bw, "#include <avr/pgmspace.h>\n\n")

	fmt.Fprintf(bw, "const int %s = %d;\n", numInputNodes, cfg.Inputs)
	fmt.Fprintf(bw, "const int %s = %d;\n", numHiddenNodes, cfg.Hidden)
	fmt.Fprintf(bw, "const int %s = %d;\n", numOutputNodes, cfg.Outputs)
	fmt.Fprintf(bw, "const float %s = %s;\n", learningRate, format(cfg.LearningRate))
	fmt.Fprintf(bw, "const float %s = %s;\n", momentum, format(cfg.Momentum))
	fmt.Fprintf(bw, "const float %s = %s;\n\n", initialWeightMax, format(cfg.InitialWeightMax))

	if s.Run != "" {
		fmt.Fprintf(bw, "// %s = %s\n", run, s.Run)
	}
	fmt.Fprintf(bw, "// %s = %d\n", trainingCycle, cfg.TrainingCycle)
	fmt.Fprintf(bw, "// %s = %s\n", hiddenActivationFunction, cfg.HiddenActivation)
	fmt.Fprintf(bw, "// %s = %s\n", outputActivationFunction, cfg.OutputActivation)
	fmt.Fprintf(bw, "// %s = %s\n\n", errorFunction, cfg.ErrorFunction)

	writeArray(bw, hiddenWeights, numInputNodes, numHiddenNodes, s.HiddenWeights)
	writeArray(bw, outputWeights, numHiddenNodes, numOutputNodes, s.OutputWeights)

	fmt.Fprintf(bw, "#endif // %s\n", guard)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not write header: %s: %w", err.Error(), storage.CouldNotSaveErr)
	}
	return nil
}

func writeArray(w io.Writer, name, rows, cols string, m [][]float64) {
	fmt.Fprintf(w, "const float %s[%s +1][%s] PROGMEM = {\n", name, rows, cols)
	for _, r := range m {
		values := make([]string, len(r))
		for i, v := range r {
			values[i] = format(v)
		}
		fmt.Fprintf(w, "    { %s }, \n", strings.Join(values, ", "))
	}
	fmt.Fprintf(w, "};\n\n")
}

// Decode reads a header written by Encode.
// Declarations missing from the file are an error, unknown comments are ignored.
func (Codec) Decode(r io.Reader) (storage.Snapshot, error) {
	scalars := make(map[string]string)
	arrays := make(map[string][][]float64)
	var s storage.Snapshot

	scanner := bufio.NewScanner(r)
	var current string
	num := 0
	for scanner.Scan() {
		num++
		line := strings.TrimSpace(scanner.Text())

		if current != "" {
			if strings.HasPrefix(line, "};") {
				current = ""
				continue
			}
			match := row.FindStringSubmatch(line)
			if match == nil {
				return s, fmt.Errorf("line %d: expected a row of %s: %w", num, current, storage.CouldNotLoadErr)
			}
			values, err := parseRow(match[1])
			if err != nil {
				return s, fmt.Errorf("line %d: %s: %w", num, err.Error(), storage.CouldNotLoadErr)
			}
			arrays[current] = append(arrays[current], values)
			continue
		}

		if match := array.FindStringSubmatch(line); match != nil {
			current = match[1]
			arrays[current] = make([][]float64, 0)
		} else if match := declaration.FindStringSubmatch(line); match != nil {
			scalars[match[1]] = strings.TrimSpace(match[2])
		} else if match := comment.FindStringSubmatch(line); match != nil {
			scalars[match[1]] = strings.TrimSpace(match[2])
		}
	}
	if err := scanner.Err(); err != nil {
		return s, fmt.Errorf("could not read header: %s: %w", err.Error(), storage.CouldNotLoadErr)
	}
	if current != "" {
		return s, fmt.Errorf("array %s is not closed: %w", current, storage.CorruptErr)
	}

	p := parser{values: scalars}
	s.Config = ml.Config{
		Inputs:           p.integer(numInputNodes),
		Hidden:           p.integer(numHiddenNodes),
		Outputs:          p.integer(numOutputNodes),
		LearningRate:     p.decimal(learningRate),
		Momentum:         p.decimal(momentum),
		InitialWeightMax: p.decimal(initialWeightMax),
	}
	if p.err != nil {
		return storage.Snapshot{}, p.err
	}

	// metadata is informational, a broken comment does not invalidate the weights
	if v, ok := scalars[trainingCycle]; ok {
		cycle, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Warn().Str("value", v).Msg("could not parse training cycle")
		}
		s.Config.TrainingCycle = cycle
	}
	if v, ok := scalars[hiddenActivationFunction]; ok {
		s.Config.HiddenActivation = ml.ParseActivation(v)
	}
	if v, ok := scalars[outputActivationFunction]; ok {
		s.Config.OutputActivation = ml.ParseActivation(v)
	}
	if v, ok := scalars[errorFunction]; ok {
		s.Config.ErrorFunction = ml.ParseErrorFunction(v)
	}
	s.Run = scalars[run]

	var ok bool
	if s.HiddenWeights, ok = arrays[hiddenWeights]; !ok {
		return storage.Snapshot{}, fmt.Errorf("missing %s: %w", hiddenWeights, storage.CorruptErr)
	}
	if s.OutputWeights, ok = arrays[outputWeights]; !ok {
		return storage.Snapshot{}, fmt.Errorf("missing %s: %w", outputWeights, storage.CorruptErr)
	}

	if err := s.Check(); err != nil {
		return storage.Snapshot{}, err
	}
	return s, nil
}

// parser keeps the first error while reading the declarations.
type parser struct {
	values map[string]string
	err    error
}

func (p *parser) lookup(name string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.values[name]
	if !ok {
		p.err = fmt.Errorf("missing declaration of %s: %w", name, storage.CorruptErr)
	}
	return v, ok
}

func (p *parser) integer(name string) int {
	v, ok := p.lookup(name)
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("%s: %s: %w", name, err.Error(), storage.CouldNotLoadErr)
	}
	return i
}

func (p *parser) decimal(name string) float64 {
	v, ok := p.lookup(name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %s: %w", name, err.Error(), storage.CouldNotLoadErr)
	}
	return f
}

func parseRow(text string) ([]float64, error) {
	parts := strings.Split(text, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
