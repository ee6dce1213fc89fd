// Package linux reads and writes the plain network file of the training host.
//
// The file has no labels: one value per line, in this order
//
//	inputs, hidden, outputs, learning rate, momentum, initial weight max,
//	(inputs+1)*hidden hidden weights, row major, bias row last,
//	(hidden+1)*outputs output weights, row major, bias row last.
//
// Everything depends on the line count, so the decoder checks it before parsing any weight.
package linux

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/drakos74/ardu-ann/internal/ml"
	"github.com/drakos74/ardu-ann/internal/storage"
)

// header is the number of scalar lines before the weights.
const header = 6

// Lines returns the number of lines of a file for the given topology.
func Lines(inputs, hidden, outputs int) int {
	return header + (inputs+1)*hidden + (hidden+1)*outputs
}

// Codec is the plain line format.
type Codec struct{}

// Encode writes the snapshot with six decimals per value.
func (Codec) Encode(w io.Writer, s storage.Snapshot) error {
	if err := s.Check(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	cfg := s.Config

	for _, v := range []int{cfg.Inputs, cfg.Hidden, cfg.Outputs} {
		bw.WriteString(strconv.Itoa(v) + "\n")
	}
	for _, v := range []float64{cfg.LearningRate, cfg.Momentum, cfg.InitialWeightMax} {
		bw.WriteString(format(v) + "\n")
	}
	for _, m := range [][][]float64{s.HiddenWeights, s.OutputWeights} {
		for _, row := range m {
			for _, v := range row {
				bw.WriteString(format(v) + "\n")
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not write network: %s: %w", err.Error(), storage.CouldNotSaveErr)
	}
	return nil
}

// Decode reads a snapshot. The training cycle and the functions are not part
// of the format and keep their defaults.
func (Codec) Decode(r io.Reader) (storage.Snapshot, error) {
	lines, err := readLines(r)
	if err != nil {
		return storage.Snapshot{}, err
	}
	if len(lines) < header {
		return storage.Snapshot{}, fmt.Errorf("found %d lines, need at least %d: %w", len(lines), header, storage.CorruptErr)
	}

	var counts [3]int
	for i := range counts {
		counts[i], err = strconv.Atoi(lines[i])
		if err != nil {
			return storage.Snapshot{}, fmt.Errorf("line %d: %s: %w", i+1, err.Error(), storage.CouldNotLoadErr)
		}
	}
	var params [3]float64
	for i := range params {
		params[i], err = parse(lines, header-3+i)
		if err != nil {
			return storage.Snapshot{}, err
		}
	}

	cfg := ml.Config{
		Inputs:           counts[0],
		Hidden:           counts[1],
		Outputs:          counts[2],
		LearningRate:     params[0],
		Momentum:         params[1],
		InitialWeightMax: params[2],
	}
	if err := cfg.Validate(); err != nil {
		return storage.Snapshot{}, fmt.Errorf("%s: %w", err.Error(), storage.CorruptErr)
	}

	expected := Lines(cfg.Inputs, cfg.Hidden, cfg.Outputs)
	if len(lines) != expected {
		return storage.Snapshot{}, fmt.Errorf("found %d lines, expected %d for %d/%d/%d nodes: %w",
			len(lines), expected, cfg.Inputs, cfg.Hidden, cfg.Outputs, storage.CorruptErr)
	}

	line := header
	hidden, err := matrix(lines, &line, cfg.Inputs+1, cfg.Hidden)
	if err != nil {
		return storage.Snapshot{}, err
	}
	output, err := matrix(lines, &line, cfg.Hidden+1, cfg.Outputs)
	if err != nil {
		return storage.Snapshot{}, err
	}

	return storage.Snapshot{
		Config:        cfg,
		HiddenWeights: hidden,
		OutputWeights: output,
	}, nil
}

func readLines(r io.Reader) ([]string, error) {
	lines := make([]string, 0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read lines: %s: %w", err.Error(), storage.CouldNotLoadErr)
	}
	// trailing blank lines are not part of the layout
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

func matrix(lines []string, line *int, rows, cols int) ([][]float64, error) {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			v, err := parse(lines, *line)
			if err != nil {
				return nil, err
			}
			m[i][j] = v
			*line++
		}
	}
	return m, nil
}

func parse(lines []string, i int) (float64, error) {
	v, err := strconv.ParseFloat(lines[i], 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %s: %w", i+1, err.Error(), storage.CouldNotLoadErr)
	}
	return v, nil
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
