// Package dataset loads labelled examples from the normalised exercise logs.
//
// A log holds records of the form
//
//	Repetition start
//	<input value per line>
//	Repetition end
//	<target value per line>
//
// and only files with "_normalised" in their name are taken into account.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// Marker is the part of the file name that identifies a normalised log.
	Marker = "_normalised"

	repetitionStart = "Repetition start"
	repetitionEnd   = "Repetition end"
)

var (
	ErrInvalidFile = errors.New("invalid log file")
	ErrMalformed   = errors.New("malformed log file")
)

// Example is one labelled record.
type Example struct {
	Input  []float64
	Target []float64
}

// Set is an ordered collection of examples.
type Set struct {
	Examples []Example
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{Examples: make([]Example, 0)}
}

// Len returns the number of examples.
func (s *Set) Len() int {
	return len(s.Examples)
}

// Add appends the examples of the other set.
func (s *Set) Add(other *Set) {
	s.Examples = append(s.Examples, other.Examples...)
}

// Check verifies that every example fits the given number of input and output nodes.
func (s *Set) Check(inputs, outputs int) error {
	for i, e := range s.Examples {
		if len(e.Input) != inputs || len(e.Target) != outputs {
			return fmt.Errorf("example %d has %d inputs and %d targets instead of %d and %d: %w",
				i, len(e.Input), len(e.Target), inputs, outputs, ErrMalformed)
		}
	}
	return nil
}

// Split shuffles the examples with the given source and moves the given fraction of them into
// a validation set. The receiver is left untouched.
func (s *Set) Split(fraction float64, rng *rand.Rand) (*Set, *Set) {
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	n := int(float64(len(s.Examples)) * fraction)

	train, validation := NewSet(), NewSet()
	for i, idx := range rng.Perm(len(s.Examples)) {
		if i < n {
			validation.Examples = append(validation.Examples, s.Examples[idx])
		} else {
			train.Examples = append(train.Examples, s.Examples[idx])
		}
	}
	return train, validation
}

// Load reads the set from a single log file or from a directory tree of logs.
func Load(path string) (*Set, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("could not read '%s': %s: %w", path, err.Error(), ErrInvalidFile)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadFile parses a single normalised log.
func LoadFile(path string) (*Set, error) {
	if !strings.Contains(filepath.Base(path), Marker) {
		return nil, fmt.Errorf("'%s' is not a %s log: %w", path, Marker, ErrInvalidFile)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open '%s': %s: %w", path, err.Error(), ErrInvalidFile)
	}
	defer f.Close()

	set := NewSet()
	var input, target []float64
	// targets follow the end marker of the repetition
	readingTargets := false

	scanner := bufio.NewScanner(f)
	num := 0
	for scanner.Scan() {
		num++
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case repetitionStart:
			if len(target) > 0 {
				set.Examples = append(set.Examples, Example{Input: input, Target: target})
			}
			input, target = make([]float64, 0), make([]float64, 0)
			readingTargets = false
		case repetitionEnd:
			readingTargets = true
		default:
			v, err := strconv.ParseFloat(line, 64)
			if err != nil {
				return nil, fmt.Errorf("'%s' line %d: %s: %w", path, num, err.Error(), ErrMalformed)
			}
			if readingTargets {
				target = append(target, v)
			} else {
				input = append(input, v)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read '%s': %s: %w", path, err.Error(), ErrInvalidFile)
	}

	// the last record has no start marker after it
	if readingTargets {
		set.Examples = append(set.Examples, Example{Input: input, Target: target})
	}
	return set, nil
}

// LoadDir walks the directory and loads every normalised log in it.
// Directories with a '.' in their name are skipped, and so are the logs that fail to load.
func LoadDir(dir string) (*Set, error) {
	files := make([]string, 0)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			log.Warn().Err(err).Str("path", path).Msg("could not read directory")
			return nil
		}
		if info.IsDir() {
			if path != dir && strings.Contains(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.Contains(info.Name(), Marker) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk '%s': %s: %w", dir, err.Error(), ErrInvalidFile)
	}
	sort.Strings(files)

	set := NewSet()
	for _, path := range files {
		s, err := LoadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping log file")
			continue
		}
		set.Add(s)
	}
	log.Debug().
		Str("dir", dir).
		Int("files", len(files)).
		Int("examples", set.Len()).
		Msg("loaded data set")
	return set, nil
}
