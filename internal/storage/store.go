package storage

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/drakos74/ardu-ann/internal/ml"
)

var (
	NotFoundErr     = errors.New("not found")
	CouldNotLoadErr = errors.New("could not load")
	CouldNotSaveErr = errors.New("could not save")
	// CorruptErr marks files whose size does not add up to the declared topology
	// or whose values are not finite.
	CorruptErr = errors.New("corrupt or truncated file")
)

// Format is the on-disk representation of a network.
type Format int

const (
	// Linux is the plain line positional format of the training host.
	Linux Format = iota
	// Header is the Arduino C header with the weights in flash memory.
	Header
	// JSON is the self describing versioned format.
	JSON
)

func (f Format) String() string {
	switch f {
	case Header:
		return "header"
	case JSON:
		return "json"
	default:
		return "linux"
	}
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".h", ".hpp":
		return Header
	case ".json":
		return JSON
	default:
		return Linux
	}
}

// Codec reads and writes snapshots in one format.
type Codec interface {
	Encode(w io.Writer, s Snapshot) error
	Decode(r io.Reader) (Snapshot, error)
}

// Persistence stores snapshots by name.
type Persistence interface {
	Store(name string, s Snapshot) error
	Load(name string) (Snapshot, error)
}

// Snapshot is the persisted state of a network.
// Weights are kept in double precision whatever the network computes in.
type Snapshot struct {
	Config        ml.Config
	HiddenWeights [][]float64
	OutputWeights [][]float64
	// Run optionally identifies the training run that produced the weights.
	Run string
}

// From takes a snapshot of the given network.
func From[T ml.Float](n *ml.Network[T]) Snapshot {
	return Snapshot{
		Config:        n.Config(),
		HiddenWeights: widen(n.HiddenWeights()),
		OutputWeights: widen(n.OutputWeights()),
	}
}

// Restore creates a network from the snapshot.
func Restore[T ml.Float](s Snapshot, opts ...ml.Option) (*ml.Network[T], error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	n, err := ml.NewNetwork[T](s.Config, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create network: %w", err)
	}
	if err := n.LoadWeights(narrow[T](s.HiddenWeights), narrow[T](s.OutputWeights)); err != nil {
		return nil, fmt.Errorf("could not load weights: %w", err)
	}
	return n, nil
}

// Check verifies that the weight matrices match the topology and hold finite values.
func (s Snapshot) Check() error {
	if err := s.Config.Validate(); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), CorruptErr)
	}
	if err := checkMatrix("hidden", s.HiddenWeights, s.Config.Inputs+1, s.Config.Hidden); err != nil {
		return err
	}
	return checkMatrix("output", s.OutputWeights, s.Config.Hidden+1, s.Config.Outputs)
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("%s weights have %d rows instead of %d: %w", name, len(m), rows, CorruptErr)
	}
	for r, row := range m {
		if len(row) != cols {
			return fmt.Errorf("%s weights row %d has %d values instead of %d: %w", name, r, len(row), cols, CorruptErr)
		}
		for c, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s weight [%d][%d] is %f: %w", name, r, c, v, CorruptErr)
			}
		}
	}
	return nil
}

func widen[T ml.Float](m [][]T) [][]float64 {
	w := make([][]float64, len(m))
	for i, row := range m {
		w[i] = make([]float64, len(row))
		for j, v := range row {
			w[i][j] = float64(v)
		}
	}
	return w
}

func narrow[T ml.Float](m [][]float64) [][]T {
	n := make([][]T, len(m))
	for i, row := range m {
		n[i] = make([]T, len(row))
		for j, v := range row {
			n[i][j] = T(v)
		}
	}
	return n
}
