package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/drakos74/ardu-ann/internal/ml"
	"github.com/drakos74/ardu-ann/internal/storage"
	"github.com/drakos74/ardu-ann/internal/storage/file/header"
	"github.com/drakos74/ardu-ann/internal/storage/file/json"
	"github.com/drakos74/ardu-ann/internal/storage/file/linux"
	"github.com/rs/zerolog/log"
)

// CodecFor returns the codec of the given format.
func CodecFor(format storage.Format) storage.Codec {
	switch format {
	case storage.Header:
		return header.Codec{}
	case storage.JSON:
		return json.Codec{Indent: true}
	default:
		return linux.Codec{}
	}
}

// Save writes the network to the given path, in the format of its extension.
func Save[T ml.Float](path string, network *ml.Network[T]) error {
	return SaveSnapshot(path, storage.From(network))
}

// Load reads the network from the given path, in the format of its extension.
func Load[T ml.Float](path string, opts ...ml.Option) (*ml.Network[T], error) {
	s, err := LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	network, err := storage.Restore[T](s, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not restore network from '%s': %s: %w", path, err.Error(), storage.CorruptErr)
	}
	return network, nil
}

// SaveSnapshot writes the snapshot to the given path.
// The snapshot goes to a temporary file next to the target, which replaces the target
// only once it is complete; a failed save leaves any previous file untouched.
func SaveSnapshot(path string, s storage.Snapshot) error {
	if err := s.Check(); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("could not create file for '%s': %s: %w", path, err.Error(), storage.CouldNotSaveErr)
	}
	tmp := f.Name()
	defer os.Remove(tmp)
	defer f.Close()

	format := storage.FormatOf(path)
	if err := CodecFor(format).Encode(f, s); err != nil {
		return fmt.Errorf("could not save '%s': %w", path, err)
	}
	if err := f.Chmod(0o644); err != nil {
		return fmt.Errorf("could not set mode of '%s': %s: %w", tmp, err.Error(), storage.CouldNotSaveErr)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close file '%s': %s: %w", tmp, err.Error(), storage.CouldNotSaveErr)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("could not replace '%s': %s: %w", path, err.Error(), storage.CouldNotSaveErr)
	}

	log.Debug().
		Str("path", path).
		Str("format", format.String()).
		Int64("cycle", s.Config.TrainingCycle).
		Msg("saved network")
	return nil
}

// LoadSnapshot reads a snapshot from the given path.
func LoadSnapshot(path string) (storage.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("could not open file '%s': %s: %w", path, err.Error(), storage.NotFoundErr)
	}
	defer f.Close()

	s, err := CodecFor(storage.FormatOf(path)).Decode(f)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("could not load '%s': %w", path, err)
	}
	return s, nil
}

// Store keeps snapshots as files in one directory.
type Store struct {
	dir    string
	format storage.Format
}

// NewStore creates a store in the given directory, creating the directory if needed.
func NewStore(dir string, format storage.Format) (*Store, error) {
	// check if the path exists
	info, err := os.Stat(dir)
	if err != nil {
		err := os.MkdirAll(dir, os.ModePerm)
		if err != nil {
			return nil, fmt.Errorf("could not make dir: %s: %w", dir, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("path given is not a directory: %s", dir)
	}
	return &Store{dir: dir, format: format}, nil
}

// Path returns the file of the snapshot with the given name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+extension(s.format))
}

func (s *Store) Store(name string, snapshot storage.Snapshot) error {
	return SaveSnapshot(s.Path(name), snapshot)
}

func (s *Store) Load(name string) (storage.Snapshot, error) {
	return LoadSnapshot(s.Path(name))
}

func extension(format storage.Format) string {
	switch format {
	case storage.Header:
		return ".h"
	case storage.JSON:
		return ".json"
	default:
		return ".txt"
	}
}
