package file

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/drakos74/ardu-ann/internal/ml"
	"github.com/drakos74/ardu-ann/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNetwork(t *testing.T) *ml.Network[float32] {
	network, err := ml.New(ml.Config{
		Inputs:           8,
		Hidden:           7,
		Outputs:          4,
		LearningRate:     0.3,
		Momentum:         0.9,
		InitialWeightMax: 0.5,
	}, ml.WithSource(rand.NewSource(1)))
	require.NoError(t, err)
	_, err = network.Train([]float32{1, 0, 1, 0, 1, 0, 1, 0}, []float32{0, 1, 0, 1})
	require.NoError(t, err)
	return network
}

func TestSaveAndLoad(t *testing.T) {

	type test struct {
		file  string
		cycle int64
	}

	tests := map[string]test{
		"linux": {
			file: "network.txt",
			// the plain format does not keep the training cycle
			cycle: 0,
		},
		"header": {
			file:  "network_config.h",
			cycle: 1,
		},
		"json": {
			file:  "network.json",
			cycle: 1,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			network := newNetwork(t)
			path := filepath.Join(t.TempDir(), tt.file)

			require.NoError(t, Save(path, network))
			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := Load[float32](path)
			require.NoError(t, err)
			assert.Equal(t, tt.cycle, loaded.TrainingCycle())
			assert.Equal(t, network.NumInputNodes(), loaded.NumInputNodes())
			assert.Equal(t, network.NumHiddenNodes(), loaded.NumHiddenNodes())
			assert.Equal(t, network.NumOutputNodes(), loaded.NumOutputNodes())

			input := []float32{0, 1, 0, 1, 0, 1, 0, 1}
			expected, err := network.Classify(input)
			require.NoError(t, err)
			actual, err := loaded.Classify(input)
			require.NoError(t, err)
			for i := range expected {
				assert.InDelta(t, float64(expected[i]), float64(actual[i]), 1e-4)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load[float32](filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, storage.NotFoundErr)

	truncated := filepath.Join(dir, "truncated.txt")
	require.NoError(t, os.WriteFile(truncated, []byte("8\n7\n4\n0.3\n0.9\n0.5\n0.1\n"), 0644))
	_, err = Load[float32](truncated)
	assert.ErrorIs(t, err, storage.CorruptErr)
}

func TestSave_Errors(t *testing.T) {
	dir := t.TempDir()

	err := Save(filepath.Join(dir, "missing", "network.txt"), newNetwork(t))
	assert.ErrorIs(t, err, storage.CouldNotSaveErr)

	s := storage.From(newNetwork(t))
	s.HiddenWeights = nil
	path := filepath.Join(dir, "network.txt")
	assert.ErrorIs(t, SaveSnapshot(path, s), storage.CorruptErr)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSave_KeepsPreviousFile(t *testing.T) {
	for _, name := range []string{"network.txt", "network.h", "network.json"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, newNetwork(t)))
			before, err := os.ReadFile(path)
			require.NoError(t, err)

			s := storage.From(newNetwork(t))
			s.HiddenWeights[0][0] = math.NaN()
			assert.ErrorIs(t, SaveSnapshot(path, s), storage.CorruptErr)

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, before, after)
			_, err = Load[float32](path)
			require.NoError(t, err)

			// saving again replaces the file and leaves nothing else behind
			s.HiddenWeights[0][0] = 0.25
			require.NoError(t, SaveSnapshot(path, s))
			loaded, err := LoadSnapshot(path)
			require.NoError(t, err)
			assert.InDelta(t, 0.25, loaded.HiddenWeights[0][0], 1e-6)
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	store, err := NewStore(dir, storage.JSON)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "best.json"), store.Path("best"))

	var persistence storage.Persistence = store
	_, err = persistence.Load("best")
	assert.ErrorIs(t, err, storage.NotFoundErr)

	s := storage.From(newNetwork(t))
	s.Run = "run"
	require.NoError(t, persistence.Store("best", s))
	loaded, err := persistence.Load("best")
	require.NoError(t, err)
	assert.Equal(t, s, loaded)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte{}, 0644))
	_, err = NewStore(file, storage.Linux)
	assert.Error(t, err)
}
