package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/drakos74/ardu-ann/internal/ml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadNetwork(t *testing.T) {

	type test struct {
		file    string
		content string
		config  ml.Config
	}

	tests := map[string]test{
		"yaml": {
			file: "network.yaml",
			content: `inputs: 3
hidden: 5
outputs: 2
learning_rate: 0.1
output_activation: SoftMax
error_function: crossentropy
`,
			config: ml.Config{
				Inputs:           3,
				Hidden:           5,
				Outputs:          2,
				LearningRate:     0.1,
				Momentum:         0.9,
				InitialWeightMax: 0.5,
				OutputActivation: ml.SoftMax,
				ErrorFunction:    ml.CrossEntropy,
			},
		},
		"json": {
			file:    "network.json",
			content: `{"hidden": 9, "hidden_activation": "ReLu", "momentum": 0}`,
			config: ml.Config{
				Inputs:           8,
				Hidden:           9,
				Outputs:          4,
				LearningRate:     0.3,
				InitialWeightMax: 0.5,
				HiddenActivation: ml.ReLU,
			},
		},
		"unknown-function": {
			file:    "network.yml",
			content: "hidden_activation: tanh\n",
			config: ml.Config{
				Inputs:           8,
				Hidden:           7,
				Outputs:          4,
				LearningRate:     0.3,
				Momentum:         0.9,
				InitialWeightMax: 0.5,
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			n, err := LoadNetwork(write(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.config, n.ToML())
		})
	}
}

func TestLoadTraining(t *testing.T) {
	training, err := LoadTraining(write(t, "training.yaml", "epochs: 20\npatience: 3\nvalidation: 0.2\n"))
	require.NoError(t, err)

	opts := training.ToOptions()
	assert.Equal(t, 20, opts.Epochs)
	assert.Equal(t, 3, opts.Patience)
	assert.Equal(t, 100, opts.ReportEvery)
	assert.Equal(t, 10, opts.Window)
	assert.True(t, opts.Shuffle)
	assert.Equal(t, 0.2, training.Validation)

	training, err = LoadTraining(write(t, "training.json", `{"shuffle": false, "target_error": 0.001}`))
	require.NoError(t, err)
	assert.False(t, training.Shuffle)
	assert.Equal(t, 0.001, training.TargetError)
	assert.Equal(t, 1, training.Epochs)
}

func TestLoad_Errors(t *testing.T) {
	var n Network

	assert.ErrorIs(t, Load(write(t, "network.toml", "inputs = 1"), &n), ErrFormat)
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.json"), &n))
	assert.Error(t, Load(write(t, "network.json", "{inputs"), &n))
	assert.Error(t, Load(write(t, "network.yaml", "inputs: [1"), &n))
}
