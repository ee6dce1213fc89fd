package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/drakos74/ardu-ann/internal/ml"
	"github.com/drakos74/ardu-ann/internal/train"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var ErrFormat = errors.New("unsupported config format")

// Network is the topology and the hyper parameters of a new network.
type Network struct {
	Inputs           int     `json:"inputs" yaml:"inputs"`
	Hidden           int     `json:"hidden" yaml:"hidden"`
	Outputs          int     `json:"outputs" yaml:"outputs"`
	LearningRate     float64 `json:"learning_rate" yaml:"learning_rate"`
	Momentum         float64 `json:"momentum" yaml:"momentum"`
	InitialWeightMax float64 `json:"initial_weight_max" yaml:"initial_weight_max"`
	HiddenActivation string  `json:"hidden_activation" yaml:"hidden_activation"`
	OutputActivation string  `json:"output_activation" yaml:"output_activation"`
	ErrorFunction    string  `json:"error_function" yaml:"error_function"`
}

// DefaultNetwork is the network of the exercise classifier.
func DefaultNetwork() Network {
	return Network{
		Inputs:           8,
		Hidden:           7,
		Outputs:          4,
		LearningRate:     0.3,
		Momentum:         0.9,
		InitialWeightMax: 0.5,
		HiddenActivation: ml.Sigmoid.String(),
		OutputActivation: ml.Sigmoid.String(),
		ErrorFunction:    ml.SumSquared.String(),
	}
}

// ToML converts the config for the network constructor.
// Unknown function names fall back to the defaults.
func (n Network) ToML() ml.Config {
	return ml.Config{
		Inputs:           n.Inputs,
		Hidden:           n.Hidden,
		Outputs:          n.Outputs,
		LearningRate:     n.LearningRate,
		Momentum:         n.Momentum,
		InitialWeightMax: n.InitialWeightMax,
		HiddenActivation: ml.ParseActivation(n.HiddenActivation),
		OutputActivation: ml.ParseActivation(n.OutputActivation),
		ErrorFunction:    ml.ParseErrorFunction(n.ErrorFunction),
	}
}

// Training are the options of a training session.
type Training struct {
	Epochs      int     `json:"epochs" yaml:"epochs"`
	TargetError float64 `json:"target_error" yaml:"target_error"`
	ReportEvery int     `json:"report_every" yaml:"report_every"`
	Patience    int     `json:"patience" yaml:"patience"`
	Shuffle     bool    `json:"shuffle" yaml:"shuffle"`
	Window      int     `json:"window" yaml:"window"`
	// Validation is the fraction of the training data held out for validation.
	Validation float64 `json:"validation" yaml:"validation"`
	// Checkpoints is the directory where the network with the best validation loss is kept.
	Checkpoints string `json:"checkpoints" yaml:"checkpoints"`
}

// DefaultTraining trains once over the data in random order.
func DefaultTraining() Training {
	opts := train.DefaultOptions()
	return Training{
		Epochs:      opts.Epochs,
		TargetError: opts.TargetError,
		ReportEvery: opts.ReportEvery,
		Patience:    opts.Patience,
		Shuffle:     opts.Shuffle,
		Window:      opts.Window,
	}
}

// ToOptions converts the config for the trainer.
func (t Training) ToOptions() train.Options {
	return train.Options{
		Epochs:      t.Epochs,
		TargetError: t.TargetError,
		ReportEvery: t.ReportEvery,
		Patience:    t.Patience,
		Shuffle:     t.Shuffle,
		Window:      t.Window,
	}
}

// LoadNetwork reads a network config, starting from the defaults.
func LoadNetwork(path string) (Network, error) {
	n := DefaultNetwork()
	err := Load(path, &n)
	return n, err
}

// LoadTraining reads the training options, starting from the defaults.
func LoadTraining(path string) (Training, error) {
	t := DefaultTraining()
	err := Load(path, &t)
	return t, err
}

// Load decodes the json or yaml file at the given path into v.
func Load(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not load config '%s': %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(b, v)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, v)
	default:
		return fmt.Errorf("'%s': %w", path, ErrFormat)
	}
	if err != nil {
		return fmt.Errorf("could not unmarshal the config '%s': %w", path, err)
	}

	log.Debug().Str("path", path).Msg("loaded config")
	return nil
}
