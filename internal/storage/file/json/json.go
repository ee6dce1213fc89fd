package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/drakos74/ardu-ann/internal/ml"
	"github.com/drakos74/ardu-ann/internal/storage"
)

// Version is the current version of the document layout.
const Version = 1

type document struct {
	Version          int         `json:"version"`
	Run              string      `json:"run,omitempty"`
	Inputs           int         `json:"inputs"`
	Hidden           int         `json:"hidden"`
	Outputs          int         `json:"outputs"`
	LearningRate     float64     `json:"learning_rate"`
	Momentum         float64     `json:"momentum"`
	InitialWeightMax float64     `json:"initial_weight_max"`
	TrainingCycle    int64       `json:"training_cycle"`
	HiddenActivation string      `json:"hidden_activation"`
	OutputActivation string      `json:"output_activation"`
	ErrorFunction    string      `json:"error_function"`
	HiddenWeights    [][]float64 `json:"hidden_weights"`
	OutputWeights    [][]float64 `json:"output_weights"`
}

// Codec is the versioned json format.
// Unlike the plain format it keeps the training cycle and the functions of the network.
type Codec struct {
	// Indent pretty prints the document.
	Indent bool
}

// Encode writes the snapshot as a json document.
func (c Codec) Encode(w io.Writer, s storage.Snapshot) error {
	if err := s.Check(); err != nil {
		return err
	}
	cfg := s.Config
	doc := document{
		Version:          Version,
		Run:              s.Run,
		Inputs:           cfg.Inputs,
		Hidden:           cfg.Hidden,
		Outputs:          cfg.Outputs,
		LearningRate:     cfg.LearningRate,
		Momentum:         cfg.Momentum,
		InitialWeightMax: cfg.InitialWeightMax,
		TrainingCycle:    cfg.TrainingCycle,
		HiddenActivation: cfg.HiddenActivation.String(),
		OutputActivation: cfg.OutputActivation.String(),
		ErrorFunction:    cfg.ErrorFunction.String(),
		HiddenWeights:    s.HiddenWeights,
		OutputWeights:    s.OutputWeights,
	}

	encoder := json.NewEncoder(w)
	if c.Indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("could not encode network: %s: %w", err.Error(), storage.CouldNotSaveErr)
	}
	return nil
}

// Decode reads a json document.
func (c Codec) Decode(r io.Reader) (storage.Snapshot, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return storage.Snapshot{}, fmt.Errorf("could not unmarshal network: %s: %w", err.Error(), storage.CouldNotLoadErr)
	}
	if doc.Version != Version {
		return storage.Snapshot{}, fmt.Errorf("unsupported version %d: %w", doc.Version, storage.CouldNotLoadErr)
	}

	s := storage.Snapshot{
		Config: ml.Config{
			Inputs:           doc.Inputs,
			Hidden:           doc.Hidden,
			Outputs:          doc.Outputs,
			LearningRate:     doc.LearningRate,
			Momentum:         doc.Momentum,
			InitialWeightMax: doc.InitialWeightMax,
			TrainingCycle:    doc.TrainingCycle,
			HiddenActivation: ml.ParseActivation(doc.HiddenActivation),
			OutputActivation: ml.ParseActivation(doc.OutputActivation),
			ErrorFunction:    ml.ParseErrorFunction(doc.ErrorFunction),
		},
		HiddenWeights: doc.HiddenWeights,
		OutputWeights: doc.OutputWeights,
		Run:           doc.Run,
	}
	if err := s.Check(); err != nil {
		return storage.Snapshot{}, err
	}
	return s, nil
}
