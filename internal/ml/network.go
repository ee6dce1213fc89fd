package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

var (
	// ErrTopology is returned for node counts below one, a negative initial weight range
	// or hyperparameters that are not finite.
	ErrTopology = errors.New("invalid topology")
	// ErrShape is returned when a weight matrix does not match the topology.
	ErrShape = errors.New("weight matrix shape mismatch")
	// ErrDimension is returned when an input or target vector has the wrong length.
	ErrDimension = errors.New("vector length mismatch")
)

// Config defines the topology and the hyperparameters of a network.
type Config struct {
	Inputs           int
	Hidden           int
	Outputs          int
	LearningRate     float64
	Momentum         float64
	InitialWeightMax float64
	// TrainingCycle resumes the cycle counter of a previously trained network.
	TrainingCycle    int64
	HiddenActivation Activation
	OutputActivation Activation
	ErrorFunction    ErrorFunction
}

// Validate checks the topology.
func (c Config) Validate() error {
	if c.Inputs < 1 || c.Hidden < 1 || c.Outputs < 1 {
		return fmt.Errorf("nodes %d/%d/%d must all be positive: %w", c.Inputs, c.Hidden, c.Outputs, ErrTopology)
	}
	for name, v := range map[string]float64{
		"learning rate":      c.LearningRate,
		"momentum":           c.Momentum,
		"initial weight max": c.InitialWeightMax,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s %f is not finite: %w", name, v, ErrTopology)
		}
	}
	if c.InitialWeightMax < 0 {
		return fmt.Errorf("initial weight max %f is negative: %w", c.InitialWeightMax, ErrTopology)
	}
	return nil
}

// Option customises the construction of a network.
type Option func(o *options)

type options struct {
	source rand.Source
}

// WithSource sets the random source used for the initial weights.
func WithSource(source rand.Source) Option {
	return func(o *options) {
		o.source = source
	}
}

// Network is a perceptron with one hidden layer trained by backpropagation with momentum.
// It is not safe for concurrent use.
type Network[T Float] struct {
	cfg Config
	rng *rand.Rand

	errorRate T

	hiddenAcc []T
	outputAcc []T

	hiddenNodes   []T
	outputNodes   []T
	hiddenWeights *Matrix[T]
	outputWeights *Matrix[T]
	hiddenDeltas  []T
	outputDeltas  []T
	hiddenChanges *Matrix[T]
	outputChanges *Matrix[T]
}

// New creates a single precision network.
func New(cfg Config, opts ...Option) (*Network[float32], error) {
	return NewNetwork[float32](cfg, opts...)
}

// NewNetwork creates a network with random weights in (-InitialWeightMax, +InitialWeightMax)
// and zero weight changes.
func NewNetwork[T Float](cfg Config, opts ...Option) (*Network[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.source == nil {
		o.source = rand.NewSource(time.Now().UnixNano())
	}

	n := &Network[T]{
		cfg:           cfg,
		rng:           rand.New(o.source),
		hiddenAcc:     make([]T, cfg.Hidden),
		outputAcc:     make([]T, cfg.Outputs),
		hiddenNodes:   make([]T, cfg.Hidden),
		outputNodes:   make([]T, cfg.Outputs),
		hiddenWeights: NewMatrix[T](cfg.Inputs+1, cfg.Hidden),
		outputWeights: NewMatrix[T](cfg.Hidden+1, cfg.Outputs),
		hiddenDeltas:  make([]T, cfg.Hidden),
		outputDeltas:  make([]T, cfg.Outputs),
		hiddenChanges: NewMatrix[T](cfg.Inputs+1, cfg.Hidden),
		outputChanges: NewMatrix[T](cfg.Hidden+1, cfg.Outputs),
	}

	n.hiddenWeights.Fill(n.randomWeight)
	n.outputWeights.Fill(n.randomWeight)

	return n, nil
}

// randomWeight draws uniformly from the open interval (-max, +max).
func (n *Network[T]) randomWeight() T {
	max := n.cfg.InitialWeightMax
	bound := T(max)
	// ranges below the precision of T collapse to zero
	if bound == 0 {
		return 0
	}
	for {
		w := T((n.rng.Float64()*2 - 1) * max)
		// rounding to T must not land on the boundary
		if float64(w) > -max && float64(w) < max && w > -bound && w < bound {
			return w
		}
	}
}

// LoadWeights replaces both weight matrices.
// Shapes must be (inputs+1)x(hidden) and (hidden+1)x(outputs); on error nothing is changed.
func (n *Network[T]) LoadWeights(hidden, output [][]T) error {
	h, err := MatrixFrom(hidden)
	if err != nil {
		return fmt.Errorf("hidden weights: %w", err)
	}
	o, err := MatrixFrom(output)
	if err != nil {
		return fmt.Errorf("output weights: %w", err)
	}
	if err := checkShape("hidden", h, n.cfg.Inputs+1, n.cfg.Hidden); err != nil {
		return err
	}
	if err := checkShape("output", o, n.cfg.Hidden+1, n.cfg.Outputs); err != nil {
		return err
	}
	n.hiddenWeights = h
	n.outputWeights = o
	return nil
}

func checkShape[T Float](name string, m *Matrix[T], rows, cols int) error {
	r, c := m.Shape()
	if r != rows || c != cols {
		return fmt.Errorf("%s weights are %dx%d, expected %dx%d: %w", name, r, c, rows, cols, ErrShape)
	}
	return nil
}

// Config returns the current configuration, including the training cycle.
func (n *Network[T]) Config() Config {
	return n.cfg
}

func (n *Network[T]) NumInputNodes() int {
	return n.cfg.Inputs
}

func (n *Network[T]) NumHiddenNodes() int {
	return n.cfg.Hidden
}

func (n *Network[T]) NumOutputNodes() int {
	return n.cfg.Outputs
}

func (n *Network[T]) LearningRate() float64 {
	return n.cfg.LearningRate
}

func (n *Network[T]) Momentum() float64 {
	return n.cfg.Momentum
}

func (n *Network[T]) InitialWeightMax() float64 {
	return n.cfg.InitialWeightMax
}

func (n *Network[T]) TrainingCycle() int64 {
	return n.cfg.TrainingCycle
}

// ErrorRate returns the error of the most recent training step.
func (n *Network[T]) ErrorRate() T {
	return n.errorRate
}

func (n *Network[T]) HiddenActivation() Activation {
	return n.cfg.HiddenActivation
}

func (n *Network[T]) OutputActivation() Activation {
	return n.cfg.OutputActivation
}

func (n *Network[T]) ErrorFunction() ErrorFunction {
	return n.cfg.ErrorFunction
}

// HiddenNodes returns a copy of the last hidden layer activations.
func (n *Network[T]) HiddenNodes() []T {
	return clone(n.hiddenNodes)
}

// OutputNodes returns a copy of the last output layer activations.
func (n *Network[T]) OutputNodes() []T {
	return clone(n.outputNodes)
}

// HiddenDeltas returns a copy of the hidden deltas of the last training step.
func (n *Network[T]) HiddenDeltas() []T {
	return clone(n.hiddenDeltas)
}

// OutputDeltas returns a copy of the output deltas of the last training step.
func (n *Network[T]) OutputDeltas() []T {
	return clone(n.outputDeltas)
}

// HiddenWeights returns a copy of the input to hidden weights, bias row last.
func (n *Network[T]) HiddenWeights() [][]T {
	return n.hiddenWeights.Rows()
}

// OutputWeights returns a copy of the hidden to output weights, bias row last.
func (n *Network[T]) OutputWeights() [][]T {
	return n.outputWeights.Rows()
}

func (n *Network[T]) HiddenWeightChanges() [][]T {
	return n.hiddenChanges.Rows()
}

func (n *Network[T]) OutputWeightChanges() [][]T {
	return n.outputChanges.Rows()
}

func (n *Network[T]) SetLearningRate(learningRate float64) {
	n.cfg.LearningRate = learningRate
}

func (n *Network[T]) SetMomentum(momentum float64) {
	n.cfg.Momentum = momentum
}

// SetInitialWeightMax only affects how the value is persisted; existing weights are kept.
func (n *Network[T]) SetInitialWeightMax(initialWeightMax float64) {
	n.cfg.InitialWeightMax = initialWeightMax
}

func (n *Network[T]) SetHiddenActivation(a Activation) {
	n.cfg.HiddenActivation = a
}

func (n *Network[T]) SetOutputActivation(a Activation) {
	n.cfg.OutputActivation = a
}

// SetActivation sets the activation of both layers.
func (n *Network[T]) SetActivation(a Activation) {
	n.cfg.HiddenActivation = a
	n.cfg.OutputActivation = a
}

func (n *Network[T]) SetErrorFunction(e ErrorFunction) {
	n.cfg.ErrorFunction = e
}

// String reports the training progress.
func (n *Network[T]) String() string {
	return fmt.Sprintf("Training cycle: %d. Error rate: %f", n.cfg.TrainingCycle, float64(n.errorRate))
}

func clone[T Float](v []T) []T {
	c := make([]T, len(v))
	copy(c, v)
	return c
}
