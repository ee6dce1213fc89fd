// Package train runs the epochs of a training session over a data set.
package train

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/drakos74/ardu-ann/internal/buffer"
	"github.com/drakos74/ardu-ann/internal/dataset"
	"github.com/drakos74/ardu-ann/internal/metrics"
	"github.com/drakos74/ardu-ann/internal/ml"
	"github.com/drakos74/ardu-ann/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// BestCheckpoint is the name under which the network with the lowest validation loss is stored.
const BestCheckpoint = "best"

var ErrEmpty = errors.New("empty training set")

// Options control the training loop.
type Options struct {
	// Epochs is the maximum number of passes over the training set.
	Epochs int
	// TargetError stops training once the windowed average error falls below it. 0 disables it.
	TargetError float64
	// ReportEvery logs the progress every so many examples.
	ReportEvery int
	// Patience stops training after so many epochs without a better validation loss. 0 disables it.
	Patience int
	Shuffle  bool
	// Window is the number of recent error rates averaged for the target error.
	Window int
}

// DefaultOptions trains once over the data in random order.
func DefaultOptions() Options {
	return Options{
		Epochs:      1,
		ReportEvery: 100,
		Shuffle:     true,
		Window:      10,
	}
}

// StopReason tells why the training stopped.
type StopReason int

const (
	Exhausted StopReason = iota
	TargetReached
	EarlyStop
)

func (r StopReason) String() string {
	switch r {
	case TargetReached:
		return "target error"
	case EarlyStop:
		return "early stop"
	default:
		return "epochs"
	}
}

// Result summarises a training session.
type Result struct {
	Run      string
	Epochs   int
	Examples int
	// LastError is the error of the last training step.
	LastError float64
	// EpochErrors is the average error of each epoch, EpochStDevs its standard deviation.
	EpochErrors []float64
	EpochStDevs []float64
	// BestValidationLoss is NaN if there was no validation set.
	BestValidationLoss float64
	Reason             StopReason
	Duration           time.Duration
}

// Validation holds the outputs of the network over a data set.
type Validation struct {
	Outputs [][]float64
	Targets [][]float64
	// Loss is the mean error per example, StDev its standard deviation.
	Loss  float64
	StDev float64
}

// Option customises a trainer.
type Option func(c *settings)

type settings struct {
	source     rand.Source
	run        string
	metrics    *metrics.Metrics
	checkpoint storage.Persistence
}

// WithSource sets the random source used for shuffling.
func WithSource(source rand.Source) Option {
	return func(c *settings) {
		c.source = source
	}
}

// WithRun sets the run identifier instead of a random one.
func WithRun(run string) Option {
	return func(c *settings) {
		c.run = run
	}
}

// WithMetrics records the progress in the given metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *settings) {
		c.metrics = m
	}
}

// WithCheckpoint stores the network every time the validation loss improves.
func WithCheckpoint(p storage.Persistence) Option {
	return func(c *settings) {
		c.checkpoint = p
	}
}

// Trainer trains a network over data sets.
type Trainer[T ml.Float] struct {
	network    *ml.Network[T]
	opts       Options
	rng        *rand.Rand
	run        string
	metrics    *metrics.Metrics
	checkpoint storage.Persistence
}

// New creates a trainer for the given network.
func New[T ml.Float](network *ml.Network[T], opts Options, options ...Option) *Trainer[T] {
	s := &settings{
		checkpoint: storage.NewVoidStorage(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.source == nil {
		s.source = rand.NewSource(time.Now().UnixNano())
	}
	if s.run == "" {
		s.run = uuid.New().String()
	}
	if opts.Epochs < 1 {
		opts.Epochs = 1
	}
	if opts.ReportEvery < 1 {
		opts.ReportEvery = DefaultOptions().ReportEvery
	}
	if opts.Window < 1 {
		opts.Window = DefaultOptions().Window
	}
	return &Trainer[T]{
		network:    network,
		opts:       opts,
		rng:        rand.New(s.source),
		run:        s.run,
		metrics:    s.metrics,
		checkpoint: s.checkpoint,
	}
}

// Run returns the identifier of the training run.
func (t *Trainer[T]) Run() string {
	return t.run
}

// Fit trains the network over the training set and checks it against the validation set,
// which may be nil, after every epoch.
func (t *Trainer[T]) Fit(train, validation *dataset.Set) (Result, error) {
	result := Result{
		Run:                t.run,
		EpochErrors:        make([]float64, 0),
		BestValidationLoss: math.NaN(),
	}
	if train == nil || train.Len() == 0 {
		return result, ErrEmpty
	}
	if err := t.check(train); err != nil {
		return result, fmt.Errorf("invalid training set: %w", err)
	}
	validate := validation != nil && validation.Len() > 0
	if validate {
		if err := t.check(validation); err != nil {
			return result, fmt.Errorf("invalid validation set: %w", err)
		}
	}

	inputs, targets := vectors[T](train)
	indexes := make([]int, len(inputs))
	for i := range indexes {
		indexes[i] = i
	}

	start := time.Now()
	window := buffer.NewWindow(t.opts.Window)
	stale := 0
	logger := log.With().Str("run", t.run).Logger()

	for epoch := 1; epoch <= t.opts.Epochs; epoch++ {
		if t.opts.Shuffle {
			t.rng.Shuffle(len(indexes), func(i, j int) {
				indexes[i], indexes[j] = indexes[j], indexes[i]
			})
		}

		stats := buffer.NewStats()
		for _, i := range indexes {
			e, err := t.network.Train(inputs[i], targets[i])
			if err != nil {
				return result, fmt.Errorf("could not train on example %d: %w", i, err)
			}
			errorRate := float64(e)
			result.Examples++
			stats.Push(errorRate)
			window.Push(errorRate)
			t.metrics.Train(errorRate)

			if result.Examples%t.opts.ReportEvery == 0 {
				logger.Info().
					Int64("cycle", t.network.TrainingCycle()).
					Int("examples", result.Examples).
					Float64("error", errorRate).
					Float64("avg", window.Avg()).
					Msg("trained examples")
			}
		}
		result.Epochs = epoch
		result.LastError = stats.Last()
		result.EpochErrors = append(result.EpochErrors, stats.Avg())
		result.EpochStDevs = append(result.EpochStDevs, stats.StDev())
		t.metrics.Epoch()

		// drift is the change of the error from the first to the last example of the epoch
		ev := logger.Debug().
			Int("epoch", epoch).
			Int("examples", stats.Count()).
			Float64("avg", stats.Avg()).
			Float64("ema", stats.EMA()).
			Float64("stdev", stats.StDev()).
			Float64("drift", stats.Diff()).
			Float64("min", stats.Min()).
			Float64("max", stats.Max())

		if validate {
			v, err := t.Validate(validation)
			if err != nil {
				return result, err
			}
			ev = ev.Float64("validation", v.Loss)
			if math.IsNaN(result.BestValidationLoss) || v.Loss < result.BestValidationLoss {
				result.BestValidationLoss = v.Loss
				stale = 0
				s := storage.From(t.network)
				s.Run = t.run
				if err := t.checkpoint.Store(BestCheckpoint, s); err != nil {
					return result, fmt.Errorf("could not store checkpoint: %w", err)
				}
			} else {
				stale++
			}
		}
		ev.Msg("epoch")

		if validate && t.opts.Patience > 0 && stale >= t.opts.Patience {
			result.Reason = EarlyStop
			break
		}
		if t.opts.TargetError > 0 && window.Avg() < t.opts.TargetError {
			result.Reason = TargetReached
			break
		}
	}

	result.Duration = time.Since(start)
	logger.Info().
		Int("epochs", result.Epochs).
		Int("examples", result.Examples).
		Float64("error", result.LastError).
		Str("reason", result.Reason.String()).
		Dur("duration", result.Duration).
		Msg("finished training")
	return result, nil
}

// Validate classifies every example of the set without training.
func (t *Trainer[T]) Validate(set *dataset.Set) (Validation, error) {
	v := Validation{
		Outputs: make([][]float64, 0, set.Len()),
		Targets: make([][]float64, 0, set.Len()),
	}
	if set.Len() == 0 {
		return v, nil
	}
	if err := t.check(set); err != nil {
		return v, fmt.Errorf("invalid validation set: %w", err)
	}

	inputs, targets := vectors[T](set)
	losses := make([]float64, len(inputs))
	for i := range inputs {
		loss, err := t.network.Loss(inputs[i], targets[i])
		if err != nil {
			return v, fmt.Errorf("could not validate example %d: %w", i, err)
		}
		losses[i] = float64(loss)
		output, err := t.network.Classify(inputs[i])
		if err != nil {
			return v, fmt.Errorf("could not classify example %d: %w", i, err)
		}
		v.Outputs = append(v.Outputs, widen(output))
		v.Targets = append(v.Targets, set.Examples[i].Target)
	}
	v.Loss, v.StDev = stat.MeanStdDev(losses, nil)
	if len(losses) == 1 {
		v.StDev = 0
	}
	t.metrics.Validate(len(losses), v.Loss)
	return v, nil
}

func (t *Trainer[T]) check(set *dataset.Set) error {
	return set.Check(t.network.NumInputNodes(), t.network.NumOutputNodes())
}

func vectors[T ml.Float](set *dataset.Set) ([][]T, [][]T) {
	inputs := make([][]T, set.Len())
	targets := make([][]T, set.Len())
	for i, e := range set.Examples {
		inputs[i] = narrow[T](e.Input)
		targets[i] = narrow[T](e.Target)
	}
	return inputs, targets
}

func narrow[T ml.Float](v []float64) []T {
	n := make([]T, len(v))
	for i, x := range v {
		n[i] = T(x)
	}
	return n
}

func widen[T ml.Float](v []T) []float64 {
	w := make([]float64, len(v))
	for i, x := range v {
		w[i] = float64(x)
	}
	return w
}
