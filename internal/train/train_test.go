package train

import (
	"math"
	"math/rand"
	"testing"

	"github.com/drakos74/ardu-ann/internal/dataset"
	"github.com/drakos74/ardu-ann/internal/metrics"
	"github.com/drakos74/ardu-ann/internal/ml"
	"github.com/drakos74/ardu-ann/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// or returns the four examples of the logical or.
func or() *dataset.Set {
	return &dataset.Set{Examples: []dataset.Example{
		{Input: []float64{0, 0}, Target: []float64{0}},
		{Input: []float64{0, 1}, Target: []float64{1}},
		{Input: []float64{1, 0}, Target: []float64{1}},
		{Input: []float64{1, 1}, Target: []float64{1}},
	}}
}

func newNetwork(t *testing.T) *ml.Network[float32] {
	network, err := ml.New(ml.Config{
		Inputs:           2,
		Hidden:           4,
		Outputs:          1,
		LearningRate:     0.5,
		Momentum:         0.5,
		InitialWeightMax: 0.5,
	}, ml.WithSource(rand.NewSource(3)))
	require.NoError(t, err)
	return network
}

func TestTrainer_Fit(t *testing.T) {

	type test struct {
		opts     Options
		epochs   int
		examples int
		reason   StopReason
	}

	tests := map[string]test{
		"default": {
			opts:     DefaultOptions(),
			epochs:   1,
			examples: 4,
			reason:   Exhausted,
		},
		"epochs": {
			opts: Options{
				Epochs:      5,
				ReportEvery: 2,
			},
			epochs:   5,
			examples: 20,
			reason:   Exhausted,
		},
		"target-error": {
			opts: Options{
				Epochs:      100,
				TargetError: 10,
				Shuffle:     true,
			},
			epochs:   1,
			examples: 4,
			reason:   TargetReached,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			network := newNetwork(t)
			trainer := New(network, tt.opts, WithSource(rand.NewSource(1)), WithRun("run-"+name))

			result, err := trainer.Fit(or(), nil)
			require.NoError(t, err)
			assert.Equal(t, "run-"+name, result.Run)
			assert.Equal(t, tt.epochs, result.Epochs)
			assert.Equal(t, tt.examples, result.Examples)
			assert.Equal(t, tt.reason, result.Reason)
			assert.Len(t, result.EpochErrors, tt.epochs)
			require.Len(t, result.EpochStDevs, tt.epochs)
			for _, sd := range result.EpochStDevs {
				assert.GreaterOrEqual(t, sd, 0.0)
			}
			assert.True(t, math.IsNaN(result.BestValidationLoss))
			assert.Equal(t, float64(network.ErrorRate()), result.LastError)
			assert.Equal(t, int64(tt.examples), network.TrainingCycle())
		})
	}
}

func TestTrainer_Fit_Converges(t *testing.T) {
	network := newNetwork(t)
	m := metrics.New("converge")
	trainer := New(network, Options{Epochs: 500, Shuffle: true}, WithSource(rand.NewSource(2)), WithMetrics(m))

	result, err := trainer.Fit(or(), nil)
	require.NoError(t, err)
	first, last := result.EpochErrors[0], result.EpochErrors[len(result.EpochErrors)-1]
	assert.Less(t, last, first)

	v, err := trainer.Validate(or())
	require.NoError(t, err)
	assert.Len(t, v.Outputs, 4)
	assert.Equal(t, or().Examples[3].Target, v.Targets[3])
	assert.GreaterOrEqual(t, v.StDev, 0.0)
	assert.Less(t, v.Loss, first)
}

func TestTrainer_Fit_EarlyStop(t *testing.T) {
	network := newNetwork(t)
	checkpoints := storage.NewMockStorage()
	// a validation set that contradicts the training set cannot keep improving
	validation := dataset.NewSet()
	for _, e := range or().Examples {
		validation.Examples = append(validation.Examples, dataset.Example{
			Input:  e.Input,
			Target: []float64{1 - e.Target[0]},
		})
	}

	trainer := New(network, Options{Epochs: 5000, Patience: 3}, WithSource(rand.NewSource(4)), WithCheckpoint(checkpoints))
	result, err := trainer.Fit(or(), validation)
	require.NoError(t, err)

	assert.Equal(t, EarlyStop, result.Reason)
	assert.Less(t, result.Epochs, 5000)
	assert.False(t, math.IsNaN(result.BestValidationLoss))

	best, err := checkpoints.Load(BestCheckpoint)
	require.NoError(t, err)
	assert.Equal(t, trainer.Run(), best.Run)
	assert.GreaterOrEqual(t, checkpoints.Count[BestCheckpoint], 1)
	// the checkpoint was taken before the last stale epochs
	assert.Less(t, best.Config.TrainingCycle, network.TrainingCycle())
}

func TestTrainer_Fit_Errors(t *testing.T) {
	trainer := New(newNetwork(t), DefaultOptions())

	_, err := trainer.Fit(dataset.NewSet(), nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = trainer.Fit(nil, nil)
	assert.ErrorIs(t, err, ErrEmpty)

	wrong := &dataset.Set{Examples: []dataset.Example{{Input: []float64{1, 2, 3}, Target: []float64{1}}}}
	_, err = trainer.Fit(wrong, nil)
	assert.ErrorIs(t, err, dataset.ErrMalformed)

	_, err = trainer.Fit(or(), wrong)
	assert.ErrorIs(t, err, dataset.ErrMalformed)

	_, err = trainer.Validate(wrong)
	assert.ErrorIs(t, err, dataset.ErrMalformed)
}

func TestTrainer_Validate(t *testing.T) {
	network := newNetwork(t)
	trainer := New(network, DefaultOptions())

	empty, err := trainer.Validate(dataset.NewSet())
	require.NoError(t, err)
	assert.Empty(t, empty.Outputs)

	single := &dataset.Set{Examples: or().Examples[:1]}
	v, err := trainer.Validate(single)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v.StDev)

	loss, err := network.Loss([]float32{0, 0}, []float32{0})
	require.NoError(t, err)
	assert.InDelta(t, float64(loss), v.Loss, 1e-9)
	// validation does not train
	assert.Equal(t, int64(0), network.TrainingCycle())
}

func TestNew_Defaults(t *testing.T) {
	trainer := New(newNetwork(t), Options{})
	assert.Equal(t, 1, trainer.opts.Epochs)
	assert.Equal(t, 100, trainer.opts.ReportEvery)
	assert.Equal(t, 10, trainer.opts.Window)
	assert.Len(t, trainer.Run(), 36)
	assert.NotEqual(t, trainer.Run(), New(newNetwork(t), Options{}).Run())
}
