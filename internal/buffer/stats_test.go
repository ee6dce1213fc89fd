package buffer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_Push(t *testing.T) {

	type test struct {
		values   []float64
		avg      float64
		count    int
		min      float64
		max      float64
		diff     float64
		variance float64
		ema      func(t *testing.T, avg, ema float64)
	}

	decreasing := make([]float64, 10)
	increasing := make([]float64, 10)
	for i := range decreasing {
		decreasing[i] = float64(10-i) / 10
		increasing[i] = float64(i+1) / 10
	}

	tests := map[string]test{
		"empty": {
			values: []float64{},
			ema: func(t *testing.T, avg, ema float64) {
				assert.Equal(t, 0.0, ema)
			},
		},
		"single": {
			values: []float64{0.7},
			avg:    0.7,
			count:  1,
			min:    0.7,
			max:    0.7,
			ema: func(t *testing.T, avg, ema float64) {
				assert.InDelta(t, 0.7, ema, 1e-12)
			},
		},
		"constant": {
			values: []float64{0.5, 0.5, 0.5, 0.5},
			avg:    0.5,
			count:  4,
			min:    0.5,
			max:    0.5,
			ema: func(t *testing.T, avg, ema float64) {
				assert.InDelta(t, avg, ema, 1e-12)
			},
		},
		"decreasing-error": {
			values:   decreasing,
			avg:      0.55,
			count:    10,
			min:      0.1,
			max:      1,
			diff:     -0.9,
			variance: 0.0825,
			// note : recent values weigh more, so the ema follows the error down
			ema: func(t *testing.T, avg, ema float64) {
				assert.Less(t, ema, avg)
			},
		},
		"increasing-error": {
			values:   increasing,
			avg:      0.55,
			count:    10,
			min:      0.1,
			max:      1,
			diff:     0.9,
			variance: 0.0825,
			ema: func(t *testing.T, avg, ema float64) {
				assert.Greater(t, ema, avg)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			stats := NewStats()
			for _, v := range tt.values {
				stats.Push(v)
			}
			assert.InDelta(t, tt.avg, stats.Avg(), 1e-12)
			assert.Equal(t, tt.count, stats.Count())
			assert.InDelta(t, tt.min, stats.Min(), 1e-12)
			assert.InDelta(t, tt.max, stats.Max(), 1e-12)
			assert.InDelta(t, tt.diff, stats.Diff(), 1e-12)
			assert.InDelta(t, tt.variance, stats.Variance(), 1e-12)
			assert.InDelta(t, math.Sqrt(tt.variance), stats.StDev(), 1e-12)
			tt.ema(t, stats.Avg(), stats.EMA())
		})
	}
}
