package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivate(t *testing.T) {

	type test struct {
		activation Activation
		input      float64
		output     float64
	}

	tests := map[string]test{
		"sigmoid-zero": {
			activation: Sigmoid,
			input:      0,
			output:     0.5,
		},
		"sigmoid-positive": {
			activation: Sigmoid,
			input:      2,
			output:     1 / (1 + math.Exp(-2)),
		},
		"relu-negative": {
			activation: ReLU,
			input:      -3,
			output:     0,
		},
		"relu-positive": {
			activation: ReLU,
			input:      1.5,
			output:     1.5,
		},
		"softmax-raw": {
			activation: SoftMax,
			input:      1,
			output:     math.E,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tt.output, activate(tt.activation, tt.input), 1e-12)
		})
	}
}

func TestActivateLayer_SoftMax(t *testing.T) {
	acc := []float64{1, 2, 3, 1000}
	nodes := make([]float64, len(acc))
	activateLayer(SoftMax, acc, nodes)

	sum := 0.0
	for _, v := range nodes {
		assert.False(t, math.IsNaN(v))
		assert.True(t, v >= 0 && v <= 1)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 1.0, nodes[3], 1e-9)

	small := []float32{1, 2, 3}
	out := make([]float32, 3)
	activateLayer(SoftMax, small, out)
	e := []float64{math.Exp(1), math.Exp(2), math.Exp(3)}
	total := e[0] + e[1] + e[2]
	for i := range out {
		assert.InDelta(t, e[i]/total, float64(out[i]), 1e-6)
	}
}

func TestDelta(t *testing.T) {

	type test struct {
		activation Activation
		errorFunc  ErrorFunction
		delta      float64
	}

	target, output := 1.0, 0.25

	tests := map[string]test{
		"sigmoid-sumsquared": {
			activation: Sigmoid,
			errorFunc:  SumSquared,
			delta:      (target - output) * output * (1 - output),
		},
		"sigmoid-crossentropy": {
			activation: Sigmoid,
			errorFunc:  CrossEntropy,
			delta:      target - output,
		},
		"relu-sumsquared": {
			activation: ReLU,
			errorFunc:  SumSquared,
			delta:      target - output,
		},
		"relu-crossentropy": {
			activation: ReLU,
			errorFunc:  CrossEntropy,
			delta:      target - output,
		},
		"softmax-sumsquared": {
			activation: SoftMax,
			errorFunc:  SumSquared,
			delta:      (target - output) * output * (1 - output),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tt.delta, delta(tt.activation, tt.errorFunc, target, output), 1e-12)
		})
	}
}

func TestCost(t *testing.T) {
	assert.InDelta(t, 0.5*0.09, cost[float64](SumSquared, 1.0, 0.7), 1e-12)
	assert.InDelta(t, -math.Log(0.7), cost[float64](CrossEntropy, 1.0, 0.7), 1e-12)
	assert.InDelta(t, -math.Log(0.6), cost[float64](CrossEntropy, 0.0, 0.4), 1e-12)

	// saturated outputs must stay finite
	for _, o := range []float32{0, 1} {
		for _, target := range []float32{0, 1} {
			c := cost(CrossEntropy, target, o)
			assert.False(t, math.IsInf(float64(c), 0))
			assert.False(t, math.IsNaN(float64(c)))
			assert.True(t, c >= 0)
		}
	}
}

func TestParseActivation(t *testing.T) {
	assert.Equal(t, Sigmoid, ParseActivation("Sigmoid"))
	assert.Equal(t, ReLU, ParseActivation("ReLu"))
	assert.Equal(t, ReLU, ParseActivation("relu"))
	assert.Equal(t, SoftMax, ParseActivation(" softmax "))
	assert.Equal(t, Sigmoid, ParseActivation("tanh"))
	assert.Equal(t, Sigmoid, ParseActivation(""))

	for _, a := range []Activation{Sigmoid, ReLU, SoftMax} {
		assert.Equal(t, a, ParseActivation(a.String()))
	}
	assert.Equal(t, "Sigmoid", Activation(42).String())
}

func TestParseErrorFunction(t *testing.T) {
	assert.Equal(t, SumSquared, ParseErrorFunction("SumSquared"))
	assert.Equal(t, CrossEntropy, ParseErrorFunction("crossentropy"))
	assert.Equal(t, SumSquared, ParseErrorFunction("hinge"))

	for _, e := range []ErrorFunction{SumSquared, CrossEntropy} {
		assert.Equal(t, e, ParseErrorFunction(e.String()))
	}
}
