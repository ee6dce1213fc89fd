package ml

import (
	"math"
	"strings"

	"github.com/rs/zerolog/log"
)

// Float is the numeric type a network computes in.
type Float interface {
	~float32 | ~float64
}

// Activation identifies the activation function of a layer.
type Activation int

const (
	// Sigmoid is 1/(1+e^-x). It is the default.
	Sigmoid Activation = iota
	// ReLU is max(0, x).
	ReLU
	// SoftMax is e^x renormalised over the whole layer.
	SoftMax
)

var activationNames = map[Activation]string{
	Sigmoid: "Sigmoid",
	ReLU:    "ReLu",
	SoftMax: "SoftMax",
}

// String returns the name used in persisted files.
func (a Activation) String() string {
	if name, ok := activationNames[a]; ok {
		return name
	}
	return activationNames[Sigmoid]
}

// ParseActivation resolves an activation by name.
// Unknown names fall back to Sigmoid with a warning.
func ParseActivation(name string) Activation {
	for a, n := range activationNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return a
		}
	}
	log.Warn().
		Str("name", name).
		Str("default", Sigmoid.String()).
		Msg("unknown activation function")
	return Sigmoid
}

// ErrorFunction identifies how the error of an output node is measured.
type ErrorFunction int

const (
	// SumSquared contributes 0.5*(target-output)^2 per node. It is the default.
	SumSquared ErrorFunction = iota
	// CrossEntropy contributes -(t*log(o) + (1-t)*log(1-o)) per node.
	CrossEntropy
)

var errorNames = map[ErrorFunction]string{
	SumSquared:   "SumSquared",
	CrossEntropy: "CrossEntropy",
}

// String returns the name used in persisted files.
func (e ErrorFunction) String() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return errorNames[SumSquared]
}

// ParseErrorFunction resolves an error function by name.
// Unknown names fall back to SumSquared with a warning.
func ParseErrorFunction(name string) ErrorFunction {
	for e, n := range errorNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return e
		}
	}
	log.Warn().
		Str("name", name).
		Str("default", SumSquared.String()).
		Msg("unknown error function")
	return SumSquared
}

// epsilon keeps log away from 0 for saturated outputs.
const epsilon = 1e-7

// activate applies a to the accumulated input of a single node.
// For SoftMax this is only the exponential, activateLayer renormalises it.
func activate[T Float](a Activation, x T) T {
	switch a {
	case ReLU:
		if x < 0 {
			return 0
		}
		return x
	case SoftMax:
		return T(math.Exp(float64(x)))
	default:
		return T(1.0 / (1.0 + math.Exp(-float64(x))))
	}
}

// activateLayer fills nodes from the accumulated inputs in acc.
func activateLayer[T Float](a Activation, acc, nodes []T) {
	if a != SoftMax {
		for i, x := range acc {
			nodes[i] = activate(a, x)
		}
		return
	}
	// shift by the largest input so that e^x cannot overflow; the ratio is unchanged
	max := acc[0]
	for _, x := range acc[1:] {
		if x > max {
			max = x
		}
	}
	var sum T
	for i, x := range acc {
		nodes[i] = activate(SoftMax, x-max)
		sum += nodes[i]
	}
	for i := range nodes {
		nodes[i] /= sum
	}
}

// delta is the error gradient of an output node.
//
// The formula is a lookup on the (activation, error) pair, not a derivative:
// ReLU or CrossEntropy use target-output, everything else uses the
// sigmoid form. Networks trained by earlier versions depend on this table.
func delta[T Float](a Activation, e ErrorFunction, target, output T) T {
	if a == ReLU || e == CrossEntropy {
		return target - output
	}
	return (target - output) * output * (1 - output)
}

// cost is the error contribution of a single output node.
func cost[T Float](e ErrorFunction, target, output T) T {
	t, o := float64(target), float64(output)
	switch e {
	case CrossEntropy:
		o = math.Min(math.Max(o, epsilon), 1-epsilon)
		return T(-(t*math.Log(o) + (1-t)*math.Log(1-o)))
	default:
		return T(0.5 * (t - o) * (t - o))
	}
}
