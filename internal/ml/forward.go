package ml

import "fmt"

// Classify runs the forward pass and returns a copy of the output activations.
func (n *Network[T]) Classify(inputs []T) ([]T, error) {
	if err := n.forward(inputs); err != nil {
		return nil, err
	}
	return clone(n.outputNodes), nil
}

func (n *Network[T]) forward(inputs []T) error {
	if len(inputs) != n.cfg.Inputs {
		return fmt.Errorf("got %d inputs for %d input nodes: %w", len(inputs), n.cfg.Inputs, ErrDimension)
	}
	n.computeHiddenLayerActivations(inputs)
	n.computeOutputLayerActivations()
	return nil
}

func (n *Network[T]) computeHiddenLayerActivations(inputs []T) {
	layer(inputs, n.hiddenWeights, n.hiddenAcc)
	activateLayer(n.cfg.HiddenActivation, n.hiddenAcc, n.hiddenNodes)
}

func (n *Network[T]) computeOutputLayerActivations() {
	layer(n.hiddenNodes, n.outputWeights, n.outputAcc)
	activateLayer(n.cfg.OutputActivation, n.outputAcc, n.outputNodes)
}

// layer accumulates bias + sum(in[j] * w[j][i]) into acc[i].
// The bias weights are the last row of w.
func layer[T Float](in []T, w *Matrix[T], acc []T) {
	copy(acc, w.Row(len(in)))
	for j, x := range in {
		row := w.Row(j)
		for i := range acc {
			acc[i] += x * row[i]
		}
	}
}
