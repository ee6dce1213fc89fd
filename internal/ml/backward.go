package ml

import "fmt"

// Train runs one training step on a single example and returns its error.
// The error is the sum of the per node contributions of this example only.
func (n *Network[T]) Train(inputs, targets []T) (T, error) {
	if len(targets) != n.cfg.Outputs {
		return 0, fmt.Errorf("got %d targets for %d output nodes: %w", len(targets), n.cfg.Outputs, ErrDimension)
	}
	if err := n.forward(inputs); err != nil {
		return 0, err
	}

	n.errorRate = 0
	n.computeErrors(targets)
	n.backpropagateErrors()

	n.updateHiddenWeights(inputs)
	n.updateOutputWeights()

	n.cfg.TrainingCycle++

	return n.errorRate, nil
}

// Loss runs the forward pass and returns the error for the given targets
// without changing deltas, weights or the training cycle.
func (n *Network[T]) Loss(inputs, targets []T) (T, error) {
	if len(targets) != n.cfg.Outputs {
		return 0, fmt.Errorf("got %d targets for %d output nodes: %w", len(targets), n.cfg.Outputs, ErrDimension)
	}
	if err := n.forward(inputs); err != nil {
		return 0, err
	}
	var loss T
	for i, target := range targets {
		loss += cost(n.cfg.ErrorFunction, target, n.outputNodes[i])
	}
	return loss, nil
}

func (n *Network[T]) computeErrors(targets []T) {
	for i, target := range targets {
		output := n.outputNodes[i]
		n.outputDeltas[i] = delta(n.cfg.OutputActivation, n.cfg.ErrorFunction, target, output)
		n.errorRate += cost(n.cfg.ErrorFunction, target, output)
	}
}

// backpropagateErrors always uses the sigmoid derivative h*(1-h),
// whatever the hidden activation is.
func (n *Network[T]) backpropagateErrors() {
	for i := range n.hiddenDeltas {
		var acc T
		row := n.outputWeights.Row(i)
		for j, d := range n.outputDeltas {
			acc += row[j] * d
		}
		h := n.hiddenNodes[i]
		n.hiddenDeltas[i] = acc * h * (1 - h)
	}
}

func (n *Network[T]) updateHiddenWeights(inputs []T) {
	update(n.hiddenWeights, n.hiddenChanges, inputs, n.hiddenDeltas, T(n.cfg.LearningRate), T(n.cfg.Momentum))
}

func (n *Network[T]) updateOutputWeights() {
	update(n.outputWeights, n.outputChanges, n.hiddenNodes, n.outputDeltas, T(n.cfg.LearningRate), T(n.cfg.Momentum))
}

// update applies change = rate*delta*upstream + momentum*change and weight += change
// to every weight, the bias row using an upstream activation of 1.
func update[T Float](weights, changes *Matrix[T], upstream, deltas []T, rate, momentum T) {
	bias := len(upstream)
	w, c := weights.Row(bias), changes.Row(bias)
	for i, d := range deltas {
		c[i] = rate*d + momentum*c[i]
		w[i] += c[i]
	}
	for j, x := range upstream {
		w, c := weights.Row(j), changes.Row(j)
		for i, d := range deltas {
			c[i] = rate*x*d + momentum*c[i]
			w[i] += c[i]
		}
	}
}
