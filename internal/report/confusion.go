package report

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrClass = errors.New("class out of range")
	ErrEmpty = errors.New("nothing to evaluate")
)

// Confusion counts the predictions of a classifier against the actual classes.
// Rows are the actual classes and columns the predicted ones.
type Confusion struct {
	classes int
	counts  *mat.Dense
}

// NewConfusion creates an empty confusion matrix for the given number of classes.
func NewConfusion(classes int) *Confusion {
	if classes < 2 {
		classes = 2
	}
	return &Confusion{
		classes: classes,
		counts:  mat.NewDense(classes, classes, nil),
	}
}

// Classes returns the number of classes.
func (c *Confusion) Classes() int {
	return c.classes
}

// Add counts one prediction.
func (c *Confusion) Add(actual, predicted int) error {
	if actual < 0 || actual >= c.classes || predicted < 0 || predicted >= c.classes {
		return fmt.Errorf("actual %d predicted %d for %d classes: %w", actual, predicted, c.classes, ErrClass)
	}
	c.counts.Set(actual, predicted, c.counts.At(actual, predicted)+1)
	return nil
}

// Count returns the number of examples of the actual class predicted as the given one.
func (c *Confusion) Count(actual, predicted int) int {
	return int(c.counts.At(actual, predicted))
}

// Total returns the number of predictions.
func (c *Confusion) Total() int {
	return int(mat.Sum(c.counts))
}

// Accuracy is the share of correct predictions.
func (c *Confusion) Accuracy() float64 {
	total := mat.Sum(c.counts)
	if total == 0 {
		return 0
	}
	return mat.Trace(c.counts) / total
}

// Precision is the share of predictions of the class that were correct.
func (c *Confusion) Precision(class int) float64 {
	return ratio(c.counts.At(class, class), floats.Sum(mat.Col(nil, class, c.counts)))
}

// Recall is the share of examples of the class that were predicted correctly.
func (c *Confusion) Recall(class int) float64 {
	return ratio(c.counts.At(class, class), floats.Sum(mat.Row(nil, class, c.counts)))
}

// F1 is the harmonic mean of precision and recall.
func (c *Confusion) F1(class int) float64 {
	p, r := c.Precision(class), c.Recall(class)
	return ratio(2*p*r, p+r)
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Class maps a network output or target to a class.
// A single value is a binary class split at 0.5, otherwise the largest value wins.
func Class(vector []float64) int {
	switch len(vector) {
	case 0:
		return 0
	case 1:
		if vector[0] >= 0.5 {
			return 1
		}
		return 0
	default:
		return floats.MaxIdx(vector)
	}
}

// Evaluate builds the confusion matrix of the outputs against their targets.
func Evaluate(outputs, targets [][]float64) (*Confusion, error) {
	if len(outputs) != len(targets) {
		return nil, fmt.Errorf("%d outputs for %d targets: %w", len(outputs), len(targets), ErrClass)
	}
	if len(targets) == 0 {
		return nil, ErrEmpty
	}

	c := NewConfusion(len(targets[0]))
	for i := range targets {
		if len(outputs[i]) != len(targets[i]) {
			return nil, fmt.Errorf("example %d has %d outputs for %d targets: %w", i, len(outputs[i]), len(targets[i]), ErrClass)
		}
		if err := c.Add(Class(targets[i]), Class(outputs[i])); err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
	}
	return c, nil
}
