package ml

import (
	"fmt"
)

// Matrix is a dense row-major matrix.
// Row r of a weight matrix holds the weights leaving source node r,
// the last row holds the bias weights.
type Matrix[T Float] struct {
	rows, cols int
	data       []T
}

// NewMatrix creates a zero matrix of the given shape.
func NewMatrix[T Float](rows, cols int) *Matrix[T] {
	return &Matrix[T]{
		rows: rows,
		cols: cols,
		data: make([]T, rows*cols),
	}
}

// MatrixFrom copies the given rows into a new matrix.
// All rows must have the same length.
func MatrixFrom[T Float](values [][]T) (*Matrix[T], error) {
	if len(values) == 0 {
		return NewMatrix[T](0, 0), nil
	}
	m := NewMatrix[T](len(values), len(values[0]))
	for r, row := range values {
		if len(row) != m.cols {
			return nil, fmt.Errorf("row %d has %d columns instead of %d: %w", r, len(row), m.cols, ErrShape)
		}
		copy(m.data[r*m.cols:], row)
	}
	return m, nil
}

// Shape returns the number of rows and columns.
func (m *Matrix[T]) Shape() (int, int) {
	return m.rows, m.cols
}

// At returns the element at row r and column c.
func (m *Matrix[T]) At(r, c int) T {
	return m.data[r*m.cols+c]
}

// Set sets the element at row r and column c.
func (m *Matrix[T]) Set(r, c int, v T) {
	m.data[r*m.cols+c] = v
}

// Row returns the live slice backing row r.
func (m *Matrix[T]) Row(r int) []T {
	return m.data[r*m.cols : (r+1)*m.cols]
}

// Rows returns a copy of the matrix as a slice of rows.
func (m *Matrix[T]) Rows() [][]T {
	values := make([][]T, m.rows)
	for r := range values {
		values[r] = make([]T, m.cols)
		copy(values[r], m.Row(r))
	}
	return values
}

// Fill sets every element to the value returned by f.
func (m *Matrix[T]) Fill(f func() T) {
	for i := range m.data {
		m.data[i] = f()
	}
}
