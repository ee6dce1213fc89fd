package buffer

import (
	"math"
)

// Stats tracks the running properties of a sequence of values, e.g. the error rates of an epoch.
type Stats struct {
	count          int
	first, last    float64
	min, max       float64
	mean, dSquared float64
	ema            float64
}

// NewStats creates a new Stats.
func NewStats() *Stats {
	return &Stats{
		min: math.MaxFloat64,
		max: -math.MaxFloat64,
	}
}

// Push adds another value.
func (s *Stats) Push(v float64) {
	s.count++
	diff := (v - s.mean) / float64(s.count)
	mean := s.mean + diff
	squaredDiff := (v - mean) * (v - s.mean)
	s.dSquared += squaredDiff
	s.mean = mean

	w := 2 / float64(s.count+1)
	s.ema = v*w + s.ema*(1-w)

	if s.count == 1 {
		s.first = v
	}

	if s.min > v {
		s.min = v
	}

	if s.max < v {
		s.max = v
	}

	s.last = v
}

// Avg returns the average value.
func (s Stats) Avg() float64 {
	return s.mean
}

// EMA is the exponential moving average of the values.
func (s Stats) EMA() float64 {
	return s.ema
}

// Count returns the number of values.
func (s Stats) Count() int {
	return s.count
}

// Min returns the smallest value, or 0 if there are none.
func (s Stats) Min() float64 {
	if s.count == 0 {
		return 0
	}
	return s.min
}

// Max returns the largest value, or 0 if there are none.
func (s Stats) Max() float64 {
	if s.count == 0 {
		return 0
	}
	return s.max
}

// Last returns the most recent value.
func (s Stats) Last() float64 {
	return s.last
}

// Diff returns the difference between the last and the first value.
func (s Stats) Diff() float64 {
	return s.last - s.first
}

// Variance is the population variance of the values.
func (s Stats) Variance() float64 {
	if s.count == 0 {
		return 0
	}
	return s.dSquared / float64(s.count)
}

// StDev is the population standard deviation of the values.
func (s Stats) StDev() float64 {
	return math.Sqrt(s.Variance())
}
