package buffer

// Ring keeps the last elements pushed to it, up to its size.
type Ring[T any] struct {
	index  int
	count  int
	values []T
}

// NewRing creates a new ring with the given buffer size.
func NewRing[T any](size int) *Ring[T] {
	if size < 1 {
		size = 1
	}
	return &Ring[T]{
		values: make([]T, size),
	}
}

// Size returns the number of elements within the ring.
func (r *Ring[T]) Size() int {
	if r.count < len(r.values) {
		return r.count
	}
	return len(r.values)
}

// Full returns true once the ring has wrapped around.
func (r *Ring[T]) Full() bool {
	return r.count >= len(r.values)
}

// Push adds an element to the ring, replacing the oldest one if the ring is full.
func (r *Ring[T]) Push(v T) {
	r.values[r.index] = v
	r.index = r.next(r.index)
	r.count++
}

func (r *Ring[T]) next(index int) int {
	return (index + 1) % len(r.values)
}

// Get returns the elements from the oldest to the newest.
func (r *Ring[T]) Get() []T {
	l := r.Size()
	v := make([]T, l)
	start := 0
	if r.Full() {
		start = r.index
	}
	for i := 0; i < l; i++ {
		v[i] = r.values[(start+i)%len(r.values)]
	}
	return v
}

// Window is a ring of error rates with their running average.
type Window struct {
	*Ring[float64]
}

// NewWindow creates a window over the last size values.
func NewWindow(size int) *Window {
	return &Window{Ring: NewRing[float64](size)}
}

// Avg returns the average of the values in the window, or 0 if it is empty.
func (w *Window) Avg() float64 {
	values := w.Get()
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
