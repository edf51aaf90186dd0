package control

// History is a fixed-capacity ring buffer of per-cycle samples. Appending
// beyond capacity evicts the oldest sample; memory never grows after
// construction.
type History[T any] struct {
	buf   []T
	head  int // index of the next write slot
	count int
}

// NewHistory creates an empty history with the given capacity
func NewHistory[T any](capacity int) *History[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &History[T]{buf: make([]T, capacity)}
}

// Append records one sample, evicting the oldest when full
func (h *History[T]) Append(v T) {
	h.buf[h.head] = v
	h.head = (h.head + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
}

// LookBack returns the sample recorded cyclesAgo appends ago, where 0 is the
// newest sample. Requests older than the stored window clamp to the oldest
// available sample.
func (h *History[T]) LookBack(cyclesAgo int) T {
	if h.count == 0 {
		var zero T
		return zero
	}
	if cyclesAgo < 0 {
		cyclesAgo = 0
	}
	if cyclesAgo > h.count-1 {
		cyclesAgo = h.count - 1
	}
	idx := (h.head - 1 - cyclesAgo + 2*len(h.buf)) % len(h.buf)
	return h.buf[idx]
}

// Len returns the number of stored samples
func (h *History[T]) Len() int {
	return h.count
}

// Cap returns the fixed capacity
func (h *History[T]) Cap() int {
	return len(h.buf)
}

// Reset discards all stored samples without releasing memory
func (h *History[T]) Reset() {
	h.head = 0
	h.count = 0
}

// Snapshot returns the stored samples oldest first
func (h *History[T]) Snapshot() []T {
	out := make([]T, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.LookBack(h.count - 1 - i)
	}
	return out
}
