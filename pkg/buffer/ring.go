// Package buffer provides small in-memory collection buffers used by the
// voicebridge tooling.
package buffer

// Ring is a fixed-capacity ring that keeps the most recent values added to
// it. Once full, each Add overwrites the oldest value. It is not safe for
// concurrent use.
//
// The ring uses monotonically increasing head and tail counters; the live
// window is buf[head%cap : tail%cap] with wrap-around.
type Ring[T any] struct {
	buf        []T
	head, tail int64
}

// RingN creates a Ring holding at most size values. size must be positive.
func RingN[T any](size int) *Ring[T] {
	return &Ring[T]{
		buf: make([]T, size),
	}
}

// Add appends v to the ring, evicting the oldest value when full.
func (r *Ring[T]) Add(v T) {
	r.buf[r.tail%int64(len(r.buf))] = v
	r.tail++
	if r.tail-r.head > int64(len(r.buf)) {
		r.head++
	}
}

// Len returns the number of values currently held.
func (r *Ring[T]) Len() int {
	return int(r.tail - r.head)
}

// Cap returns the maximum number of values the ring can hold.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Items returns the held values in insertion order, oldest first.
// The returned slice is a copy; it is nil when the ring is empty.
func (r *Ring[T]) Items() []T {
	n := int(r.tail - r.head)
	if n == 0 {
		return nil
	}
	out := make([]T, 0, n)
	head := int(r.head % int64(len(r.buf)))
	if head+n <= len(r.buf) {
		return append(out, r.buf[head:head+n]...)
	}
	out = append(out, r.buf[head:]...)
	return append(out, r.buf[:n-(len(r.buf)-head)]...)
}

// Reset discards all held values.
func (r *Ring[T]) Reset() {
	r.head = 0
	r.tail = 0
}
