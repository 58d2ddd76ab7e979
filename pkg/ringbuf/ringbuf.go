// Package ringbuf implements a fixed-capacity FIFO that overwrites its oldest
// element when full.
//
// Producers never block and never see an error: pushing into a full ring
// silently drops the oldest unread element. Consumers drain in bounded
// chunks. A Ring is not safe for concurrent use; callers that share one
// across goroutines must provide their own locking.
package ringbuf

// Ring is a circular queue of fixed capacity.
//
// write is the slot the next Push fills, read is the oldest unread slot.
// When write catches up with read the ring is full rather than empty, which
// is tracked by full.
type Ring[T any] struct {
	buf   []T
	read  int
	write int
	full  bool
}

// New creates a ring holding at most capacity elements. A capacity below 1
// is raised to 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		buf: make([]T, capacity),
	}
}

// Cap returns the fixed capacity of the ring.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Pending returns the number of unread elements.
func (r *Ring[T]) Pending() int {
	if r.full {
		return len(r.buf)
	}
	n := r.write - r.read
	if n < 0 {
		n += len(r.buf)
	}
	return n
}

// Empty reports whether there is nothing left to drain.
func (r *Ring[T]) Empty() bool {
	return !r.full && r.read == r.write
}

// Push appends v. If the ring is full the oldest unread element is
// overwritten.
func (r *Ring[T]) Push(v T) {
	if r.full {
		// oldest slot is about to be overwritten, move the reader past it
		r.read = (r.read + 1) % len(r.buf)
	}
	r.buf[r.write] = v
	r.write = (r.write + 1) % len(r.buf)
	r.full = r.write == r.read
}

// Pop removes and returns the oldest element. ok is false when the ring is
// empty.
func (r *Ring[T]) Pop() (v T, ok bool) {
	if r.Empty() {
		return v, false
	}
	v = r.buf[r.read]
	r.read = (r.read + 1) % len(r.buf)
	r.full = false
	return v, true
}

// Drain removes up to max elements in FIFO order and appends them to dst.
// It stops early when the ring runs empty. The extended slice is returned.
func (r *Ring[T]) Drain(dst []T, max int) []T {
	for i := 0; i < max; i++ {
		v, ok := r.Pop()
		if !ok {
			break
		}
		dst = append(dst, v)
	}
	return dst
}

// Reset discards all unread elements.
func (r *Ring[T]) Reset() {
	r.read = 0
	r.write = 0
	r.full = false
}
