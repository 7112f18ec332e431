// Package window holds the fixed-length sequence of recent frames that is
// fed to the classifier.
package window

import "github.com/dukecorse1972/LSE-traductorv1/internal/feature"

// DefaultCapacity is the sequence length the classifier is trained on.
const DefaultCapacity = 60

// Buffer is a fixed-capacity FIFO of frames. Once full, each Append evicts
// the oldest frame. A Buffer is not safe for concurrent use; it belongs to
// one recognition session.
type Buffer struct {
	frames []feature.Frame
	head   int // index of the oldest frame
	size   int
}

// New creates a Buffer holding at most capacity frames.
// Capacities below 1 fall back to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Buffer{frames: make([]feature.Frame, capacity)}
}

// Append adds a frame at the tail, dropping the oldest frame when full.
func (b *Buffer) Append(f feature.Frame) {
	c := len(b.frames)
	if b.size < c {
		b.frames[(b.head+b.size)%c] = f
		b.size++
		return
	}
	b.frames[b.head] = f
	b.head = (b.head + 1) % c
}

// Len returns the number of frames currently held.
func (b *Buffer) Len() int {
	return b.size
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.frames)
}

// IsFull reports whether the buffer holds Cap frames.
func (b *Buffer) IsFull() bool {
	return b.size == len(b.frames)
}

// Snapshot returns a copy of the held frames, oldest first.
func (b *Buffer) Snapshot() []feature.Frame {
	out := make([]feature.Frame, b.size)
	c := len(b.frames)
	for i := 0; i < b.size; i++ {
		out[i] = b.frames[(b.head+i)%c]
	}
	return out
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.head = 0
	b.size = 0
}
