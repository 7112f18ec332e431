// Package recognizer turns a stream of per-frame hand observations into
// debounced gesture recognitions.
package recognizer

import (
	"fmt"

	"github.com/dukecorse1972/LSE-traductorv1/internal/feature"
	"github.com/dukecorse1972/LSE-traductorv1/internal/window"
)

// WindowPolicy selects what happens to the window after a classification.
type WindowPolicy string

const (
	// PolicySliding keeps the window after classification, giving
	// overlapping sequences.
	PolicySliding WindowPolicy = "sliding"
	// PolicyTumbling clears the window after every classification, giving
	// non-overlapping sequences.
	PolicyTumbling WindowPolicy = "tumbling"
)

// ParseWindowPolicy validates a policy name. The empty string selects
// PolicySliding.
func ParseWindowPolicy(s string) (WindowPolicy, error) {
	switch WindowPolicy(s) {
	case "", PolicySliding:
		return PolicySliding, nil
	case PolicyTumbling:
		return PolicyTumbling, nil
	default:
		return "", fmt.Errorf("unknown window policy %q", s)
	}
}

// Scheduler owns the sequence window and decides on which frames the
// classifier runs.
type Scheduler struct {
	window *window.Buffer
	stride uint64
	policy WindowPolicy
	frames uint64
}

// NewScheduler creates a scheduler with a window of seqLen frames that runs
// inference every stride frames once the window is full.
func NewScheduler(seqLen, stride int, policy WindowPolicy) *Scheduler {
	if stride < 1 {
		stride = 1
	}
	if policy == "" {
		policy = PolicySliding
	}
	return &Scheduler{
		window: window.New(seqLen),
		stride: uint64(stride),
		policy: policy,
	}
}

// Observe appends one frame and reports whether the classifier should run.
// When it should, the returned slice is a private copy of the window,
// oldest frame first.
func (s *Scheduler) Observe(f feature.Frame) ([]feature.Frame, bool) {
	s.window.Append(f)
	s.frames++

	if !s.window.IsFull() || s.frames%s.stride != 0 {
		return nil, false
	}

	seq := s.window.Snapshot()
	if s.policy == PolicyTumbling {
		s.window.Clear()
	}
	return seq, true
}

// Frames returns the number of frames observed since the last Reset.
func (s *Scheduler) Frames() uint64 {
	return s.frames
}

// Buffered returns the number of frames currently in the window.
func (s *Scheduler) Buffered() int {
	return s.window.Len()
}

// Reset clears the window and the frame counter.
func (s *Scheduler) Reset() {
	s.window.Clear()
	s.frames = 0
}
