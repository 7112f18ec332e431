package feature

import (
	"sort"

	"github.com/dukecorse1972/LSE-traductorv1/internal/detector"
)

// Frame is the per-frame classifier input: up to two hand vectors ordered
// left to right by wrist x, zero-filled where no hand was observed.
type Frame [FrameSize]float32

// Hand is one accepted hand observation in a frame.
type Hand struct {
	WristX   float64
	Features Vector
}

// NewHand normalizes a detected hand. ok is false when the hand must be
// skipped.
func NewHand(h detector.HandLandmarks) (Hand, bool) {
	v, ok := Normalize(h.Points)
	if !ok {
		return Hand{}, false
	}
	return Hand{WristX: h.WristX(), Features: v}, true
}

// Assemble builds the frame vector for the hands reported in one frame.
// Invalid hands are dropped, the rest are sorted by wrist x and the first
// MaxHands fill the slots in order.
func Assemble(hands []detector.HandLandmarks) Frame {
	var frame Frame

	accepted := make([]Hand, 0, len(hands))
	for _, h := range hands {
		if hand, ok := NewHand(h); ok {
			accepted = append(accepted, hand)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].WristX != accepted[j].WristX {
			return accepted[i].WristX < accepted[j].WristX
		}
		return lessVector(&accepted[i].Features, &accepted[j].Features)
	})

	for slot := 0; slot < MaxHands && slot < len(accepted); slot++ {
		copy(frame[slot*HandSize:(slot+1)*HandSize], accepted[slot].Features[:])
	}

	return frame
}

// lessVector orders hands that share a wrist x so that input order never
// leaks into slot assignment.
func lessVector(a, b *Vector) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// IsZero reports whether no hand contributed to the frame.
func (f *Frame) IsZero() bool {
	for _, v := range f {
		if v != 0 {
			return false
		}
	}
	return true
}

// Slot returns the feature vector stored in hand slot i (0 or 1).
func (f *Frame) Slot(i int) Vector {
	var v Vector
	copy(v[:], f[i*HandSize:(i+1)*HandSize])
	return v
}
