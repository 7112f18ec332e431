package recognizer

import (
	"fmt"

	"github.com/dukecorse1972/LSE-traductorv1/internal/classifier"
	"github.com/dukecorse1972/LSE-traductorv1/internal/gesture"
)

// DefaultMinConfidenceForSound is the confidence a recognition needs before
// its audio cue is played.
const DefaultMinConfidenceForSound = 0.8

// Decision is the outcome of one classification.
type Decision struct {
	Gesture    gesture.Gesture
	Confidence float64
	// PlayCue is set at most once per gesture occurrence.
	PlayCue bool
}

// Decider picks the winning gesture and debounces audio cues on gesture
// identity: a cue plays when a confident recognition names a gesture other
// than the one whose cue played last.
type Decider struct {
	table         *gesture.Table
	minConfidence float64
	lastPlayed    int // -1 when no cue has played
}

// NewDecider creates a Decider over table.
func NewDecider(table *gesture.Table, minConfidence float64) *Decider {
	return &Decider{
		table:         table,
		minConfidence: minConfidence,
		lastPlayed:    -1,
	}
}

// Decide turns classifier scores into a Decision. Scores that do not match
// the gesture table are rejected and leave the debounce state untouched.
func (d *Decider) Decide(probs classifier.Probabilities) (Decision, error) {
	if err := probs.Validate(d.table.Len()); err != nil {
		return Decision{}, err
	}

	idx, confidence := probs.ArgMax()
	g, ok := d.table.At(idx)
	if !ok {
		return Decision{}, fmt.Errorf("no gesture for channel %d", idx)
	}

	dec := Decision{Gesture: g, Confidence: confidence}
	if confidence >= d.minConfidence && idx != d.lastPlayed {
		d.lastPlayed = idx
		dec.PlayCue = true
	}
	return dec, nil
}

// LastPlayed returns the gesture whose cue played most recently.
func (d *Decider) LastPlayed() (gesture.Gesture, bool) {
	if d.lastPlayed < 0 {
		return gesture.Gesture{}, false
	}
	return d.table.At(d.lastPlayed)
}

// Reset forgets the last played gesture.
func (d *Decider) Reset() {
	d.lastPlayed = -1
}
