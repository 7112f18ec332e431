// Package presenter carries recognition results from the pipeline worker to
// the user-facing sinks: the browser, the tray, the audio player and the
// history store.
package presenter

import (
	"time"

	"github.com/dukecorse1972/LSE-traductorv1/internal/gesture"
	"github.com/dukecorse1972/LSE-traductorv1/internal/recognizer"
)

// Update is a display update. Label and Confidence are nil while waiting for
// the first classification of a session.
type Update struct {
	SessionID  string    `json:"session_id,omitempty"`
	Generation uint64    `json:"generation"`
	Label      *string   `json:"label"`
	Confidence *float64  `json:"confidence"`
	Time       time.Time `json:"time"`
}

// Waiting reports whether u is the waiting state.
func (u Update) Waiting() bool {
	return u.Label == nil
}

// Cue is a request to play the audio cue of a gesture.
type Cue struct {
	SessionID  string
	Generation uint64
	Gesture    gesture.Gesture
	Confidence float64
	Time       time.Time
}

// Sink receives presentation messages. Implementations are called from the
// presentation goroutine and must not block for long.
type Sink interface {
	Show(Update)
	PlayCue(Cue)
}

// WaitingUpdate is the update shown when a session starts.
func WaitingUpdate(sessionID string, generation uint64) Update {
	return Update{SessionID: sessionID, Generation: generation, Time: time.Now()}
}

// FromEvent converts a classification into its display update and, when the
// debounce policy fired, its cue.
func FromEvent(ev *recognizer.Event) (Update, *Cue) {
	label := ev.Gesture.Name
	confidence := ev.Confidence
	now := time.Now()

	u := Update{
		SessionID:  ev.SessionID,
		Generation: ev.Generation,
		Label:      &label,
		Confidence: &confidence,
		Time:       now,
	}
	if !ev.PlayCue {
		return u, nil
	}
	return u, &Cue{
		SessionID:  ev.SessionID,
		Generation: ev.Generation,
		Gesture:    ev.Gesture,
		Confidence: ev.Confidence,
		Time:       now,
	}
}

// Multi fans messages out to every sink in order.
type Multi []Sink

func (m Multi) Show(u Update) {
	for _, s := range m {
		s.Show(u)
	}
}

func (m Multi) PlayCue(c Cue) {
	for _, s := range m {
		s.PlayCue(c)
	}
}

// Funcs adapts a pair of functions to Sink. Nil functions are skipped.
type Funcs struct {
	OnShow func(Update)
	OnCue  func(Cue)
}

func (f Funcs) Show(u Update) {
	if f.OnShow != nil {
		f.OnShow(u)
	}
}

func (f Funcs) PlayCue(c Cue) {
	if f.OnCue != nil {
		f.OnCue(c)
	}
}
