package store

import (
	"go.uber.org/zap"

	"github.com/dukecorse1972/LSE-traductorv1/internal/presenter"
)

// Recorder is a presenter.Sink that writes every played cue to the history.
type Recorder struct {
	recs *RecognitionRepository
	log  *zap.Logger
}

// NewRecorder creates a Recorder over s.
func NewRecorder(s *Store, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{recs: s.Recognitions(), log: log.Named("recorder")}
}

// Show implements presenter.Sink. Display updates are not stored.
func (r *Recorder) Show(presenter.Update) {}

// PlayCue implements presenter.Sink.
func (r *Recorder) PlayCue(c presenter.Cue) {
	rec := &Recognition{
		SessionID:    c.SessionID,
		GestureIndex: c.Gesture.Index,
		Gesture:      c.Gesture.Name,
		Confidence:   c.Confidence,
		CreatedAt:    c.Time,
	}
	if err := r.recs.Create(rec); err != nil {
		r.log.Warn("failed to record recognition",
			zap.String("session", c.SessionID),
			zap.String("gesture", c.Gesture.Name),
			zap.Error(err))
	}
}
