package recognizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dukecorse1972/LSE-traductorv1/internal/classifier"
	"github.com/dukecorse1972/LSE-traductorv1/internal/detector"
	"github.com/dukecorse1972/LSE-traductorv1/internal/feature"
	"github.com/dukecorse1972/LSE-traductorv1/internal/gesture"
	"github.com/dukecorse1972/LSE-traductorv1/internal/window"
)

// Config holds the recognition tuning knobs.
type Config struct {
	SequenceLength        int
	Stride                int
	Policy                WindowPolicy
	MinConfidenceForSound float64
}

// DefaultConfig returns the overlapping-window configuration.
func DefaultConfig() Config {
	return Config{
		SequenceLength:        window.DefaultCapacity,
		Stride:                1,
		Policy:                PolicySliding,
		MinConfidenceForSound: DefaultMinConfidenceForSound,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SequenceLength < 1 {
		return fmt.Errorf("sequence length must be at least 1, got %d", c.SequenceLength)
	}
	if c.Stride < 1 {
		return fmt.Errorf("stride must be at least 1, got %d", c.Stride)
	}
	if _, err := ParseWindowPolicy(string(c.Policy)); err != nil {
		return err
	}
	if c.MinConfidenceForSound < 0 || c.MinConfidenceForSound > 1 {
		return fmt.Errorf("min confidence for sound must be within [0,1], got %f", c.MinConfidenceForSound)
	}
	return nil
}

// Observation is the detector output for one camera frame.
type Observation struct {
	Hands []detector.HandLandmarks
	Time  time.Time
}

// Event is a completed classification ready for presentation.
type Event struct {
	SessionID     string
	Generation    uint64
	Frame         uint64
	Gesture       gesture.Gesture
	Confidence    float64
	Probabilities classifier.Probabilities
	PlayCue       bool
	FrameTime     time.Time
	Latency       time.Duration
}

// Stats summarizes a session.
type Stats struct {
	SessionID       string    `json:"session_id"`
	Generation      uint64    `json:"generation"`
	StartedAt       time.Time `json:"started_at"`
	Frames          uint64    `json:"frames"`
	Classifications uint64    `json:"classifications"`
	Skipped         uint64    `json:"skipped"`
	CuesPlayed      uint64    `json:"cues_played"`
	LastGesture     string    `json:"last_gesture,omitempty"`
	LastConfidence  float64   `json:"last_confidence,omitempty"`
}

// Session is the recognition state of one camera session: the window, the
// frame counter and the debounce state. Process must be called from a
// single goroutine; Stats may be called from any.
type Session struct {
	id         string
	generation uint64
	scheduler  *Scheduler
	decider    *Decider
	classifier classifier.Classifier
	log        *zap.Logger

	mu    sync.Mutex
	stats Stats
}

// NewSession starts a session. generation is the token the presentation side
// uses to reject results from sessions that have since ended.
func NewSession(cfg Config, table *gesture.Table, c classifier.Classifier, generation uint64, log *zap.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil || table.Len() == 0 {
		return nil, gesture.ErrEmptyTable
	}
	if c == nil {
		c = classifier.Unavailable()
	}
	if log == nil {
		log = zap.NewNop()
	}

	id := uuid.New().String()
	now := time.Now()
	s := &Session{
		id:         id,
		generation: generation,
		scheduler:  NewScheduler(cfg.SequenceLength, cfg.Stride, cfg.Policy),
		decider:    NewDecider(table, cfg.MinConfidenceForSound),
		classifier: c,
		log:        log.With(zap.String("session", id), zap.Uint64("generation", generation)),
	}
	s.stats = Stats{SessionID: id, Generation: generation, StartedAt: now}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Generation returns the session token.
func (s *Session) Generation() uint64 {
	return s.generation
}

// Process runs one frame through the pipeline. It returns an event when a
// classification completed on this frame. Classifier failures are logged
// and reported as no event.
func (s *Session) Process(ctx context.Context, obs Observation) (*Event, bool) {
	frame := feature.Assemble(obs.Hands)

	seq, run := s.scheduler.Observe(frame)
	s.mu.Lock()
	s.stats.Frames = s.scheduler.Frames()
	s.mu.Unlock()
	if !run {
		return nil, false
	}

	probs, err := s.classifier.Predict(ctx, seq)
	if err == nil {
		var dec Decision
		dec, err = s.decider.Decide(probs)
		if err == nil {
			return s.emit(obs, probs, dec), true
		}
	}

	s.mu.Lock()
	s.stats.Skipped++
	s.mu.Unlock()

	if errors.Is(err, classifier.ErrUnavailable) || errors.Is(err, context.Canceled) {
		s.log.Debug("classification skipped", zap.Error(err))
	} else {
		s.log.Warn("classification skipped", zap.Error(err))
	}
	return nil, false
}

func (s *Session) emit(obs Observation, probs classifier.Probabilities, dec Decision) *Event {
	ev := &Event{
		SessionID:     s.id,
		Generation:    s.generation,
		Frame:         s.scheduler.Frames(),
		Gesture:       dec.Gesture,
		Confidence:    dec.Confidence,
		Probabilities: probs,
		PlayCue:       dec.PlayCue,
		FrameTime:     obs.Time,
	}
	if !obs.Time.IsZero() {
		ev.Latency = time.Since(obs.Time)
	}

	s.mu.Lock()
	s.stats.Classifications++
	s.stats.LastGesture = dec.Gesture.Name
	s.stats.LastConfidence = dec.Confidence
	if dec.PlayCue {
		s.stats.CuesPlayed++
	}
	s.mu.Unlock()

	s.log.Debug("classified",
		zap.String("gesture", dec.Gesture.Name),
		zap.Float64("confidence", dec.Confidence),
		zap.Bool("cue", dec.PlayCue),
		zap.Uint64("frame", ev.Frame),
		zap.Duration("latency", ev.Latency))

	return ev
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Reset clears the window, the frame counter and the debounce state while
// keeping the session identity.
func (s *Session) Reset() {
	s.scheduler.Reset()
	s.decider.Reset()

	s.mu.Lock()
	s.stats.Frames = 0
	s.mu.Unlock()
}
