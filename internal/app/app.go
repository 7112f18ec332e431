// Package app ties the camera, the hand detector, the recognizer and the
// presentation sinks into recognition sessions.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dukecorse1972/LSE-traductorv1/internal/capture"
	"github.com/dukecorse1972/LSE-traductorv1/internal/classifier"
	"github.com/dukecorse1972/LSE-traductorv1/internal/detector"
	"github.com/dukecorse1972/LSE-traductorv1/internal/gesture"
	"github.com/dukecorse1972/LSE-traductorv1/internal/presenter"
	"github.com/dukecorse1972/LSE-traductorv1/internal/recognizer"
	"github.com/dukecorse1972/LSE-traductorv1/internal/server/api"
	"github.com/dukecorse1972/LSE-traductorv1/internal/store"
)

// Config holds the components an App runs. Camera, Detector, Gestures and
// Sink are required.
type Config struct {
	Recognition recognizer.Config
	Gestures    *gesture.Table
	Camera      capture.Camera
	Detector    detector.Detector
	Classifier  classifier.Classifier
	Sink        presenter.Sink
	// Store records sessions when set.
	Store *store.Store
	// Preview receives camera frames while someone watches the stream.
	Preview *capture.Preview
	// OnStatus is called after a session starts or stops.
	OnStatus func(api.Status)

	// Load errors reported by GET /api/status.
	DetectorErr   error
	ClassifierErr error
	AudioErr      error

	Log *zap.Logger
}

// run is one active session: its recognizer state and the goroutines feeding
// it.
type run struct {
	session *recognizer.Session
	record  *store.Session
	frames  *capture.Latest
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// App is the main application. It owns at most one session at a time.
type App struct {
	config     Config
	log        *zap.Logger
	dispatcher *presenter.Dispatcher
	generation atomic.Uint64

	mu  sync.Mutex
	run *run

	errMu       sync.RWMutex
	cameraErr   error
	detectorErr error
}

// New creates an App.
func New(config Config) (*App, error) {
	switch {
	case config.Camera == nil:
		return nil, errors.New("app: camera is required")
	case config.Detector == nil:
		return nil, errors.New("app: detector is required")
	case config.Sink == nil:
		return nil, errors.New("app: sink is required")
	case config.Gestures == nil || config.Gestures.Len() == 0:
		return nil, gesture.ErrEmptyTable
	}
	if err := config.Recognition.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if config.Classifier == nil {
		config.Classifier = classifier.Unavailable()
		if config.ClassifierErr == nil {
			config.ClassifierErr = classifier.ErrUnavailable
		}
	}
	if config.Log == nil {
		config.Log = zap.NewNop()
	}

	a := &App{
		config:      config,
		log:         config.Log.Named("app"),
		detectorErr: config.DetectorErr,
	}
	a.dispatcher = presenter.NewDispatcher(config.Sink, a.generation.Load, presenter.DefaultCueBuffer, config.Log)
	return a, nil
}

// Run delivers presentation messages until ctx is done, then stops any
// active session.
func (a *App) Run(ctx context.Context) {
	a.dispatcher.Run(ctx)

	if _, err := a.StopSession(context.Background()); err != nil && !errors.Is(err, api.ErrNoSession) {
		a.log.Warn("failed to stop session on shutdown", zap.Error(err))
	}
}

// Generation returns the token of the live session. It changes whenever a
// session starts or stops.
func (a *App) Generation() uint64 {
	return a.generation.Load()
}

// Preview returns the live camera preview, or nil.
func (a *App) Preview() *capture.Preview {
	return a.config.Preview
}

// StartSession opens the camera and starts recognizing. The session outlives
// ctx; it runs until StopSession.
func (a *App) StartSession(ctx context.Context) (recognizer.Stats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.run != nil {
		return recognizer.Stats{}, api.ErrSessionActive
	}
	if err := ctx.Err(); err != nil {
		return recognizer.Stats{}, err
	}

	if err := a.config.Camera.Open(); err != nil {
		a.setCameraErr(err)
		return recognizer.Stats{}, fmt.Errorf("failed to open camera: %w", err)
	}
	a.setCameraErr(nil)

	gen := a.generation.Add(1)
	sess, err := recognizer.NewSession(a.config.Recognition, a.config.Gestures, a.config.Classifier, gen, a.config.Log)
	if err != nil {
		a.config.Camera.Close()
		return recognizer.Stats{}, err
	}

	r := &run{session: sess, frames: capture.NewLatest()}
	if a.config.Store != nil {
		r.record = &store.Session{
			ID:           sess.ID(),
			Generation:   gen,
			WindowPolicy: string(a.config.Recognition.Policy),
			Stride:       a.config.Recognition.Stride,
			StartedAt:    sess.Stats().StartedAt,
		}
		if err := a.config.Store.Sessions().Create(r.record); err != nil {
			a.log.Warn("failed to record session", zap.String("session", sess.ID()), zap.Error(err))
			r.record = nil
		}
	}

	a.dispatcher.Show(presenter.WaitingUpdate(sess.ID(), gen))

	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		capture.Pump(runCtx, a.config.Camera, r.frames, a.log)
	}()
	go func() {
		defer r.wg.Done()
		a.runPipeline(runCtx, r)
	}()
	a.run = r

	a.log.Info("session started",
		zap.String("session", sess.ID()),
		zap.Uint64("generation", gen),
		zap.String("policy", string(a.config.Recognition.Policy)),
		zap.Int("stride", a.config.Recognition.Stride))
	a.notify()
	return sess.Stats(), nil
}

// StopSession ends the active session and returns its final counters.
// Results still in flight are discarded.
func (a *App) StopSession(_ context.Context) (recognizer.Stats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := a.run
	if r == nil {
		return recognizer.Stats{}, api.ErrNoSession
	}
	a.run = nil

	gen := a.generation.Add(1)
	r.cancel()
	r.frames.Close()
	r.wg.Wait()

	if err := a.config.Camera.Close(); err != nil {
		a.log.Warn("failed to close camera", zap.Error(err))
	}

	stats := r.session.Stats()
	if r.record != nil {
		r.record.Frames = stats.Frames
		r.record.Classifications = stats.Classifications
		r.record.Skipped = stats.Skipped
		r.record.CuesPlayed = stats.CuesPlayed
		r.record.LastGesture = stats.LastGesture
		if err := a.config.Store.Sessions().End(r.record); err != nil {
			a.log.Warn("failed to record session end", zap.String("session", stats.SessionID), zap.Error(err))
		}
	}

	a.dispatcher.Show(presenter.WaitingUpdate("", gen))

	a.log.Info("session stopped",
		zap.String("session", stats.SessionID),
		zap.Uint64("frames", stats.Frames),
		zap.Uint64("classifications", stats.Classifications),
		zap.Uint64("skipped", stats.Skipped),
		zap.Uint64("cues", stats.CuesPlayed))
	a.notify()
	return stats, nil
}

// SessionStats returns the counters of the active session.
func (a *App) SessionStats() (recognizer.Stats, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.run == nil {
		return recognizer.Stats{}, false
	}
	return a.run.session.Stats(), true
}

// Status reports the readiness of each component.
func (a *App) Status() api.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statusLocked()
}

func (a *App) statusLocked() api.Status {
	a.errMu.RLock()
	cameraErr, detectorErr := a.cameraErr, a.detectorErr
	a.errMu.RUnlock()

	st := api.Status{
		Camera:        component(a.config.Camera.IsOpen(), cameraErr),
		Detector:      component(detectorErr == nil, detectorErr),
		Classifier:    component(a.config.ClassifierErr == nil, a.config.ClassifierErr),
		Audio:         component(a.config.AudioErr == nil, a.config.AudioErr),
		SessionActive: a.run != nil,
		Generation:    a.generation.Load(),
	}
	if a.run != nil {
		stats := a.run.session.Stats()
		st.Session = &stats
		st.DroppedFrames = a.run.frames.Dropped()
	}
	return st
}

func (a *App) notify() {
	if a.config.OnStatus != nil {
		a.config.OnStatus(a.statusLocked())
	}
}

func (a *App) setCameraErr(err error) {
	a.errMu.Lock()
	a.cameraErr = err
	a.errMu.Unlock()
}

func (a *App) setDetectorErr(err error) {
	a.errMu.Lock()
	a.detectorErr = err
	a.errMu.Unlock()
}

func component(ready bool, err error) api.Component {
	c := api.Component{Ready: ready}
	if err != nil {
		c.Ready = false
		c.Error = err.Error()
	}
	return c
}
