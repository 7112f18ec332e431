package presenter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/dukecorse1972/LSE-traductorv1/internal/plugin"
)

var (
	// ErrAudioBusy is returned by TryPlay when the audio queue is full.
	ErrAudioBusy = errors.New("audio queue full")
	// ErrAudioClosed is returned by TryPlay after Close.
	ErrAudioClosed = errors.New("audio sink closed")
)

// PluginRunner executes a plugin request.
type PluginRunner interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// PluginSource looks plugins up by name.
type PluginSource interface {
	Get(name string) (*plugin.Plugin, error)
}

// AudioSink plays cues through a cue plugin on its own goroutine so a slow
// player never holds up display updates. Gestures without a cue file are
// spoken instead.
type AudioSink struct {
	plugins PluginSource
	runner  PluginRunner
	name    string
	cueDir  string
	queue   chan Cue
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAudioSink creates an AudioSink that runs the plugin called name.
// Relative cue paths are resolved against cueDir.
func NewAudioSink(plugins PluginSource, runner PluginRunner, name, cueDir string, log *zap.Logger) *AudioSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &AudioSink{
		plugins: plugins,
		runner:  runner,
		name:    name,
		cueDir:  cueDir,
		queue:   make(chan Cue, DefaultCueBuffer),
		log:     log.Named("audio"),
	}
}

// Start runs the player loop until ctx is done or Close is called.
func (a *AudioSink) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-a.queue:
				if !ok {
					return
				}
				if err := a.Play(ctx, c); err != nil {
					a.log.Warn("cue playback failed", zap.String("gesture", c.Gesture.Name), zap.Error(err))
				}
			}
		}
	}()
}

// Close stops the player loop and waits for it.
func (a *AudioSink) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	a.wg.Wait()
}

// Show implements Sink. Display updates have no sound.
func (a *AudioSink) Show(Update) {}

// PlayCue implements Sink. Cues arriving while the queue is full are dropped.
func (a *AudioSink) PlayCue(c Cue) {
	if err := a.TryPlay(c); err != nil {
		a.log.Warn("dropping cue", zap.String("gesture", c.Gesture.Name), zap.Error(err))
	}
}

// TryPlay queues c without blocking.
func (a *AudioSink) TryPlay(c Cue) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrAudioClosed
	}
	select {
	case a.queue <- c:
		return nil
	default:
		return ErrAudioBusy
	}
}

// Play runs the plugin for c and waits for it.
func (a *AudioSink) Play(ctx context.Context, c Cue) error {
	p, err := a.plugins.Get(a.name)
	if err != nil {
		return fmt.Errorf("audio plugin %q: %w", a.name, err)
	}

	req := a.request(c)
	resp, err := a.runner.Execute(ctx, p, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("audio plugin %q: %s", a.name, resp.Error)
	}

	a.log.Debug("cue played",
		zap.String("gesture", c.Gesture.Name),
		zap.String("action", req.Action),
		zap.Float64("confidence", c.Confidence))
	return nil
}

func (a *AudioSink) request(c Cue) *plugin.Request {
	req := &plugin.Request{
		Gesture: c.Gesture.Name,
		Params:  plugin.Params{Confidence: c.Confidence},
	}
	if c.Gesture.Cue == "" {
		req.Action = plugin.ActionSpeak
		req.Params.Text = c.Gesture.Name
		return req
	}

	cue := c.Gesture.Cue
	if !filepath.IsAbs(cue) && a.cueDir != "" {
		cue = filepath.Join(a.cueDir, cue)
	}
	req.Action = plugin.ActionPlay
	req.Params.Cue = cue
	return req
}
