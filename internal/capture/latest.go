package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned by Latest.Take after Close.
var ErrClosed = errors.New("frame mailbox closed")

// Latest is a single-slot frame mailbox. A Put replaces and releases any frame
// the consumer has not taken yet, so the producer never waits on a slow
// consumer and the consumer always gets the newest frame.
type Latest struct {
	mu      sync.Mutex
	frame   *Frame
	closed  bool
	dropped uint64
	notify  chan struct{}
}

// NewLatest creates an empty mailbox.
func NewLatest() *Latest {
	return &Latest{notify: make(chan struct{}, 1)}
}

// Put stores f. After Close the frame is released immediately.
func (l *Latest) Put(f *Frame) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		f.Close()
		return
	}
	if l.frame != nil {
		l.frame.Close()
		l.dropped++
	}
	l.frame = f
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Take waits for a frame. The caller owns the returned frame.
func (l *Latest) Take(ctx context.Context) (*Frame, error) {
	for {
		l.mu.Lock()
		if l.frame != nil {
			f := l.frame
			l.frame = nil
			l.mu.Unlock()
			return f, nil
		}
		if l.closed {
			l.mu.Unlock()
			return nil, ErrClosed
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-l.notify:
		}
	}
}

// Dropped returns the number of frames replaced before they were taken.
func (l *Latest) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close releases any pending frame and wakes a waiting Take.
func (l *Latest) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		if l.frame != nil {
			l.frame.Close()
			l.frame = nil
		}
	}
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Pump reads frames from cam at its frame rate into dst until ctx is done.
// Read errors are logged and retried; the camera must already be open.
func Pump(ctx context.Context, cam Camera, dst *Latest, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	fps := cam.FPS()
	if fps <= 0 {
		fps = DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var seq, failures uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		mat, err := cam.ReadFrame()
		if err != nil {
			failures++
			if failures == 1 || failures%100 == 0 {
				log.Warn("camera read failed", zap.Error(err), zap.Uint64("failures", failures))
			}
			continue
		}
		failures = 0
		seq++
		dst.Put(&Frame{Mat: mat, Time: time.Now(), Seq: seq})
	}
}
