package capture

import (
	"context"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Preview keeps the newest frame as JPEG for live viewers. Frames are only
// encoded while at least one viewer is watching.
type Preview struct {
	viewers atomic.Int32

	mu     sync.Mutex
	jpeg   []byte
	seq    uint64
	notify chan struct{}
}

// NewPreview creates an empty preview.
func NewPreview() *Preview {
	return &Preview{notify: make(chan struct{})}
}

// Watch registers a viewer. The returned function unregisters it.
func (p *Preview) Watch() func() {
	p.viewers.Add(1)
	var once sync.Once
	return func() { once.Do(func() { p.viewers.Add(-1) }) }
}

// Viewers returns the number of registered viewers.
func (p *Preview) Viewers() int {
	return int(p.viewers.Load())
}

// Publish encodes mat when someone is watching.
func (p *Preview) Publish(mat *gocv.Mat) error {
	if p.viewers.Load() == 0 || mat == nil || mat.Empty() {
		return nil
	}
	buf, err := gocv.IMEncode(".jpg", *mat)
	if err != nil {
		return err
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	p.PublishJPEG(data)
	return nil
}

// PublishJPEG stores an already encoded image.
func (p *Preview) PublishJPEG(data []byte) {
	p.mu.Lock()
	p.jpeg = data
	p.seq++
	close(p.notify)
	p.notify = make(chan struct{})
	p.mu.Unlock()
}

// Next waits for an image newer than after and returns it with its sequence.
func (p *Preview) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		p.mu.Lock()
		if p.seq > after && p.jpeg != nil {
			data, seq := p.jpeg, p.seq
			p.mu.Unlock()
			return data, seq, nil
		}
		wait := p.notify
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-wait:
		}
	}
}
