package presenter

import (
	"context"

	"go.uber.org/zap"

	"github.com/dukecorse1972/LSE-traductorv1/internal/recognizer"
)

// DefaultCueBuffer is the number of cues that may wait for the presentation
// goroutine before new ones are dropped.
const DefaultCueBuffer = 4

// Dispatcher moves results from the pipeline worker to a Sink on its own
// goroutine. Messages whose generation no longer matches the live session are
// discarded.
type Dispatcher struct {
	sink    Sink
	live    func() uint64
	updates *Mailbox
	cues    chan Cue
	log     *zap.Logger
}

// NewDispatcher creates a Dispatcher. live returns the generation of the
// current session.
func NewDispatcher(sink Sink, live func() uint64, cueBuffer int, log *zap.Logger) *Dispatcher {
	if cueBuffer < 1 {
		cueBuffer = DefaultCueBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		sink:    sink,
		live:    live,
		updates: NewMailbox(),
		cues:    make(chan Cue, cueBuffer),
		log:     log.Named("presenter"),
	}
}

// Publish queues the presentation of ev. It never blocks.
func (d *Dispatcher) Publish(ev *recognizer.Event) {
	u, cue := FromEvent(ev)
	d.updates.Post(u)
	if cue != nil {
		d.postCue(*cue)
	}
}

// Show queues a display update. It never blocks.
func (d *Dispatcher) Show(u Update) {
	d.updates.Post(u)
}

func (d *Dispatcher) postCue(c Cue) {
	select {
	case d.cues <- c:
	default:
		d.log.Warn("cue queue full, dropping cue", zap.String("gesture", c.Gesture.Name))
	}
}

// Run delivers messages until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.updates.Ready():
			if u, ok := d.updates.Take(); ok {
				d.deliverUpdate(u)
			}
		case c := <-d.cues:
			// Show the label before its cue plays.
			if u, ok := d.updates.Take(); ok {
				d.deliverUpdate(u)
			}
			d.deliverCue(c)
		}
	}
}

func (d *Dispatcher) deliverUpdate(u Update) {
	if live := d.live(); u.Generation != live {
		d.log.Debug("dropping stale update", zap.Uint64("generation", u.Generation), zap.Uint64("live", live))
		return
	}
	d.sink.Show(u)
}

func (d *Dispatcher) deliverCue(c Cue) {
	if live := d.live(); c.Generation != live {
		d.log.Debug("dropping stale cue", zap.Uint64("generation", c.Generation), zap.Uint64("live", live))
		return
	}
	d.sink.PlayCue(c)
}
