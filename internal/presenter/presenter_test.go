package presenter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukecorse1972/LSE-traductorv1/internal/gesture"
	"github.com/dukecorse1972/LSE-traductorv1/internal/plugin"
	"github.com/dukecorse1972/LSE-traductorv1/internal/recognizer"
)

// recorder is a Sink that records everything it receives.
type recorder struct {
	mu      sync.Mutex
	updates []Update
	cues    []Cue
}

func (r *recorder) Show(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) PlayCue(c Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, c)
}

func (r *recorder) snapshot() ([]Update, []Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...), append([]Cue(nil), r.cues...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func event(generation uint64, index int, confidence float64, cue bool) *recognizer.Event {
	g, _ := gesture.Default().At(index)
	return &recognizer.Event{
		SessionID:  "s1",
		Generation: generation,
		Gesture:    g,
		Confidence: confidence,
		PlayCue:    cue,
	}
}

func TestFromEvent(t *testing.T) {
	u, cue := FromEvent(event(3, 3, 0.7, false))
	if u.Waiting() || *u.Label != "Igualdad" || *u.Confidence != 0.7 || u.Generation != 3 {
		t.Errorf("unexpected update: %+v", u)
	}
	if cue != nil {
		t.Error("expected no cue when the debounce policy did not fire")
	}

	_, cue = FromEvent(event(3, 0, 0.9, true))
	if cue == nil || cue.Gesture.Name != "Hola" || cue.Gesture.Cue == "" {
		t.Errorf("unexpected cue: %+v", cue)
	}
}

func TestWaitingUpdate(t *testing.T) {
	u := WaitingUpdate("s1", 2)
	if !u.Waiting() || u.Confidence != nil {
		t.Errorf("expected waiting update, got %+v", u)
	}
}

func TestMailbox_LatestWins(t *testing.T) {
	m := NewMailbox()
	if _, ok := m.Take(); ok {
		t.Fatal("new mailbox should be empty")
	}

	for i := uint64(1); i <= 3; i++ {
		m.Post(Update{Generation: i})
	}

	select {
	case <-m.Ready():
	default:
		t.Fatal("expected ready signal after Post")
	}

	u, ok := m.Take()
	if !ok || u.Generation != 3 {
		t.Errorf("expected latest update (3), got %+v ok=%v", u, ok)
	}
	if _, ok := m.Take(); ok {
		t.Error("mailbox should be empty after Take")
	}
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, b}

	m.Show(Update{Generation: 1})
	m.PlayCue(Cue{Generation: 1})

	for i, r := range []*recorder{a, b} {
		u, c := r.snapshot()
		if len(u) != 1 || len(c) != 1 {
			t.Errorf("sink %d: expected one update and one cue, got %d/%d", i, len(u), len(c))
		}
	}
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	rec := &recorder{}
	var live atomic.Uint64
	live.Store(1)

	d := NewDispatcher(rec, live.Load, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Publish(event(1, 0, 0.9, true))
	waitFor(t, func() bool {
		_, cues := rec.snapshot()
		return len(cues) == 1
	})

	updates, cues := rec.snapshot()
	if len(updates) != 1 || *updates[0].Label != "Hola" {
		t.Errorf("expected Hola update before its cue, got %+v", updates)
	}
	if cues[0].Gesture.Name != "Hola" {
		t.Errorf("unexpected cue: %+v", cues[0])
	}
}

func TestDispatcher_DropsStaleGenerations(t *testing.T) {
	rec := &recorder{}
	var live atomic.Uint64
	live.Store(2)

	d := NewDispatcher(rec, live.Load, 0, nil)

	// Queue before the loop runs: a stale cue and then a current update.
	d.Publish(event(1, 1, 0.95, true))
	d.Show(Update{Generation: 2})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	waitFor(t, func() bool {
		u, _ := rec.snapshot()
		return len(u) == 1
	})
	time.Sleep(20 * time.Millisecond)

	updates, cues := rec.snapshot()
	if len(cues) != 0 {
		t.Errorf("stale cue was delivered: %+v", cues)
	}
	if len(updates) != 1 || updates[0].Generation != 2 {
		t.Errorf("expected only the live update, got %+v", updates)
	}
}

func TestDispatcher_CueQueueNeverBlocks(t *testing.T) {
	d := NewDispatcher(&recorder{}, func() uint64 { return 1 }, 1, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Publish(event(1, i%4, 0.9, true))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a running dispatcher")
	}
}

// fakePlugins serves a single plugin and records requests.
type fakePlugins struct {
	mu       sync.Mutex
	requests []plugin.Request
	fail     bool
	delay    time.Duration
}

func (f *fakePlugins) Get(name string) (*plugin.Plugin, error) {
	if name != "audio-cue" {
		return nil, plugin.ErrPluginNotFound
	}
	return &plugin.Plugin{Manifest: plugin.Manifest{Name: name}}, nil
}

func (f *fakePlugins) Execute(ctx context.Context, _ *plugin.Plugin, req *plugin.Request) (*plugin.Response, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	f.mu.Unlock()
	if f.fail {
		return &plugin.Response{Success: false, Error: "no audio device"}, nil
	}
	return &plugin.Response{Success: true}, nil
}

func (f *fakePlugins) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestAudioSink_Play(t *testing.T) {
	fake := &fakePlugins{}
	a := NewAudioSink(fake, fake, "audio-cue", "/srv/lse", nil)

	hola, _ := gesture.Default().ByName("Hola")
	if err := a.Play(context.Background(), Cue{Gesture: hola, Confidence: 0.9}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	silent := gesture.Gesture{Index: 4, Name: "Gracias"}
	if err := a.Play(context.Background(), Cue{Gesture: silent, Confidence: 0.85}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	if len(fake.requests) != 2 {
		t.Fatalf("expected 2 plugin requests, got %d", len(fake.requests))
	}
	play := fake.requests[0]
	if play.Action != plugin.ActionPlay || play.Params.Cue != "/srv/lse/sounds/hola.wav" {
		t.Errorf("unexpected play request: %+v", play)
	}
	speak := fake.requests[1]
	if speak.Action != plugin.ActionSpeak || speak.Params.Text != "Gracias" {
		t.Errorf("unexpected speak request: %+v", speak)
	}
}

func TestAudioSink_PlayErrors(t *testing.T) {
	hola, _ := gesture.Default().ByName("Hola")

	missing := NewAudioSink(&fakePlugins{}, &fakePlugins{}, "nope", "", nil)
	if err := missing.Play(context.Background(), Cue{Gesture: hola}); !errors.Is(err, plugin.ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}

	fake := &fakePlugins{fail: true}
	failing := NewAudioSink(fake, fake, "audio-cue", "", nil)
	if err := failing.Play(context.Background(), Cue{Gesture: hola}); err == nil {
		t.Error("expected error when the plugin reports failure")
	}
}

func TestAudioSink_QueueAndClose(t *testing.T) {
	fake := &fakePlugins{}
	a := NewAudioSink(fake, fake, "audio-cue", "", nil)
	a.Start(context.Background())

	hola, _ := gesture.Default().ByName("Hola")
	a.PlayCue(Cue{Gesture: hola})
	waitFor(t, func() bool { return fake.count() == 1 })

	a.Close()
	a.Close()
	if err := a.TryPlay(Cue{Gesture: hola}); !errors.Is(err, ErrAudioClosed) {
		t.Errorf("expected ErrAudioClosed, got %v", err)
	}
}

func TestAudioSink_Busy(t *testing.T) {
	a := NewAudioSink(&fakePlugins{}, &fakePlugins{}, "audio-cue", "", nil)

	// Without a running loop the queue fills up.
	var err error
	for i := 0; i <= DefaultCueBuffer; i++ {
		err = a.TryPlay(Cue{})
	}
	if !errors.Is(err, ErrAudioBusy) {
		t.Errorf("expected ErrAudioBusy, got %v", err)
	}
}
