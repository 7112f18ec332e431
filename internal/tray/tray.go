// Package tray provides the system tray item for the sign translator: a
// session toggle and the last recognized gesture.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/dukecorse1972/LSE-traductorv1/internal/presenter"
)

const (
	titleWaiting  = "Esperando gesto..."
	titleInactive = "LSE"
)

// Tray represents the system tray application. It is also a presenter.Sink
// so the title follows the recognitions.
type Tray struct {
	onToggle func(active bool) error
	onOpen   func()
	onQuit   func()
	active   bool
	title    string
	mu       sync.RWMutex

	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
	ready      bool
}

// New creates a Tray with no session running.
func New() *Tray {
	return &Tray{title: titleInactive}
}

// OnToggle sets the callback run when the user starts or stops the session.
// A callback error leaves the menu in its previous state.
func (t *Tray) OnToggle(fn func(active bool) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback run by the "Open Viewer" item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops the tray loop started by Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTooltip("Traductor de Lengua de Signos Española")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.active), "Start or stop recognition")
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem("Último: ninguno", "Last recognized gesture")
	t.menuLast.Disable()
	t.ready = true
	title := t.title
	t.mu.Unlock()

	systray.SetTitle(title)
	systray.AddSeparator()
	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the live view in the browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit the translator")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.RLock()
	want := !t.active
	callback := t.onToggle
	t.mu.RUnlock()

	// Run the callback outside the lock; it calls back into SetActive.
	if callback != nil {
		if err := callback(want); err != nil {
			return
		}
	}
	t.SetActive(want)
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

// SetActive updates the menu to reflect whether a session is running.
func (t *Tray) SetActive(active bool) {
	t.mu.Lock()
	t.active = active
	if !active {
		t.title = titleInactive
	}
	ready := t.ready
	title := t.title
	t.mu.Unlock()

	if ready {
		t.menuToggle.SetTitle(toggleTitle(active))
		systray.SetTitle(title)
	}
}

// IsActive reports whether the tray shows a running session.
func (t *Tray) IsActive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// Title returns the current tray title.
func (t *Tray) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title
}

// Show implements presenter.Sink.
func (t *Tray) Show(u presenter.Update) {
	title := updateTitle(u)

	t.mu.Lock()
	t.title = title
	ready := t.ready
	t.mu.Unlock()

	if ready {
		systray.SetTitle(title)
	}
}

// PlayCue implements presenter.Sink. The menu keeps the gesture whose cue
// played last.
func (t *Tray) PlayCue(c presenter.Cue) {
	t.mu.RLock()
	ready := t.ready
	t.mu.RUnlock()

	if ready {
		t.menuLast.SetTitle("Último: " + c.Gesture.Name)
	}
}

func toggleTitle(active bool) string {
	if active {
		return "● Reconociendo"
	}
	return "○ Detenido"
}

func updateTitle(u presenter.Update) string {
	if u.Waiting() {
		return titleWaiting
	}
	if u.Confidence == nil {
		return *u.Label
	}
	return fmt.Sprintf("%s (%.0f%%)", *u.Label, *u.Confidence*100)
}
