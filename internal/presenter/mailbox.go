package presenter

import "sync"

// Mailbox holds at most one pending Update. Posting replaces any update that
// has not been taken yet, so the reader always sees the newest state and the
// writer never blocks.
type Mailbox struct {
	mu      sync.Mutex
	pending Update
	full    bool
	notify  chan struct{}
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Post stores u, replacing any pending update.
func (m *Mailbox) Post(u Update) {
	m.mu.Lock()
	m.pending = u
	m.full = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Take removes and returns the pending update.
func (m *Mailbox) Take() (Update, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.full {
		return Update{}, false
	}
	u := m.pending
	m.pending = Update{}
	m.full = false
	return u, true
}

// Ready is signalled after a Post. A signal may be stale; always Take.
func (m *Mailbox) Ready() <-chan struct{} {
	return m.notify
}
