package store

import (
	"database/sql"
	"errors"
	"time"
)

// DefaultListLimit caps list queries that do not give a limit.
const DefaultListLimit = 100

// Session is a stored camera session.
type Session struct {
	ID              string     `json:"id"`
	Generation      uint64     `json:"generation"`
	WindowPolicy    string     `json:"window_policy"`
	Stride          int        `json:"stride"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	Frames          uint64     `json:"frames"`
	Classifications uint64     `json:"classifications"`
	Skipped         uint64     `json:"skipped"`
	CuesPlayed      uint64     `json:"cues_played"`
	LastGesture     string     `json:"last_gesture,omitempty"`
}

// SessionRepository provides access to sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	if sess.WindowPolicy == "" {
		sess.WindowPolicy = "sliding"
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, generation, window_policy, stride, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Generation, sess.WindowPolicy, sess.Stride, sess.StartedAt,
	)
	return err
}

// End stores the final counters of a session and marks it ended.
func (r *SessionRepository) End(sess *Session) error {
	if sess.EndedAt == nil {
		now := time.Now()
		sess.EndedAt = &now
	}

	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?, classifications = ?, skipped = ?,
		 cues_played = ?, last_gesture = ? WHERE id = ?`,
		*sess.EndedAt, sess.Frames, sess.Classifications, sess.Skipped,
		sess.CuesPlayed, sess.LastGesture, sess.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

const sessionColumns = `id, generation, window_policy, stride, started_at, ended_at,
	frames, classifications, skipped, cues_played, last_gesture`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime
	err := row.Scan(&sess.ID, &sess.Generation, &sess.WindowPolicy, &sess.Stride, &sess.StartedAt, &ended,
		&sess.Frames, &sess.Classifications, &sess.Skipped, &sess.CuesPlayed, &sess.LastGesture)
	if err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns the most recent sessions first. limit <= 0 selects DefaultListLimit.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CloseDangling marks sessions left open by an unclean shutdown as ended.
func (r *SessionRepository) CloseDangling() (int64, error) {
	result, err := r.db.Exec(`UPDATE sessions SET ended_at = started_at WHERE ended_at IS NULL`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
