package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Recognition is one recognition that triggered an audio cue.
type Recognition struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	GestureIndex int       `json:"gesture_index"`
	Gesture      string    `json:"gesture"`
	Confidence   float64   `json:"confidence"`
	CreatedAt    time.Time `json:"created_at"`
}

// GestureCount is the number of recognitions of one gesture.
type GestureCount struct {
	Gesture string `json:"gesture"`
	Count   int    `json:"count"`
}

// RecognitionRepository provides access to the recognition history.
type RecognitionRepository struct {
	db *sql.DB
}

// Recognitions returns the recognition repository for this store.
func (s *Store) Recognitions() *RecognitionRepository {
	return &RecognitionRepository{db: s.db}
}

// Create inserts a recognition, assigning an ID and time when missing.
func (r *RecognitionRepository) Create(rec *Recognition) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO recognitions (id, session_id, gesture_index, gesture, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.GestureIndex, rec.Gesture, rec.Confidence, rec.CreatedAt,
	)
	return err
}

// List returns the newest recognitions first. A non-empty sessionID limits
// the result to that session. limit <= 0 selects DefaultListLimit.
func (r *RecognitionRepository) List(sessionID string, limit int) ([]*Recognition, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if sessionID == "" {
		rows, err = r.db.Query(
			`SELECT id, session_id, gesture_index, gesture, confidence, created_at
			 FROM recognitions ORDER BY created_at DESC LIMIT ?`, limit,
		)
	} else {
		rows, err = r.db.Query(
			`SELECT id, session_id, gesture_index, gesture, confidence, created_at
			 FROM recognitions WHERE session_id = ? ORDER BY created_at DESC LIMIT ?`, sessionID, limit,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recognition
	for rows.Next() {
		rec := &Recognition{}
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.GestureIndex, &rec.Gesture, &rec.Confidence, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// CountByGesture returns how often each gesture was recognized, most
// frequent first.
func (r *RecognitionRepository) CountByGesture() ([]GestureCount, error) {
	rows, err := r.db.Query(
		`SELECT gesture, COUNT(*) AS n FROM recognitions GROUP BY gesture ORDER BY n DESC, gesture ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []GestureCount
	for rows.Next() {
		var c GestureCount
		if err := rows.Scan(&c.Gesture, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
