package memory

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Thought is one step of a reasoning chain. Thoughts are append-only
// and numbered per session; a revision points at the number it
// replaces instead of overwriting it.
type Thought struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Number    int       `json:"number"`
	Content   string    `json:"content"`
	Revises   int       `json:"revises,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AddThought appends to the session's chain. Number is assigned
// server-side so concurrent writers cannot collide.
func (s *Store) AddThought(sessionID, content string, revises int) (*Thought, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRow("SELECT COALESCE(MAX(number), 0) + 1 FROM thoughts WHERE session_id = ?", sessionID).Scan(&next)
	if err != nil {
		return nil, err
	}

	t := &Thought{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Number:    next,
		Content:   content,
		Revises:   revises,
		CreatedAt: time.Now().UTC(),
	}

	var revisesVal any
	if revises > 0 {
		revisesVal = revises
	}

	_, err = tx.Exec(
		"INSERT INTO thoughts (id, session_id, number, content, revises, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		t.ID, t.SessionID, t.Number, t.Content, revisesVal, t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return t, tx.Commit()
}

// Thoughts returns the session's chain in order.
func (s *Store) Thoughts(sessionID string) ([]*Thought, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT id, session_id, number, content, revises, created_at FROM thoughts WHERE session_id = ? ORDER BY number ASC",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Thought
	for rows.Next() {
		t := &Thought{}
		var revises sql.NullInt64
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Number, &t.Content, &revises, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Revises = int(revises.Int64)
		out = append(out, t)
	}
	return out, rows.Err()
}
