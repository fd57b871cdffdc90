// Package history keeps a local record of past exchanges so sessions can be
// found and resumed later without asking the backend.
package history

import (
	"database/sql"
	"fmt"
	"time"
)

// Store persists exchanges in a local SQLite database.
type Store struct {
	db *sql.DB
}

// SessionSummary is one row of the local session list.
type SessionSummary struct {
	SessionID    string
	FirstMessage string
	LastSeen     time.Time
	MessageCount int
}

// NewStore opens (and if needed creates) the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initTable(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	return nil
}

// Record appends one resolved exchange line. Exchanges without a session id
// are not worth recording since they cannot be resumed.
func (s *Store) Record(sessionID, role, content string) error {
	if sessionID == "" || content == "" {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO messages (session_id, role, content) VALUES (?, ?, ?)`,
		sessionID, role, content,
	)
	if err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}

// Sessions lists the most recently active sessions, newest first. The first
// user message of each session serves as its display title.
func (s *Store) Sessions(limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT m.session_id,
		       COALESCE((SELECT content FROM messages
		                 WHERE session_id = m.session_id AND role = 'user'
		                 ORDER BY id LIMIT 1), ''),
		       MAX(m.created_at),
		       COUNT(*)
		FROM messages m
		GROUP BY m.session_id
		ORDER BY MAX(m.id) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.SessionID, &sum.FirstMessage, &sum.LastSeen, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Recorder mirrors resolved transcript lines into the store. The first
// exchange of a conversation resolves before the backend has issued a
// session id, so unidentified lines are held back and flushed under the id
// of the first identified line that follows them.
type Recorder struct {
	store   *Store
	backlog [][2]string
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// Observe records one resolved line. Lines observed with an empty session id
// are buffered until an id is known.
func (r *Recorder) Observe(sessionID, role, content string) error {
	if content == "" {
		return nil
	}
	if sessionID == "" {
		r.backlog = append(r.backlog, [2]string{role, content})
		return nil
	}
	for _, line := range r.backlog {
		if err := r.store.Record(sessionID, line[0], line[1]); err != nil {
			return err
		}
	}
	r.backlog = nil
	return r.store.Record(sessionID, role, content)
}

// Reset drops buffered lines when a conversation starts over before any
// session id arrived.
func (r *Recorder) Reset() {
	r.backlog = nil
}

// Messages returns one session's locally recorded lines in order.
func (s *Store) Messages(sessionID string) ([][2]string, error) {
	rows, err := s.db.Query(
		`SELECT role, content FROM messages WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load session messages: %w", err)
	}
	defer rows.Close()

	var out [][2]string
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		out = append(out, [2]string{role, content})
	}
	return out, rows.Err()
}
