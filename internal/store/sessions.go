package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one conversation window of a user. EndedAt is nil while active.
type Session struct {
	ID        string
	UserID    string
	StartedAt int64
	EndedAt   *int64
}

// Active reports whether the session has not been ended.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

const sessionColumns = `session_id, user_id, started_at, ended_at`

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var s Session
	var ended sql.NullInt64
	if err := row.Scan(&s.ID, &s.UserID, &s.StartedAt, &ended); err != nil {
		return nil, err
	}
	if ended.Valid {
		v := ended.Int64
		s.EndedAt = &v
	}
	return &s, nil
}

// GetSession returns a session by id, or nil if not found.
func (db *DB) GetSession(sessionID string) (*Session, error) {
	return getSession(db, sessionID)
}

// GetSession returns a session by id inside the transaction, or nil if not found.
func (tx *Tx) GetSession(sessionID string) (*Session, error) {
	return getSession(tx, sessionID)
}

func getSession(q querier, sessionID string) (*Session, error) {
	s, err := scanSession(q.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, sessionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// ActiveSession returns the user's open session, or nil if none.
func (db *DB) ActiveSession(userID string) (*Session, error) {
	return activeSession(db, userID)
}

// ActiveSession returns the user's open session inside the transaction, or nil if none.
func (tx *Tx) ActiveSession(userID string) (*Session, error) {
	return activeSession(tx, userID)
}

func activeSession(q querier, userID string) (*Session, error) {
	s, err := scanSession(q.QueryRow(`
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = ? AND ended_at IS NULL
	`, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active session: %w", err)
	}
	return s, nil
}

// CreateSession opens a new session for the user. The caller must have
// ended any prior open session; the partial unique index rejects a second one.
func (tx *Tx) CreateSession(userID string) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartedAt: time.Now().UnixMilli(),
	}
	_, err := tx.Exec(`
		INSERT INTO sessions (session_id, user_id, started_at) VALUES (?, ?, ?)
	`, s.ID, s.UserID, s.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// MarkEnded stamps ended_at on an open session. Returns false if the session
// was missing or already ended.
func (tx *Tx) MarkEnded(sessionID string) (bool, error) {
	now := time.Now().UnixMilli()
	result, err := tx.Exec(`
		UPDATE sessions SET ended_at = ?
		WHERE session_id = ? AND ended_at IS NULL
	`, now, sessionID)
	if err != nil {
		return false, fmt.Errorf("end session: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListUserSessions returns every session of a user, newest first.
func (db *DB) ListUserSessions(userID string) ([]Session, error) {
	rows, err := db.Query(`
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = ? ORDER BY started_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// CountOpenSessions returns how many sessions of the user have no end time.
func (db *DB) CountOpenSessions(userID string) (int, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sessions WHERE user_id = ? AND ended_at IS NULL
	`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open sessions: %w", err)
	}
	return n, nil
}

// DeleteSession removes a session. Messages cascade; memories keep their
// row with session_id set to NULL.
func (db *DB) DeleteSession(sessionID string) (bool, error) {
	result, err := db.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
