package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one immutable conversation turn.
type Message struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	CreatedAt int64
}

// AddMessage appends a message to a session.
func (db *DB) AddMessage(sessionID, role, content string) (*Message, error) {
	m := &Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UnixMilli(),
	}
	_, err := db.Exec(`
		INSERT INTO messages (msg_id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.SessionID, m.Role, m.Content, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	return m, nil
}

// RecentMessages returns up to limit messages of a session, newest first.
func (db *DB) RecentMessages(sessionID string, limit int) ([]Message, error) {
	return db.queryMessages(`
		SELECT msg_id, session_id, role, content, created_at FROM messages
		WHERE session_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, sessionID, limit)
}

// ListMessages returns all messages of a session in chronological order.
func (db *DB) ListMessages(sessionID string) ([]Message, error) {
	return db.queryMessages(`
		SELECT msg_id, session_id, role, content, created_at FROM messages
		WHERE session_id = ? ORDER BY created_at, rowid
	`, sessionID)
}

func (db *DB) queryMessages(query string, args ...any) ([]Message, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
