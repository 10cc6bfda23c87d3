package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxPayloadRunes caps every string value in an event payload.
const MaxPayloadRunes = 500

// Event is one entry in the append-only research log.
type Event struct {
	ID        string
	UserID    *string
	Type      string
	Payload   map[string]any
	CreatedAt int64
}

// AddEvent appends an event. String payload values are truncated to
// MaxPayloadRunes; userID may be empty for events not tied to a user.
func (db *DB) AddEvent(userID, eventType string, payload map[string]any) error {
	var uid any
	if userID != "" {
		uid = userID
	}

	var body any
	if len(payload) > 0 {
		clipped := make(map[string]any, len(payload))
		for k, v := range payload {
			if s, ok := v.(string); ok {
				v = clampRunes(s, MaxPayloadRunes)
			}
			clipped[k] = v
		}
		raw, err := json.Marshal(clipped)
		if err != nil {
			return fmt.Errorf("encode event payload: %w", err)
		}
		body = string(raw)
	}

	_, err := db.Exec(`
		INSERT INTO events (event_id, user_id, type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), uid, eventType, body, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("add event: %w", err)
	}
	return nil
}

// ListEvents returns a user's events in chronological order. An empty
// eventType matches every type.
func (db *DB) ListEvents(userID, eventType string) ([]Event, error) {
	rows, err := db.Query(`
		SELECT event_id, user_id, type, payload, created_at FROM events
		WHERE user_id = ? AND (? = '' OR type = ?)
		ORDER BY created_at, rowid
	`, userID, eventType, eventType)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var uid, payload sql.NullString
		if err := rows.Scan(&e.ID, &uid, &e.Type, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if uid.Valid {
			v := uid.String
			e.UserID = &v
		}
		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("decode event payload: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
