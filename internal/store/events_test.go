package store

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/qwerty1432/Memory-Research/internal/condition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEventTruncatesStrings(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.SessionAuto)

	err := db.AddEvent(u.ID, "message_sent", map[string]any{
		"content": strings.Repeat("ж", 900),
		"length":  900,
	})
	require.NoError(t, err)

	events, err := db.ListEvents(u.ID, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "message_sent", events[0].Type)
	assert.Equal(t, MaxPayloadRunes, utf8.RuneCountInString(events[0].Payload["content"].(string)))
	assert.EqualValues(t, 900, events[0].Payload["length"])
}

func TestListEventsFiltersByType(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.SessionAuto)

	require.NoError(t, db.AddEvent(u.ID, "session_started", nil))
	require.NoError(t, db.AddEvent(u.ID, "message_sent", map[string]any{"content": "hi"}))
	require.NoError(t, db.AddEvent(u.ID, "session_ended", nil))
	require.NoError(t, db.AddEvent("", "error_chat_api", map[string]any{"error": "boom"}))

	started, err := db.ListEvents(u.ID, "session_started")
	require.NoError(t, err)
	require.Len(t, started, 1)
	assert.Nil(t, started[0].Payload)

	all, err := db.ListEvents(u.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	var orphans int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM events WHERE user_id IS NULL AND type = 'error_chat_api'`).Scan(&orphans))
	assert.Equal(t, 1, orphans)
}
