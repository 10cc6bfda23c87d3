package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxMemoryRunes is the hard ceiling on memory text, enforced on every write.
const MaxMemoryRunes = 200

// Memory is a fact about a user. Active=false marks an unapproved candidate.
type Memory struct {
	ID        string
	UserID    string
	SessionID *string
	Text      string
	Active    bool
	CreatedAt int64
	UpdatedAt int64
}

// ClampMemoryText truncates s to MaxMemoryRunes runes.
func ClampMemoryText(s string) string {
	return clampRunes(s, MaxMemoryRunes)
}

func clampRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

const memoryColumns = `memory_id, user_id, session_id, text, is_active, created_at, updated_at`

func scanMemory(row interface{ Scan(...any) error }) (*Memory, error) {
	var m Memory
	var sessionID sql.NullString
	var active int
	if err := row.Scan(&m.ID, &m.UserID, &sessionID, &m.Text, &active, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if sessionID.Valid {
		v := sessionID.String
		m.SessionID = &v
	}
	m.Active = active != 0
	return &m, nil
}

// CreateCandidate inserts an inactive memory. Text is clamped; sessionID may be nil.
func (db *DB) CreateCandidate(userID string, sessionID *string, text string) (*Memory, error) {
	now := time.Now().UnixMilli()
	m := &Memory{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Text:      ClampMemoryText(text),
		CreatedAt: now,
		UpdatedAt: now,
	}
	var sid any
	if sessionID != nil {
		sid = *sessionID
	}
	_, err := db.Exec(`
		INSERT INTO memories (memory_id, user_id, session_id, text, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`, m.ID, m.UserID, sid, m.Text, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create memory: %w", err)
	}
	return m, nil
}

// CreateSessionCandidate inserts an inactive memory bound to sessionID, but
// only while that session is still open. Returns nil if the session is
// missing or has ended, so nothing can outlive an ephemeral purge.
func (db *DB) CreateSessionCandidate(userID, sessionID, text string) (*Memory, error) {
	now := time.Now().UnixMilli()
	m := &Memory{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: &sessionID,
		Text:      ClampMemoryText(text),
		CreatedAt: now,
		UpdatedAt: now,
	}
	result, err := db.Exec(`
		INSERT INTO memories (memory_id, user_id, session_id, text, is_active, created_at, updated_at)
		SELECT ?, ?, ?, ?, 0, ?, ?
		WHERE EXISTS (SELECT 1 FROM sessions WHERE session_id = ? AND ended_at IS NULL)
	`, m.ID, m.UserID, sessionID, m.Text, m.CreatedAt, m.UpdatedAt, sessionID)
	if err != nil {
		return nil, fmt.Errorf("create session memory: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, nil
	}
	return m, nil
}

// GetMemory returns a memory by id, or nil if not found.
func (db *DB) GetMemory(memoryID string) (*Memory, error) {
	m, err := scanMemory(db.QueryRow(`SELECT `+memoryColumns+` FROM memories WHERE memory_id = ?`, memoryID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return m, nil
}

// ApproveMemory marks a memory active. Returns nil if it does not exist.
func (db *DB) ApproveMemory(memoryID string) (*Memory, error) {
	active := true
	return db.UpdateMemory(memoryID, nil, &active)
}

// UpdateMemory applies only the supplied fields. A text update is clamped.
// Returns nil if the memory does not exist, even when nothing was supplied.
func (db *DB) UpdateMemory(memoryID string, text *string, active *bool) (*Memory, error) {
	var sets []string
	var args []any
	if text != nil {
		sets = append(sets, "text = ?")
		args = append(args, ClampMemoryText(*text))
	}
	if active != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, boolInt(*active))
	}
	if len(sets) == 0 {
		return db.GetMemory(memoryID)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UnixMilli(), memoryID)

	result, err := db.Exec(`UPDATE memories SET `+strings.Join(sets, ", ")+` WHERE memory_id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update memory: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, nil
	}
	return db.GetMemory(memoryID)
}

// DeleteMemory hard-deletes a memory and reports whether a row was removed.
func (db *DB) DeleteMemory(memoryID string) (bool, error) {
	result, err := db.Exec(`DELETE FROM memories WHERE memory_id = ?`, memoryID)
	if err != nil {
		return false, fmt.Errorf("delete memory: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListCandidates returns inactive memories of (user, session), newest first.
func (db *DB) ListCandidates(userID, sessionID string) ([]Memory, error) {
	return db.queryMemories(`
		SELECT `+memoryColumns+` FROM memories
		WHERE user_id = ? AND session_id = ? AND is_active = 0
		ORDER BY created_at DESC, rowid DESC
	`, userID, sessionID)
}

// ListMemories returns every memory of a user, optionally narrowed to one
// session, newest first.
func (db *DB) ListMemories(userID string, sessionID *string) ([]Memory, error) {
	if sessionID != nil {
		return db.queryMemories(`
			SELECT `+memoryColumns+` FROM memories
			WHERE user_id = ? AND session_id = ?
			ORDER BY created_at DESC, rowid DESC
		`, userID, *sessionID)
	}
	return db.queryMemories(`
		SELECT `+memoryColumns+` FROM memories
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC
	`, userID)
}

// ListActiveMemories returns up to limit approved memories, newest first.
// A nil sessionID reads across all of the user's sessions.
func (db *DB) ListActiveMemories(userID string, sessionID *string, limit int) ([]Memory, error) {
	if sessionID != nil {
		return db.queryMemories(`
			SELECT `+memoryColumns+` FROM memories
			WHERE user_id = ? AND session_id = ? AND is_active = 1
			ORDER BY created_at DESC, rowid DESC LIMIT ?
		`, userID, *sessionID, limit)
	}
	return db.queryMemories(`
		SELECT `+memoryColumns+` FROM memories
		WHERE user_id = ? AND is_active = 1
		ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, userID, limit)
}

// ListAllTexts returns the text of every memory (active or not) in scope,
// newest first. A nil sessionID means all of the user's memories.
func (db *DB) ListAllTexts(userID string, sessionID *string) ([]string, error) {
	mems, err := db.ListMemories(userID, sessionID)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(mems))
	for i, m := range mems {
		texts[i] = m.Text
	}
	return texts, nil
}

// PurgeBySession deletes every memory bound to the session, active or not.
func (db *DB) PurgeBySession(sessionID string) (int64, error) {
	return purgeBySession(db, sessionID)
}

// PurgeBySession deletes every memory bound to the session inside the transaction.
func (tx *Tx) PurgeBySession(sessionID string) (int64, error) {
	return purgeBySession(tx, sessionID)
}

func purgeBySession(q querier, sessionID string) (int64, error) {
	result, err := q.Exec(`DELETE FROM memories WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("purge session memories: %w", err)
	}
	return result.RowsAffected()
}

// CountSessionMemories returns how many memories reference the session.
func (db *DB) CountSessionMemories(sessionID string) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM memories WHERE session_id = ?`, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count session memories: %w", err)
	}
	return n, nil
}

func (db *DB) queryMemories(query string, args ...any) ([]Memory, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var mems []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		mems = append(mems, *m)
	}
	return mems, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
