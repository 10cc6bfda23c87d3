package server

import (
	"time"

	"github.com/qwerty1432/Memory-Research/internal/condition"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

type userView struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	ConditionID string    `json:"condition_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type sessionView struct {
	SessionID string     `json:"session_id"`
	UserID    string     `json:"user_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

type messageView struct {
	MsgID     string    `json:"msg_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type memoryView struct {
	MemoryID  string    `json:"memory_id"`
	UserID    string    `json:"user_id"`
	SessionID *string   `json:"session_id"`
	Text      string    `json:"text"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type conditionView struct {
	UserID      string `json:"user_id"`
	ConditionID string `json:"condition_id"`
	Description string `json:"description"`
}

func millis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func newUserView(u *store.User) userView {
	return userView{
		UserID:      u.ID,
		Username:    u.Username,
		ConditionID: string(u.Condition),
		CreatedAt:   millis(u.CreatedAt),
	}
}

func newSessionView(s *store.Session) sessionView {
	v := sessionView{SessionID: s.ID, UserID: s.UserID, StartedAt: millis(s.StartedAt)}
	if s.EndedAt != nil {
		t := millis(*s.EndedAt)
		v.EndedAt = &t
	}
	return v
}

func newMemoryView(m *store.Memory) memoryView {
	return memoryView{
		MemoryID:  m.ID,
		UserID:    m.UserID,
		SessionID: m.SessionID,
		Text:      m.Text,
		IsActive:  m.Active,
		CreatedAt: millis(m.CreatedAt),
		UpdatedAt: millis(m.UpdatedAt),
	}
}

func memoryViews(mems []store.Memory) []memoryView {
	out := make([]memoryView, len(mems))
	for i := range mems {
		out[i] = newMemoryView(&mems[i])
	}
	return out
}

func newConditionView(u *store.User) conditionView {
	return conditionView{
		UserID:      u.ID,
		ConditionID: string(u.Condition),
		Description: condition.Describe(u.Condition),
	}
}
