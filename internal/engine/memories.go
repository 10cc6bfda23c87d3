package engine

import (
	"fmt"
	"strings"

	"github.com/qwerty1432/Memory-Research/internal/store"
)

// MemoryUpdate is one entry of a batch review. Nil fields are left alone.
type MemoryUpdate struct {
	MemoryID string
	Text     *string
	Active   *bool
}

// CreateMemory adds a candidate directly, without extraction. A session,
// when given, must belong to the user and still be open.
func (e *Engine) CreateMemory(userID string, sessionID *string, text string) (*store.Memory, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("memory text is empty: %w", ErrValidation)
	}
	if _, err := e.User(userID); err != nil {
		return nil, err
	}
	if sessionID != nil {
		s, err := e.Session(*sessionID)
		if err != nil {
			return nil, err
		}
		if s.UserID != userID {
			return nil, fmt.Errorf("session %s of user %s: %w", s.ID, userID, ErrNotFound)
		}
		if !s.Active() {
			return nil, fmt.Errorf("session %s: %w", s.ID, ErrAlreadyEnded)
		}
	}

	var m *store.Memory
	var err error
	if sessionID != nil {
		m, err = e.DB.CreateSessionCandidate(userID, *sessionID, text)
		if err == nil && m == nil {
			return nil, fmt.Errorf("session %s: %w", *sessionID, ErrAlreadyEnded)
		}
	} else {
		m, err = e.DB.CreateCandidate(userID, nil, text)
	}
	if err != nil {
		return nil, err
	}
	e.Metrics.CandidatesCreatedTotal.Inc()
	e.record(userID, EventMemoryCreated, map[string]any{"memory_id": m.ID, "source": "manual"})
	return m, nil
}

// ApproveMemory promotes a candidate to an active memory.
func (e *Engine) ApproveMemory(memoryID string) (*store.Memory, error) {
	m, err := e.DB.ApproveMemory(memoryID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("memory %s: %w", memoryID, ErrNotFound)
	}
	e.record(m.UserID, EventMemoryApproved, map[string]any{"memory_id": m.ID})
	return m, nil
}

// UpdateMemory edits text and/or the active flag.
func (e *Engine) UpdateMemory(memoryID string, text *string, active *bool) (*store.Memory, error) {
	m, err := e.DB.UpdateMemory(memoryID, text, active)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("memory %s: %w", memoryID, ErrNotFound)
	}
	e.recordUpdate(m, text, active)
	return m, nil
}

func (e *Engine) recordUpdate(m *store.Memory, text *string, active *bool) {
	payload := map[string]any{"memory_id": m.ID}
	if active != nil {
		if *active {
			e.record(m.UserID, EventMemoryApproved, payload)
		} else {
			e.record(m.UserID, EventMemoryRejected, payload)
		}
	}
	if text != nil {
		e.record(m.UserID, EventMemoryEdited, payload)
	}
}

// DeleteMemory hard-deletes a memory.
func (e *Engine) DeleteMemory(memoryID string) error {
	m, err := e.DB.GetMemory(memoryID)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("memory %s: %w", memoryID, ErrNotFound)
	}
	ok, err := e.DB.DeleteMemory(memoryID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("memory %s: %w", memoryID, ErrNotFound)
	}
	e.record(m.UserID, EventMemoryDeleted, map[string]any{"memory_id": m.ID})
	return nil
}

// BatchUpdate applies each update in order. Unknown ids are skipped; the
// memories that were found are returned in request order.
func (e *Engine) BatchUpdate(updates []MemoryUpdate) ([]store.Memory, error) {
	updated := []store.Memory{}
	for _, u := range updates {
		if u.MemoryID == "" {
			return updated, fmt.Errorf("batch entry without memory_id: %w", ErrValidation)
		}
		m, err := e.DB.UpdateMemory(u.MemoryID, u.Text, u.Active)
		if err != nil {
			return updated, err
		}
		if m == nil {
			continue
		}
		e.recordUpdate(m, u.Text, u.Active)
		updated = append(updated, *m)
	}
	return updated, nil
}

// Memories lists a user's memories, optionally narrowed to one session.
func (e *Engine) Memories(userID string, sessionID *string) ([]store.Memory, error) {
	if _, err := e.User(userID); err != nil {
		return nil, err
	}
	return e.DB.ListMemories(userID, sessionID)
}

// Candidates lists the pending candidates of (user, session), newest first.
func (e *Engine) Candidates(userID, sessionID string) ([]store.Memory, error) {
	return e.DB.ListCandidates(userID, sessionID)
}
