package engine

import (
	"fmt"

	"github.com/qwerty1432/Memory-Research/internal/store"
)

// StartSession opens a new session for the user. Any session still open is
// ended first, and its memories are purged when the user's condition is
// ephemeral. All of it happens in one transaction.
func (e *Engine) StartSession(userID string) (*store.Session, error) {
	var (
		created *store.Session
		ended   *store.Session
		purged  int64
	)

	err := e.DB.InTx(func(tx *store.Tx) error {
		u, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}

		open, err := tx.ActiveSession(userID)
		if err != nil {
			return err
		}
		if open != nil {
			if _, err := tx.MarkEnded(open.ID); err != nil {
				return err
			}
			if u.Condition.Ephemeral() {
				if purged, err = tx.PurgeBySession(open.ID); err != nil {
					return err
				}
			}
			ended = open
		}

		created, err = tx.CreateSession(userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	if ended != nil {
		e.Metrics.SessionsEndedTotal.Inc()
		e.Metrics.MemoriesPurgedTotal.Add(float64(purged))
		e.record(userID, EventSessionEnded, map[string]any{
			"session_id":      ended.ID,
			"reason":          "superseded",
			"memories_purged": purged,
		})
		e.Log.Info().Str("user_id", userID).Str("session_id", ended.ID).Int64("purged", purged).Msg("session superseded")
	}
	e.Metrics.SessionsStartedTotal.Inc()
	e.record(userID, EventSessionStarted, map[string]any{"session_id": created.ID})
	e.Log.Info().Str("user_id", userID).Str("session_id", created.ID).Msg("session started")
	return created, nil
}

// EndSession stamps the session's end time and, for ephemeral conditions,
// purges its memories in the same transaction.
func (e *Engine) EndSession(sessionID string) (*store.Session, error) {
	var (
		ended  *store.Session
		userID string
		purged int64
	)

	err := e.DB.InTx(func(tx *store.Tx) error {
		s, err := tx.GetSession(sessionID)
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		if !s.Active() {
			return fmt.Errorf("session %s: %w", sessionID, ErrAlreadyEnded)
		}
		userID = s.UserID

		ok, err := tx.MarkEnded(sessionID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("session %s: %w", sessionID, ErrAlreadyEnded)
		}

		u, err := tx.GetUser(s.UserID)
		if err != nil {
			return err
		}
		if u != nil && u.Condition.Ephemeral() {
			if purged, err = tx.PurgeBySession(sessionID); err != nil {
				return err
			}
		}

		ended, err = tx.GetSession(sessionID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}

	e.Metrics.SessionsEndedTotal.Inc()
	e.Metrics.MemoriesPurgedTotal.Add(float64(purged))
	e.record(userID, EventSessionEnded, map[string]any{
		"session_id":      sessionID,
		"reason":          "ended",
		"memories_purged": purged,
	})
	e.Log.Info().Str("user_id", userID).Str("session_id", sessionID).Int64("purged", purged).Msg("session ended")
	return ended, nil
}

// Session returns a session by id.
func (e *Engine) Session(sessionID string) (*store.Session, error) {
	s, err := e.DB.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return s, nil
}

// Sessions lists a user's sessions, newest first.
func (e *Engine) Sessions(userID string) ([]store.Session, error) {
	if _, err := e.User(userID); err != nil {
		return nil, err
	}
	return e.DB.ListUserSessions(userID)
}

// Messages lists a session's messages in order.
func (e *Engine) Messages(sessionID string) ([]store.Message, error) {
	if _, err := e.Session(sessionID); err != nil {
		return nil, err
	}
	return e.DB.ListMessages(sessionID)
}
