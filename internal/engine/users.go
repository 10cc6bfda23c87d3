package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/qwerty1432/Memory-Research/internal/condition"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

// RegisterUser creates a participant. An empty condition assigns the
// engine's DefaultCondition.
func (e *Engine) RegisterUser(username, cond string) (*store.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is empty: %w", ErrValidation)
	}

	c := e.DefaultCondition
	if strings.TrimSpace(cond) != "" {
		parsed, err := condition.Parse(cond)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrValidation)
		}
		c = parsed
	}

	u, err := e.DB.CreateUser(username, c)
	if errors.Is(err, store.ErrUsernameTaken) {
		return nil, fmt.Errorf("username %q already registered: %w", username, ErrValidation)
	}
	if err != nil {
		return nil, err
	}

	e.record(u.ID, EventConditionAssigned, map[string]any{"condition_id": string(c)})
	e.Log.Info().Str("user_id", u.ID).Str("condition", string(c)).Msg("user registered")
	return u, nil
}

// User returns a participant by id.
func (e *Engine) User(userID string) (*store.User, error) {
	u, err := e.DB.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return u, nil
}

// SetCondition is the admin override of a user's condition. The change is
// logged only when the value actually differs.
func (e *Engine) SetCondition(userID, cond string) (*store.User, error) {
	c, err := condition.Parse(cond)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrValidation)
	}

	u, err := e.User(userID)
	if err != nil {
		return nil, err
	}
	if u.Condition == c {
		return u, nil
	}

	previous := u.Condition
	if _, err := e.DB.SetCondition(userID, c); err != nil {
		return nil, err
	}
	u.Condition = c

	e.record(userID, EventConditionChanged, map[string]any{
		"condition_id": string(c),
		"previous":     string(previous),
	})
	e.Log.Info().Str("user_id", userID).Str("from", string(previous)).Str("to", string(c)).Msg("condition changed")
	return u, nil
}
