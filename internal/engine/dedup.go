package engine

import "github.com/qwerty1432/Memory-Research/internal/condition"

// IsDuplicate reports whether candidate matches an existing memory, active
// or not, after normalization. With a session scope only that session's
// memories are compared; a nil scope compares every memory of the user.
func (e *Engine) IsDuplicate(candidate, userID string, scopeSessionID *string) (bool, error) {
	existing, err := e.DB.ListAllTexts(userID, scopeSessionID)
	if err != nil {
		return false, err
	}
	return containsNormalized(existing, candidate), nil
}

func containsNormalized(existing []string, candidate string) bool {
	want := Normalize(candidate)
	for _, text := range existing {
		if Normalize(text) == want {
			return true
		}
	}
	return false
}

// dedupScope picks the comparison scope for a condition: the current
// session for ephemeral conditions, the whole user otherwise.
func dedupScope(c condition.Condition, sessionID string) *string {
	if p, ok := c.Policy(); ok && p.DedupBySession {
		return &sessionID
	}
	return nil
}
