package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/qwerty1432/Memory-Research/internal/condition"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

// MaxContextRunes bounds the assembled context, newline separators included.
const MaxContextRunes = 6000

// BuildContext assembles the text carried into a turn for the given
// condition: approved memories in scope, then the session's most recent
// messages, both oldest first. An unknown condition yields "".
func (e *Engine) BuildContext(userID, sessionID string, c condition.Condition) (string, error) {
	policy, ok := c.Policy()
	if !ok {
		return "", nil
	}

	var lines []string

	if policy.MemoryScope != condition.ScopeNone && policy.MemoryLimit > 0 {
		var scope *string
		if policy.MemoryScope == condition.ScopeSession {
			scope = &sessionID
		}
		mems, err := e.DB.ListActiveMemories(userID, scope, policy.MemoryLimit)
		if err != nil {
			return "", err
		}
		for i := len(mems) - 1; i >= 0; i-- {
			lines = append(lines, "Memory: "+mems[i].Text)
		}
	}

	if policy.MessageLimit > 0 {
		msgs, err := e.DB.RecentMessages(sessionID, policy.MessageLimit)
		if err != nil {
			return "", err
		}
		for i := len(msgs) - 1; i >= 0; i-- {
			lines = append(lines, roleLabel(msgs[i].Role)+": "+msgs[i].Content)
		}
	}

	return joinWithin(lines, MaxContextRunes), nil
}

// joinWithin joins lines with newlines, keeping the longest prefix of whole
// lines whose joined length fits in limit runes.
func joinWithin(lines []string, limit int) string {
	total := 0
	n := 0
	for _, line := range lines {
		size := utf8.RuneCountInString(line)
		if n > 0 {
			size++ // separator
		}
		if total+size > limit {
			break
		}
		total += size
		n++
	}
	return strings.Join(lines[:n], "\n")
}

func roleLabel(role string) string {
	switch role {
	case store.RoleUser:
		return "User"
	case store.RoleAssistant:
		return "Assistant"
	}
	if role == "" {
		return role
	}
	r, size := utf8.DecodeRuneInString(role)
	return strings.ToUpper(string(r)) + strings.ToLower(role[size:])
}

// PreviewContext returns the context the next turn in the session would
// carry, under the user's current condition.
func (e *Engine) PreviewContext(userID, sessionID string) (string, error) {
	u, err := e.User(userID)
	if err != nil {
		return "", err
	}
	s, err := e.Session(sessionID)
	if err != nil {
		return "", err
	}
	if s.UserID != u.ID {
		return "", fmt.Errorf("session %s of user %s: %w", s.ID, u.ID, ErrNotFound)
	}
	return e.BuildContext(u.ID, s.ID, u.Condition)
}
