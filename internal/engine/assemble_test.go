package engine

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwerty1432/Memory-Research/internal/condition"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

func addExchange(t *testing.T, e *Engine, sessionID, user, assistant string) {
	t.Helper()
	_, err := e.DB.AddMessage(sessionID, store.RoleUser, user)
	require.NoError(t, err)
	_, err = e.DB.AddMessage(sessionID, store.RoleAssistant, assistant)
	require.NoError(t, err)
}

func TestBuildContextPersistentAuto(t *testing.T) {
	e := testEngine(t, nil)
	u := newUser(t, e, condition.PersistentAuto)

	s1 := newSession(t, e, u.ID)
	approvedMemory(t, e, u.ID, &s1.ID, "User likes tea")
	approvedMemory(t, e, u.ID, &s1.ID, "User has a cat")
	_, err := e.DB.CreateCandidate(u.ID, &s1.ID, "User is pending")
	require.NoError(t, err)

	s2 := newSession(t, e, u.ID)
	addExchange(t, e, s2.ID, "hi again", "welcome back")

	got, err := e.BuildContext(u.ID, s2.ID, u.Condition)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"Memory: User likes tea",
		"Memory: User has a cat",
		"User: hi again",
		"Assistant: welcome back",
	}, "\n"), got)
}

func TestBuildContextSessionUserScope(t *testing.T) {
	e := testEngine(t, nil)
	u := newUser(t, e, condition.SessionUser)

	orphan := approvedMemory(t, e, u.ID, nil, "User is unscoped")
	s := newSession(t, e, u.ID)
	approvedMemory(t, e, u.ID, &s.ID, "User likes tea")

	got, err := e.BuildContext(u.ID, s.ID, u.Condition)
	require.NoError(t, err)
	assert.Equal(t, "Memory: User likes tea", got)
	assert.NotContains(t, got, orphan.Text)
}

func TestBuildContextSessionAutoMessagesOnly(t *testing.T) {
	e := testEngine(t, nil)
	u := newUser(t, e, condition.SessionAuto)
	s := newSession(t, e, u.ID)
	approvedMemory(t, e, u.ID, &s.ID, "User likes tea")

	for i := 0; i < 6; i++ {
		addExchange(t, e, s.ID, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	got, err := e.BuildContext(u.ID, s.ID, u.Condition)
	require.NoError(t, err)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 10, "last ten messages")
	assert.Equal(t, "User: q1", lines[0])
	assert.Equal(t, "Assistant: a5", lines[9])
	assert.NotContains(t, got, "Memory:")
}

func TestBuildContextMessageLimitFive(t *testing.T) {
	e := testEngine(t, nil)
	u := newUser(t, e, condition.PersistentUser)
	s := newSession(t, e, u.ID)
	for i := 0; i < 4; i++ {
		addExchange(t, e, s.ID, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	got, err := e.BuildContext(u.ID, s.ID, u.Condition)
	require.NoError(t, err)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Assistant: a1", lines[0])
	assert.Equal(t, "Assistant: a3", lines[4])
}

func TestBuildContextMemoryLimit(t *testing.T) {
	e := testEngine(t, nil)
	u := newUser(t, e, condition.PersistentUser)
	s := newSession(t, e, u.ID)
	for i := 0; i < 25; i++ {
		approvedMemory(t, e, u.ID, &s.ID, fmt.Sprintf("User fact %02d", i))
	}

	got, err := e.BuildContext(u.ID, s.ID, u.Condition)
	require.NoError(t, err)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 20)
	assert.Equal(t, "Memory: User fact 05", lines[0], "oldest of the twenty most recent")
	assert.Equal(t, "Memory: User fact 24", lines[19])
}

func TestBuildContextBounded(t *testing.T) {
	e := testEngine(t, nil)
	u := newUser(t, e, condition.SessionAuto)
	s := newSession(t, e, u.ID)

	body := strings.Repeat("ø", 999)
	for i := 0; i < 5; i++ {
		addExchange(t, e, s.ID, body, body)
	}

	got, err := e.BuildContext(u.ID, s.ID, u.Condition)
	require.NoError(t, err)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxContextRunes)

	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 5)
	for _, line := range lines {
		assert.True(t, strings.HasSuffix(line, body), "only whole lines are kept")
	}
}

func TestBuildContextEmpty(t *testing.T) {
	e := testEngine(t, nil)
	u := newUser(t, e, condition.PersistentUser)
	s := newSession(t, e, u.ID)

	got, err := e.BuildContext(u.ID, s.ID, u.Condition)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	addExchange(t, e, s.ID, "hi", "hello")
	got, err = e.BuildContext(u.ID, s.ID, condition.Condition("SOMETIMES"))
	require.NoError(t, err)
	assert.Equal(t, "", got, "unknown condition")
}

func TestJoinWithinStopsAtFirstOverflow(t *testing.T) {
	lines := []string{"aaaa", "bbbbbbbb", "c"}
	assert.Equal(t, "aaaa", joinWithin(lines, 10))
	assert.Equal(t, "aaaa\nbbbbbbbb", joinWithin(lines, 13))
	assert.Equal(t, "aaaa\nbbbbbbbb\nc", joinWithin(lines, 15))
	assert.Equal(t, "", joinWithin(lines, 3))
	assert.Equal(t, "", joinWithin(nil, 10))
}

func TestPreviewContext(t *testing.T) {
	e := testEngine(t, nil)
	u := newUser(t, e, condition.PersistentUser)
	other := newUser(t, e, condition.PersistentUser)
	s := newSession(t, e, u.ID)
	addExchange(t, e, s.ID, "hi", "hello")

	got, err := e.PreviewContext(u.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "User: hi\nAssistant: hello", got)

	_, err = e.PreviewContext(other.ID, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
