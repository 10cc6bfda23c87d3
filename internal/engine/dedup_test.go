package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwerty1432/Memory-Research/internal/condition"
)

func TestIsDuplicateScope(t *testing.T) {
	e := testEngine(t, nil)
	u := newUser(t, e, condition.PersistentUser)
	s1 := newSession(t, e, u.ID)

	_, err := e.DB.CreateCandidate(u.ID, &s1.ID, "User likes tea")
	require.NoError(t, err)

	s2 := newSession(t, e, u.ID)

	dup, err := e.IsDuplicate("user   LIKES tea", u.ID, nil)
	require.NoError(t, err)
	assert.True(t, dup, "user scope sees every session")

	dup, err = e.IsDuplicate("user likes tea", u.ID, &s2.ID)
	require.NoError(t, err)
	assert.False(t, dup, "session scope ignores other sessions")

	dup, err = e.IsDuplicate("User likes tea", u.ID, &s1.ID)
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestIsDuplicateIncludesInactiveAndOtherUsers(t *testing.T) {
	e := testEngine(t, nil)
	alice := newUser(t, e, condition.PersistentAuto)
	bob := newUser(t, e, condition.PersistentAuto)

	_, err := e.DB.CreateCandidate(alice.ID, nil, "User has a cat")
	require.NoError(t, err)

	dup, err := e.IsDuplicate("User has a cat", alice.ID, nil)
	require.NoError(t, err)
	assert.True(t, dup, "inactive candidates count")

	dup, err = e.IsDuplicate("User has a cat", bob.ID, nil)
	require.NoError(t, err)
	assert.False(t, dup, "other users never count")
}

func TestDedupScopeByCondition(t *testing.T) {
	assert.NotNil(t, dedupScope(condition.SessionAuto, "s"))
	assert.NotNil(t, dedupScope(condition.SessionUser, "s"))
	assert.Nil(t, dedupScope(condition.PersistentAuto, "s"))
	assert.Nil(t, dedupScope(condition.PersistentUser, "s"))
}
