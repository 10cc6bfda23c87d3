package store

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/qwerty1432/Memory-Research/internal/condition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCandidateClamps(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.PersistentUser)
	s := testSession(t, db, u.ID)

	long := "User " + strings.Repeat("é", 400)
	m, err := db.CreateCandidate(u.ID, &s.ID, long)
	require.NoError(t, err)
	assert.Equal(t, MaxMemoryRunes, utf8.RuneCountInString(m.Text))
	assert.False(t, m.Active)

	got, err := db.GetMemory(m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, m.Text, got.Text)
	require.NotNil(t, got.SessionID)
	assert.Equal(t, s.ID, *got.SessionID)
}

func TestCreateCandidateWithoutSession(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.PersistentUser)

	m, err := db.CreateCandidate(u.ID, nil, "User is a nurse")
	require.NoError(t, err)

	got, err := db.GetMemory(m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SessionID)
}

func TestUpdateMemory(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.PersistentUser)
	m, err := db.CreateCandidate(u.ID, nil, "User likes tea")
	require.NoError(t, err)

	t.Run("text is clamped", func(t *testing.T) {
		text := strings.Repeat("x", 250)
		got, err := db.UpdateMemory(m.ID, &text, nil)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Len(t, got.Text, MaxMemoryRunes)
		assert.False(t, got.Active)
	})

	t.Run("active only", func(t *testing.T) {
		active := true
		got, err := db.UpdateMemory(m.ID, nil, &active)
		require.NoError(t, err)
		assert.True(t, got.Active)
		assert.Len(t, got.Text, MaxMemoryRunes, "text untouched")
	})

	t.Run("nothing supplied", func(t *testing.T) {
		got, err := db.UpdateMemory(m.ID, nil, nil)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, m.ID, got.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		text := "anything"
		got, err := db.UpdateMemory("missing", &text, nil)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = db.UpdateMemory("missing", nil, nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestApproveMemory(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.PersistentUser)
	m, err := db.CreateCandidate(u.ID, nil, "User likes tea")
	require.NoError(t, err)

	got, err := db.ApproveMemory(m.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	missing, err := db.ApproveMemory("missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteMemory(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.PersistentUser)
	m, err := db.CreateCandidate(u.ID, nil, "User likes tea")
	require.NoError(t, err)

	ok, err := db.DeleteMemory(m.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.DeleteMemory(m.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListCandidates(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.SessionUser)
	s := testSession(t, db, u.ID)

	first, err := db.CreateCandidate(u.ID, &s.ID, "User likes tea")
	require.NoError(t, err)
	second, err := db.CreateCandidate(u.ID, &s.ID, "User has a cat")
	require.NoError(t, err)
	approved, err := db.CreateCandidate(u.ID, &s.ID, "User lives in Oslo")
	require.NoError(t, err)
	_, err = db.ApproveMemory(approved.ID)
	require.NoError(t, err)

	cands, err := db.ListCandidates(u.ID, s.ID)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, second.ID, cands[0].ID, "newest first")
	assert.Equal(t, first.ID, cands[1].ID)
}

func TestListActiveMemoriesScopeAndLimit(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.PersistentAuto)
	s1 := testSession(t, db, u.ID)

	for _, text := range []string{"User a", "User b", "User c"} {
		m, err := db.CreateCandidate(u.ID, &s1.ID, text)
		require.NoError(t, err)
		_, err = db.ApproveMemory(m.ID)
		require.NoError(t, err)
	}
	_, err := db.CreateCandidate(u.ID, &s1.ID, "User pending")
	require.NoError(t, err)

	all, err := db.ListActiveMemories(u.ID, nil, 20)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "User c", all[0].Text)

	limited, err := db.ListActiveMemories(u.ID, &s1.ID, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "User c", limited[0].Text)
	assert.Equal(t, "User b", limited[1].Text)

	other := "other-session"
	none, err := db.ListActiveMemories(u.ID, &other, 20)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListAllTextsIncludesInactive(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.PersistentUser)
	s := testSession(t, db, u.ID)

	m, err := db.CreateCandidate(u.ID, &s.ID, "User likes tea")
	require.NoError(t, err)
	_, err = db.ApproveMemory(m.ID)
	require.NoError(t, err)
	_, err = db.CreateCandidate(u.ID, nil, "User has a cat")
	require.NoError(t, err)

	texts, err := db.ListAllTexts(u.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"User has a cat", "User likes tea"}, texts)

	scoped, err := db.ListAllTexts(u.ID, &s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"User likes tea"}, scoped)
}

func TestPurgeBySession(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.SessionUser)
	s1 := testSession(t, db, u.ID)

	_, err := db.CreateCandidate(u.ID, &s1.ID, "User likes tea")
	require.NoError(t, err)
	m, err := db.CreateCandidate(u.ID, &s1.ID, "User has a cat")
	require.NoError(t, err)
	_, err = db.ApproveMemory(m.ID)
	require.NoError(t, err)
	keep, err := db.CreateCandidate(u.ID, nil, "User is unscoped")
	require.NoError(t, err)

	n, err := db.PurgeBySession(s1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := db.CountSessionMemories(s1.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	got, err := db.GetMemory(keep.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestCreateSessionCandidate(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.SessionUser)
	s := testSession(t, db, u.ID)

	m, err := db.CreateSessionCandidate(u.ID, s.ID, "User likes tea")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.False(t, m.Active)

	require.NoError(t, db.InTx(func(tx *Tx) error {
		_, err := tx.MarkEnded(s.ID)
		return err
	}))

	m, err = db.CreateSessionCandidate(u.ID, s.ID, "User likes coffee")
	require.NoError(t, err)
	assert.Nil(t, m, "ended session accepts no new memories")

	m, err = db.CreateSessionCandidate(u.ID, "missing", "User likes cocoa")
	require.NoError(t, err)
	assert.Nil(t, m)

	n, err := db.CountSessionMemories(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
