package engine

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwerty1432/Memory-Research/internal/condition"
	"github.com/qwerty1432/Memory-Research/internal/llm"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

func TestStartSessionUnknownUser(t *testing.T) {
	e := testEngine(t, nil)

	_, err := e.StartSession("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStartSessionEndsPrevious(t *testing.T) {
	e := testEngine(t, nil)
	u := newUser(t, e, condition.PersistentUser)

	first := newSession(t, e, u.ID)
	second := newSession(t, e, u.ID)
	assert.NotEqual(t, first.ID, second.ID)

	n, err := e.DB.CountOpenSessions(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	prev, err := e.Session(first.ID)
	require.NoError(t, err)
	assert.False(t, prev.Active())

	assert.Equal(t, 2, eventCount(t, e, u.ID, EventSessionStarted))
	assert.Equal(t, 1, eventCount(t, e, u.ID, EventSessionEnded))
}

func TestRotationPurgesEphemeralMemories(t *testing.T) {
	for _, c := range condition.All {
		t.Run(string(c), func(t *testing.T) {
			e := testEngine(t, nil)
			u := newUser(t, e, c)
			s1 := newSession(t, e, u.ID)

			approvedMemory(t, e, u.ID, &s1.ID, "User likes tea")
			_, err := e.DB.CreateCandidate(u.ID, &s1.ID, "User has a cat")
			require.NoError(t, err)

			newSession(t, e, u.ID)

			left, err := e.DB.CountSessionMemories(s1.ID)
			require.NoError(t, err)
			if c.Ephemeral() {
				assert.Zero(t, left)
			} else {
				assert.Equal(t, 2, left)
			}
		})
	}
}

func TestEndSession(t *testing.T) {
	e := testEngine(t, nil)
	u := newUser(t, e, condition.PersistentAuto)
	s := newSession(t, e, u.ID)
	approvedMemory(t, e, u.ID, &s.ID, "User likes tea")

	ended, err := e.EndSession(s.ID)
	require.NoError(t, err)
	assert.False(t, ended.Active())

	left, err := e.DB.CountSessionMemories(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, left, "persistent memories survive")

	_, err = e.EndSession(s.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnded)

	_, err = e.EndSession("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEndSessionAutoPurgeLeavesOthersUntouched(t *testing.T) {
	e := testEngine(t, nil)
	alice := newUser(t, e, condition.SessionAuto)
	bob := newUser(t, e, condition.SessionAuto)

	aliceSession := newSession(t, e, alice.ID)
	bobSession := newSession(t, e, bob.ID)
	_, err := e.DB.CreateCandidate(alice.ID, &aliceSession.ID, "User likes tea")
	require.NoError(t, err)
	unscoped, err := e.DB.CreateCandidate(alice.ID, nil, "User is unscoped")
	require.NoError(t, err)
	_, err = e.DB.CreateCandidate(bob.ID, &bobSession.ID, "User likes coffee")
	require.NoError(t, err)

	_, err = e.EndSession(aliceSession.ID)
	require.NoError(t, err)

	left, err := e.DB.CountSessionMemories(aliceSession.ID)
	require.NoError(t, err)
	assert.Zero(t, left)

	bobLeft, err := e.DB.CountSessionMemories(bobSession.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, bobLeft)

	got, err := e.DB.GetMemory(unscoped.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	events, err := e.DB.ListEvents(alice.ID, EventSessionEnded)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.EqualValues(t, 1, events[0].Payload["memories_purged"])
}

func TestConcurrentStartSessionKeepsOneOpen(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "companion.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := New(db, &llm.MockClient{})
	u, err := e.RegisterUser("alice", string(condition.SessionUser))
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.StartSession(u.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	n, err := db.CountOpenSessions(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sessions, err := db.ListUserSessions(u.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, workers)
}
