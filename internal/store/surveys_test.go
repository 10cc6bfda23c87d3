package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwerty1432/Memory-Research/internal/condition"
)

func TestSurveyResponses(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.PersistentAuto)
	s := testSession(t, db, u.ID)

	require.NoError(t, db.InTx(func(tx *Tx) error {
		if err := tx.AddSurveyResponse(&SurveyResponse{
			UserID: u.ID, SurveyType: "pre", QuestionID: "q1",
			QuestionText: "How old are you?", ResponseType: "free_response",
			Value: map[string]any{"text": "31"},
		}); err != nil {
			return err
		}
		return tx.AddSurveyResponse(&SurveyResponse{
			UserID: u.ID, SessionID: &s.ID, SurveyType: "mid_checkpoint", QuestionID: "trust",
			ResponseType: "likert", Value: map[string]any{"value": 4.0},
		})
	}))

	all, err := db.ListSurveyResponses(u.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "trust", all[0].QuestionID, "newest first")
	require.NotNil(t, all[0].SessionID)
	assert.Equal(t, 4.0, all[0].Value["value"])
	assert.Nil(t, all[1].SessionID)

	pre, err := db.ListSurveyResponses(u.ID, "pre")
	require.NoError(t, err)
	require.Len(t, pre, 1)
	assert.Equal(t, "31", pre[0].Value["text"])
}

func TestSurveyResponsesOutliveSession(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "alice", condition.SessionAuto)
	s := testSession(t, db, u.ID)

	require.NoError(t, db.InTx(func(tx *Tx) error {
		return tx.AddSurveyResponse(&SurveyResponse{
			UserID: u.ID, SessionID: &s.ID, SurveyType: "post", QuestionID: "q1",
			Value: map[string]any{"choice": "yes"},
		})
	}))

	ok, err := db.DeleteSession(s.ID)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := db.ListSurveyResponses(u.ID, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].SessionID)

	_, err = db.DeleteUser(u.ID)
	require.NoError(t, err)
	got, err = db.ListSurveyResponses(u.ID, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
