package engine

import (
	"fmt"
	"strings"

	"github.com/qwerty1432/Memory-Research/internal/store"
)

// SurveyAnswer is one answered question. Question text and type are
// supplied by the caller; the engine stores them as given.
type SurveyAnswer struct {
	QuestionID   string
	QuestionText string
	ResponseType string
	Value        map[string]any
}

// SurveySubmission is a completed questionnaire. SessionID names the
// session the survey follows, if any; it may already have ended.
type SurveySubmission struct {
	UserID     string
	SessionID  *string
	SurveyType string
	Answers    []SurveyAnswer
}

// SubmitSurvey stores every answer of the submission in one transaction.
func (e *Engine) SubmitSurvey(sub SurveySubmission) ([]store.SurveyResponse, error) {
	surveyType := strings.TrimSpace(sub.SurveyType)
	if surveyType == "" {
		return nil, fmt.Errorf("survey_type is empty: %w", ErrValidation)
	}
	if len(sub.Answers) == 0 {
		return nil, fmt.Errorf("survey has no responses: %w", ErrValidation)
	}
	for i, a := range sub.Answers {
		if strings.TrimSpace(a.QuestionID) == "" {
			return nil, fmt.Errorf("response %d: question_id required: %w", i, ErrValidation)
		}
		if a.Value == nil {
			return nil, fmt.Errorf("response %d: response_value required: %w", i, ErrValidation)
		}
	}

	if _, err := e.User(sub.UserID); err != nil {
		return nil, err
	}
	if sub.SessionID != nil {
		s, err := e.Session(*sub.SessionID)
		if err != nil {
			return nil, err
		}
		if s.UserID != sub.UserID {
			return nil, fmt.Errorf("session %s of user %s: %w", s.ID, sub.UserID, ErrNotFound)
		}
	}

	responses := make([]store.SurveyResponse, len(sub.Answers))
	err := e.DB.InTx(func(tx *store.Tx) error {
		for i, a := range sub.Answers {
			responses[i] = store.SurveyResponse{
				UserID:       sub.UserID,
				SessionID:    sub.SessionID,
				SurveyType:   surveyType,
				QuestionID:   a.QuestionID,
				QuestionText: a.QuestionText,
				ResponseType: a.ResponseType,
				Value:        a.Value,
			}
			if err := tx.AddSurveyResponse(&responses[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit survey: %w", err)
	}

	payload := map[string]any{"survey_type": surveyType, "response_count": len(responses)}
	if sub.SessionID != nil {
		payload["session_id"] = *sub.SessionID
	}
	e.record(sub.UserID, EventSurveySubmitted, payload)
	return responses, nil
}

// SurveyResponses lists a user's answers, newest first, optionally for one
// survey type.
func (e *Engine) SurveyResponses(userID, surveyType string) ([]store.SurveyResponse, error) {
	if _, err := e.User(userID); err != nil {
		return nil, err
	}
	return e.DB.ListSurveyResponses(userID, strings.TrimSpace(surveyType))
}
