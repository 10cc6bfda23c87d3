package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/qwerty1432/Memory-Research/internal/engine"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

type surveyResponseView struct {
	ResponseID    string         `json:"response_id"`
	UserID        string         `json:"user_id"`
	SessionID     *string        `json:"session_id"`
	SurveyType    string         `json:"survey_type"`
	QuestionID    string         `json:"question_id"`
	QuestionText  string         `json:"question_text"`
	ResponseType  string         `json:"response_type"`
	ResponseValue map[string]any `json:"response_value"`
	CreatedAt     time.Time      `json:"created_at"`
}

func surveyResponseViews(rs []store.SurveyResponse) []surveyResponseView {
	out := make([]surveyResponseView, len(rs))
	for i, r := range rs {
		out[i] = surveyResponseView{
			ResponseID:    r.ID,
			UserID:        r.UserID,
			SessionID:     r.SessionID,
			SurveyType:    r.SurveyType,
			QuestionID:    r.QuestionID,
			QuestionText:  r.QuestionText,
			ResponseType:  r.ResponseType,
			ResponseValue: r.Value,
			CreatedAt:     millis(r.CreatedAt),
		}
	}
	return out
}

func (s *Server) handleSubmitSurvey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     string  `json:"user_id"`
		SessionID  *string `json:"session_id"`
		SurveyType string  `json:"survey_type"`
		Responses  []struct {
			QuestionID    string         `json:"question_id"`
			QuestionText  string         `json:"question_text"`
			ResponseType  string         `json:"response_type"`
			ResponseValue map[string]any `json:"response_value"`
		} `json:"responses"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.SessionID != nil && *req.SessionID == "" {
		req.SessionID = nil
	}

	sub := engine.SurveySubmission{UserID: req.UserID, SessionID: req.SessionID, SurveyType: req.SurveyType}
	for _, a := range req.Responses {
		sub.Answers = append(sub.Answers, engine.SurveyAnswer{
			QuestionID:   a.QuestionID,
			QuestionText: a.QuestionText,
			ResponseType: a.ResponseType,
			Value:        a.ResponseValue,
		})
	}

	stored, err := s.eng.SubmitSurvey(sub)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"response_count": len(stored),
		"responses":      surveyResponseViews(stored),
	})
}

func (s *Server) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	rs, err := s.eng.SurveyResponses(chi.URLParam(r, "userID"), r.URL.Query().Get("survey_type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surveyResponseViews(rs))
}
