package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SurveyResponse is one answered question of a questionnaire.
type SurveyResponse struct {
	ID           string
	UserID       string
	SessionID    *string
	SurveyType   string
	QuestionID   string
	QuestionText string
	ResponseType string
	Value        map[string]any
	CreatedAt    int64
}

// AddSurveyResponse inserts an answer inside the transaction, filling in
// its id and timestamp.
func (tx *Tx) AddSurveyResponse(r *SurveyResponse) error {
	raw, err := json.Marshal(r.Value)
	if err != nil {
		return fmt.Errorf("encode survey response: %w", err)
	}
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UnixMilli()

	var sid any
	if r.SessionID != nil {
		sid = *r.SessionID
	}
	_, err = tx.Exec(`
		INSERT INTO survey_responses (response_id, user_id, session_id, survey_type, question_id,
			question_text, response_type, response_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.UserID, sid, r.SurveyType, r.QuestionID, r.QuestionText, r.ResponseType, string(raw), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("add survey response: %w", err)
	}
	return nil
}

// ListSurveyResponses returns a user's answers, newest first. An empty
// surveyType matches every survey.
func (db *DB) ListSurveyResponses(userID, surveyType string) ([]SurveyResponse, error) {
	rows, err := db.Query(`
		SELECT response_id, user_id, session_id, survey_type, question_id,
			question_text, response_type, response_value, created_at
		FROM survey_responses
		WHERE user_id = ? AND (? = '' OR survey_type = ?)
		ORDER BY created_at DESC, rowid DESC
	`, userID, surveyType, surveyType)
	if err != nil {
		return nil, fmt.Errorf("list survey responses: %w", err)
	}
	defer rows.Close()

	var out []SurveyResponse
	for rows.Next() {
		var r SurveyResponse
		var sid sql.NullString
		var raw string
		if err := rows.Scan(&r.ID, &r.UserID, &sid, &r.SurveyType, &r.QuestionID,
			&r.QuestionText, &r.ResponseType, &raw, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan survey response: %w", err)
		}
		if sid.Valid {
			v := sid.String
			r.SessionID = &v
		}
		if err := json.Unmarshal([]byte(raw), &r.Value); err != nil {
			return nil, fmt.Errorf("decode survey response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
