package server

import (
	"fmt"
	"net/http"

	"github.com/qwerty1432/Memory-Research/internal/engine"
)

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	sessionID := r.URL.Query().Get("session_id")
	if userID == "" || sessionID == "" {
		s.writeError(w, r, fmt.Errorf("user_id and session_id are required: %w", engine.ErrValidation))
		return
	}

	text, err := s.eng.PreviewContext(userID, sessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"context": text})
}
