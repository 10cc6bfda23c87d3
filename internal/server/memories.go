package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qwerty1432/Memory-Research/internal/engine"
)

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	var sessionID *string
	if v := r.URL.Query().Get("session_id"); v != "" {
		sessionID = &v
	}

	mems, err := s.eng.Memories(chi.URLParam(r, "userID"), sessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, memoryViews(mems))
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	mems, err := s.eng.Candidates(chi.URLParam(r, "userID"), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, memoryViews(mems))
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string  `json:"user_id"`
		SessionID *string `json:"session_id"`
		Text      string  `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.SessionID != nil && *req.SessionID == "" {
		req.SessionID = nil
	}

	m, err := s.eng.CreateMemory(req.UserID, req.SessionID, req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMemoryView(m))
}

type memoryUpdateRequest struct {
	MemoryID string  `json:"memory_id"`
	Text     *string `json:"text"`
	IsActive *bool   `json:"is_active"`
}

func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	var req memoryUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.eng.UpdateMemory(chi.URLParam(r, "memoryID"), req.Text, req.IsActive)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemoryView(m))
}

func (s *Server) handleApproveMemory(w http.ResponseWriter, r *http.Request) {
	m, err := s.eng.ApproveMemory(chi.URLParam(r, "memoryID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemoryView(m))
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.DeleteMemory(chi.URLParam(r, "memoryID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req []memoryUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	updates := make([]engine.MemoryUpdate, len(req))
	for i, u := range req {
		if u.MemoryID == "" {
			s.writeError(w, r, fmt.Errorf("entry %d: memory_id required: %w", i, engine.ErrValidation))
			return
		}
		updates[i] = engine.MemoryUpdate{MemoryID: u.MemoryID, Text: u.Text, Active: u.IsActive}
	}

	updated, err := s.eng.BatchUpdate(updates)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"updated":  len(updated),
		"memories": memoryViews(updated),
	})
}
