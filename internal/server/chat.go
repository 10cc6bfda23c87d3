package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/qwerty1432/Memory-Research/internal/engine"
)

type chatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (c chatRequest) turn() engine.TurnRequest {
	return engine.TurnRequest{UserID: c.UserID, SessionID: c.SessionID, Message: c.Message}
}

type candidateView struct {
	MemoryID string `json:"memory_id"`
	Text     string `json:"text"`
}

func candidateViews(res *engine.TurnResult) []candidateView {
	out := make([]candidateView, len(res.Candidates))
	for i, m := range res.Candidates {
		out[i] = candidateView{MemoryID: m.ID, Text: m.Text}
	}
	return out
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.eng.Turn(r.Context(), req.turn())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"response":          res.Reply,
		"memory_candidates": candidateViews(res),
	})
}

// handleChatStream serves a turn as server-sent events. Headers are sent
// with the first token, so failures before generation keep their status code.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, fmt.Errorf("streaming unsupported"))
		return
	}

	started := false
	send := func(v any) {
		if !started {
			h := w.Header()
			h.Set("Content-Type", "text/event-stream")
			h.Set("Cache-Control", "no-cache")
			h.Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		data, _ := json.Marshal(v)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	res, err := s.eng.TurnStream(r.Context(), req.turn(), func(token string) {
		send(map[string]string{"token": token})
	})
	if err != nil {
		if !started {
			s.writeError(w, r, err)
			return
		}
		s.log.Error().Err(err).Str("session_id", req.SessionID).Msg("chat stream failed")
		send(map[string]string{"error": engine.FallbackReply})
		return
	}

	send(map[string]any{
		"done":       true,
		"reply":      res.Reply,
		"candidates": candidateViews(res),
	})
}
