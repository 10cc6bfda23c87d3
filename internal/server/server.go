package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/qwerty1432/Memory-Research/internal/engine"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

// Server is the companion HTTP API server.
type Server struct {
	eng     *engine.Engine
	db      *store.DB
	router  chi.Router
	log     zerolog.Logger
	version string
	started time.Time
}

// New creates a new Server backed by the engine.
func New(eng *engine.Engine, version string) *Server {
	s := &Server{
		eng:     eng,
		db:      eng.DB,
		log:     eng.Log,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", s.eng.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/users", s.handleRegisterUser)
		r.Get("/users/{userID}", s.handleGetUser)
		r.Get("/users/{userID}/sessions", s.handleListSessions)
		r.Get("/users/{userID}/surveys", s.handleListSurveys)

		r.Get("/conditions/{userID}", s.handleGetCondition)
		r.Put("/conditions/{userID}", s.handleSetCondition)

		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/{sessionID}", s.handleGetSession)
		r.Get("/sessions/{sessionID}/messages", s.handleListMessages)
		r.Post("/sessions/{sessionID}/end", s.handleEndSession)

		r.Get("/context", s.handleGetContext)

		r.Post("/surveys", s.handleSubmitSurvey)

		r.Post("/chat", s.handleChat)
		r.Post("/chat/stream", s.handleChatStream)

		r.Post("/memories", s.handleCreateMemory)
		r.Post("/memories/batch-update", s.handleBatchUpdate)
		r.Get("/memories/candidates/{userID}/{sessionID}", s.handleListCandidates)
		r.Get("/memories/{userID}", s.handleListMemories)
		r.Put("/memories/{memoryID}", s.handleUpdateMemory)
		r.Post("/memories/{memoryID}/approve", s.handleApproveMemory)
		r.Delete("/memories/{memoryID}", s.handleDeleteMemory)
	})

	s.router = r
}

// accessLog logs each request and counts it by route pattern.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.eng.Metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorStatus maps engine error categories to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrAlreadyEnded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", engine.ErrValidation)
	}
	return nil
}
