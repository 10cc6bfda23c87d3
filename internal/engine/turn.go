package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/qwerty1432/Memory-Research/internal/llm"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

// FallbackReply stands in for the assistant when generation fails twice.
const FallbackReply = "Response unavailable. Please try again."

// maxGenerationAttempts is the first call plus one retry.
const maxGenerationAttempts = 2

// TurnRequest is one user message in an open session.
type TurnRequest struct {
	UserID    string
	SessionID string
	Message   string
}

// TurnResult is the reply plus every pending candidate of the session.
type TurnResult struct {
	Reply      string
	Fallback   bool
	Candidates []store.Memory
}

// Turn runs one conversation turn: context, reply, persistence, then
// best-effort candidate extraction.
func (e *Engine) Turn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	e.Metrics.TurnsTotal.WithLabelValues("sync").Inc()
	return e.turn(ctx, req, nil)
}

// TurnStream is Turn with the reply delivered to onToken as it is generated.
// A failed attempt is retried only if it emitted nothing.
func (e *Engine) TurnStream(ctx context.Context, req TurnRequest, onToken func(string)) (*TurnResult, error) {
	e.Metrics.TurnsTotal.WithLabelValues("stream").Inc()
	return e.turn(ctx, req, onToken)
}

func (e *Engine) turn(ctx context.Context, req TurnRequest, onToken func(string)) (*TurnResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is empty: %w", ErrValidation)
	}

	u, err := e.User(req.UserID)
	if err != nil {
		return nil, err
	}
	s, err := e.Session(req.SessionID)
	if err != nil {
		return nil, err
	}
	if s.UserID != u.ID {
		return nil, fmt.Errorf("session %s of user %s: %w", s.ID, u.ID, ErrNotFound)
	}
	if !s.Active() {
		return nil, fmt.Errorf("session %s: %w", s.ID, ErrAlreadyEnded)
	}

	contextText, err := e.BuildContext(u.ID, s.ID, u.Condition)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}

	e.record(u.ID, EventMessageSent, map[string]any{"session_id": s.ID, "message": req.Message})

	reply, fallback := e.generate(ctx, u.ID, s.ID, llm.ChatRequest(contextText, req.Message), onToken)

	if _, err := e.DB.AddMessage(s.ID, store.RoleUser, req.Message); err != nil {
		return nil, err
	}
	if _, err := e.DB.AddMessage(s.ID, store.RoleAssistant, reply); err != nil {
		return nil, err
	}
	e.record(u.ID, EventMessageReceived, map[string]any{"session_id": s.ID, "response": reply})

	e.extractCandidates(ctx, u, s.ID, req.Message)

	candidates, err := e.DB.ListCandidates(u.ID, s.ID)
	if err != nil {
		return nil, err
	}
	return &TurnResult{Reply: reply, Fallback: fallback, Candidates: candidates}, nil
}

// generate asks for a reply, retrying once. When both attempts fail it
// returns FallbackReply and true. A stream that fails after emitting
// returns the fragments the participant already saw, also with true.
func (e *Engine) generate(ctx context.Context, userID, sessionID string, req llm.Request, onToken func(string)) (string, bool) {
	emitted := false
	var shown strings.Builder
	for attempt := 1; attempt <= maxGenerationAttempts; attempt++ {
		callCtx, cancel := e.callContext(ctx)
		start := time.Now()

		var resp *llm.Response
		var err error
		if onToken == nil {
			resp, err = e.LLM.Complete(callCtx, req)
		} else {
			resp, err = e.LLM.Stream(callCtx, req, func(fragment string) {
				emitted = true
				shown.WriteString(fragment)
				onToken(fragment)
			})
		}
		cancel()
		e.Metrics.GenerationDuration.Observe(time.Since(start).Seconds())

		if err == nil && (resp == nil || strings.TrimSpace(resp.Content) == "") {
			err = llm.ErrEmptyResponse
		}
		if err == nil {
			return resp.Content, false
		}

		e.Metrics.GenerationFailuresTotal.WithLabelValues(strconv.Itoa(attempt)).Inc()
		e.Log.Warn().Err(err).Int("attempt", attempt).Str("user_id", userID).Str("session_id", sessionID).Msg("reply generation failed")
		e.record(userID, EventErrorChatAPI, map[string]any{
			"session_id": sessionID,
			"attempt":    attempt,
			"error":      err.Error(),
		})

		if emitted || ctx.Err() != nil {
			break
		}
	}

	e.Metrics.FallbackRepliesTotal.Inc()
	if emitted {
		return shown.String(), true
	}
	if onToken != nil {
		onToken(FallbackReply)
	}
	return FallbackReply, true
}

// extractCandidates proposes memories from the user's message and stores
// the ones that are not duplicates. Failures are logged, never returned.
func (e *Engine) extractCandidates(ctx context.Context, u *store.User, sessionID, message string) {
	scope := dedupScope(u.Condition, sessionID)

	fail := func(err error) {
		e.Metrics.ExtractionFailuresTotal.Inc()
		e.Log.Warn().Err(err).Str("user_id", u.ID).Str("session_id", sessionID).Msg("memory extraction failed")
		e.record(u.ID, EventErrorMemoryExtraction, map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}

	existing, err := e.DB.ListAllTexts(u.ID, scope)
	if err != nil {
		fail(err)
		return
	}

	callCtx, cancel := e.callContext(ctx)
	texts, err := e.extractor.Extract(callCtx, message, existing)
	cancel()
	if err != nil {
		fail(err)
		return
	}

	for _, text := range texts {
		dup, err := e.IsDuplicate(text, u.ID, scope)
		if err != nil {
			fail(err)
			return
		}
		if dup {
			e.Metrics.DuplicatesSuppressedTotal.Inc()
			continue
		}
		m, err := e.DB.CreateSessionCandidate(u.ID, sessionID, text)
		if err != nil {
			fail(err)
			return
		}
		if m == nil {
			e.Log.Info().Str("user_id", u.ID).Str("session_id", sessionID).Msg("session ended during extraction, candidates dropped")
			return
		}
		e.Metrics.CandidatesCreatedTotal.Inc()
		e.record(u.ID, EventMemoryCreated, map[string]any{"memory_id": m.ID, "source": "extraction"})
	}
}
