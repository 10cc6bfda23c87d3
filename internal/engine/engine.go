package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/qwerty1432/Memory-Research/internal/condition"
	"github.com/qwerty1432/Memory-Research/internal/llm"
	"github.com/qwerty1432/Memory-Research/internal/metrics"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

// DefaultTimeout bounds each generation call when none is configured.
const DefaultTimeout = 60 * time.Second

// Engine owns the memory lifecycle: session rotation, context assembly,
// conversation turns, candidate extraction and review.
type Engine struct {
	DB      *store.DB
	LLM     llm.Client
	Events  EventSink
	Metrics *metrics.Metrics
	Log     zerolog.Logger

	// DefaultCondition is assigned to users registered without one.
	DefaultCondition condition.Condition
	// Timeout bounds each generation call.
	Timeout time.Duration

	extractor *Extractor
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.Log = l }
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.Metrics = m }
}

// WithEvents replaces the store-backed event sink.
func WithEvents(s EventSink) Option {
	return func(e *Engine) { e.Events = s }
}

// WithDefaultCondition sets the condition for registrations that name none.
func WithDefaultCondition(c condition.Condition) Option {
	return func(e *Engine) { e.DefaultCondition = c }
}

// WithTimeout bounds each generation call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.Timeout = d }
}

// New creates a new Engine.
func New(db *store.DB, client llm.Client, opts ...Option) *Engine {
	e := &Engine{
		DB:               db,
		LLM:              client,
		Log:              zerolog.Nop(),
		DefaultCondition: condition.SessionAuto,
		Timeout:          DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Events == nil {
		e.Events = StoreSink(db)
	}
	if e.Metrics == nil {
		e.Metrics = metrics.New()
	}
	e.extractor = &Extractor{LLM: client}
	return e
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.Timeout)
}
