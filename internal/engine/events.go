package engine

import "github.com/qwerty1432/Memory-Research/internal/store"

// Event types written to the research log.
const (
	EventMessageSent           = "message_sent"
	EventMessageReceived       = "message_received"
	EventMemoryCreated         = "memory_created"
	EventMemoryApproved        = "memory_approved"
	EventMemoryRejected        = "memory_rejected"
	EventMemoryEdited          = "memory_edited"
	EventMemoryDeleted         = "memory_deleted"
	EventSessionStarted        = "session_started"
	EventSessionEnded          = "session_ended"
	EventConditionAssigned     = "condition_assigned"
	EventConditionChanged      = "condition_changed"
	EventSurveySubmitted       = "survey_submitted"
	EventErrorChatAPI          = "error_chat_api"
	EventErrorMemoryExtraction = "error_memory_extraction"
)

// EventSink receives research log events. userID may be empty.
type EventSink interface {
	Record(userID, eventType string, payload map[string]any) error
}

type storeSink struct {
	db *store.DB
}

// StoreSink writes events to the events table.
func StoreSink(db *store.DB) EventSink {
	return storeSink{db: db}
}

func (s storeSink) Record(userID, eventType string, payload map[string]any) error {
	return s.db.AddEvent(userID, eventType, payload)
}

// record writes an event best effort. The log never fails the operation
// being logged.
func (e *Engine) record(userID, eventType string, payload map[string]any) {
	if err := e.Events.Record(userID, eventType, payload); err != nil {
		e.Log.Warn().Err(err).Str("event", eventType).Str("user_id", userID).Msg("record event")
	}
}
