package engine

import "errors"

// Error categories. Callers classify with errors.Is; the HTTP layer maps
// them to status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("invalid request")
	ErrAlreadyEnded = errors.New("session already ended")
)
