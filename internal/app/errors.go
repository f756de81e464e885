package app

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrQueryEmpty   = fmt.Errorf("%w: query is empty", ErrInvalidInput)
	ErrNotFound     = errors.New("not found")
	ErrHistoryEmpty = errors.New("no chat history to export")
	ErrAgent        = errors.New("agent error")
	ErrIngestion    = errors.New("ingestion error")
)

// IngestionError reports a failed analysis for a material that was already
// persisted. It matches both ErrIngestion and the underlying cause.
type IngestionError struct {
	MaterialID uint
	Err        error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("analysis failed for material %d: %v", e.MaterialID, e.Err)
}

func (e *IngestionError) Unwrap() []error {
	return []error{ErrIngestion, e.Err}
}
