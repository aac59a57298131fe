// Package apperr defines the error taxonomy shared by the event and
// notification stores and the expiry engine.
//
// Validation and not-found errors are returned to the direct caller of a
// store operation. InternalFault only exists inside a scan: the engine logs
// and counts it and moves on to the next event.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound matches any *NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
)

// FieldError is one violated field on a draft.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries every field violation found on a draft, so a form
// layer can render all messages at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add records a violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field was among the violations.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Message returns the message recorded for field, or "".
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// OrNil returns nil when no violations were recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NotFoundError reports an unknown event or notification ID.
type NotFoundError struct {
	Kind string // "event" or "notification"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// InternalFault wraps an unexpected failure while processing one event in a
// scan. Panics recovered by the engine are converted into faults as well.
type InternalFault struct {
	Op      string
	EventID string
	Err     error
}

func (e *InternalFault) Error() string {
	return fmt.Sprintf("internal fault during %s for event %q: %v", e.Op, e.EventID, e.Err)
}

func (e *InternalFault) Unwrap() error {
	return e.Err
}

// Fault builds an InternalFault.
func Fault(op, eventID string, err error) *InternalFault {
	return &InternalFault{Op: op, EventID: eventID, Err: err}
}
