// Package simerrors defines the typed error taxonomy the simulator
// raises when a trace event fails validation.
package simerrors

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the category of validation failure, matching the
// taxonomy fixed by the specification.
type Kind string

const (
	ErrUnknownEventKind      Kind = "UNKNOWN_EVENT_KIND"
	ErrUnknownType           Kind = "UNKNOWN_TYPE"
	ErrUnknownContainer      Kind = "UNKNOWN_CONTAINER"
	ErrDuplicateType         Kind = "DUPLICATE_TYPE"
	ErrDuplicateContainer    Kind = "DUPLICATE_CONTAINER"
	ErrDuplicateValue        Kind = "DUPLICATE_VALUE"
	ErrNotContainerType      Kind = "NOT_CONTAINER_TYPE"
	ErrInvalidTypeForValue   Kind = "INVALID_TYPE_FOR_VALUE"
	ErrTypeKindMismatch      Kind = "TYPE_KIND_MISMATCH"
	ErrTypeHierarchyMismatch Kind = "TYPE_HIERARCHY_MISMATCH"
	ErrLinkEndpointMismatch  Kind = "LINK_ENDPOINT_TYPE_MISMATCH"
	ErrUnderflowPopState     Kind = "UNDERFLOW_POP_STATE"
	ErrOrphanLinkEnd         Kind = "ORPHAN_LINK_END"
	ErrInvalidColor          Kind = "INVALID_COLOR"
	ErrInvalidNumber         Kind = "INVALID_NUMBER"
)

// SimError is the standard error type the simulator core raises. Errors
// raised while handling a trace event carry that event's rendered text;
// errors from Finish and SetSelection carry none.
type SimError struct {
	Kind      Kind
	Message   string
	EventText string
	Cause     error
	Timestamp time.Time
}

func (e *SimError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.EventText != "" {
		msg += " (event: " + e.EventText + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SimError) Unwrap() error { return e.Cause }

func (e *SimError) Is(target error) bool {
	t, ok := target.(*SimError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithEventText attaches the offending event's debug rendering.
func (e *SimError) WithEventText(text string) *SimError {
	e.EventText = text
	return e
}

// New creates a SimError with the given kind and message.
func New(kind Kind, message string) *SimError {
	return &SimError{Kind: kind, Message: message, Timestamp: time.Now()}
}

// Newf creates a SimError with a formatted message.
func Newf(kind Kind, format string, args ...any) *SimError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error as the cause of a new SimError.
func Wrap(err error, kind Kind, message string) *SimError {
	if err == nil {
		return nil
	}
	return &SimError{Kind: kind, Message: message, Cause: err, Timestamp: time.Now()}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) *SimError {
	return Wrap(err, kind, fmt.Sprintf(format, args...))
}

// GetKind extracts the error Kind, or "" if err is not a *SimError.
func GetKind(err error) Kind {
	var se *SimError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// As is a thin wrapper around errors.As, for callers that only import simerrors.
func As(err error, target any) bool { return errors.As(err, target) }

// Is is a thin wrapper around errors.Is, for callers that only import simerrors.
func Is(err, target error) bool { return errors.Is(err, target) }
