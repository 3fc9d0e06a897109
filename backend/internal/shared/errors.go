// ============================================================================
// backend/internal/shared/errors.go
// Engine error taxonomy and its mapping onto gRPC status codes
// ============================================================================

package shared

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies an engine failure for callers.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindStore      ErrorKind = "store"
)

// Error is the structured error returned by every engine operation.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// GRPCStatus lets status.FromError translate engine errors directly.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.code(), e.Message)
}

func (e *Error) code() codes.Code {
	switch e.Kind {
	case KindValidation:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindConflict:
		return codes.AlreadyExists
	case KindStore:
		switch {
		case errors.Is(e.Err, context.DeadlineExceeded):
			return codes.DeadlineExceeded
		case errors.Is(e.Err, context.Canceled):
			return codes.Canceled
		}
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// NewValidationError reports malformed input.
func NewValidationError(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports a missing referenced entity.
func NewNotFoundError(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError reports a uniqueness violation that could not be resolved.
func NewConflictError(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewStoreError wraps a persistence failure. The cause stays reachable
// through errors.Is / errors.As.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindStore, Message: op + " failed", Err: err}
}

// KindOf returns the kind of an engine error, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Message returns the human-readable part of an engine error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// MsgStudentNotFound is the message used whenever a roster lookup fails.
const MsgStudentNotFound = "Student not found"
