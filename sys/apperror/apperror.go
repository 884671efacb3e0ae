// Package apperror defines the failure kinds returned by the fulfillment
// operations. Handlers translate a Kind into a transport status; the
// operations themselves never know about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindForbidden         Kind = "FORBIDDEN"
	KindInvalidState      Kind = "INVALID_STATE"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindConflict          Kind = "CONFLICT"
	KindInvalidInput      Kind = "INVALID_INPUT"
)

// Error is a classified failure. From and To are only set for KindInvalidTransition.
type Error struct {
	Kind    Kind
	Message string
	From    string
	To      string
}

func (e *Error) Error() string {
	if e.Kind == KindInvalidTransition {
		return fmt.Sprintf("%s: %s (%s -> %s)", e.Kind, e.Message, e.From, e.To)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition[S ~string](from, to S) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: "booking status transition not allowed",
		From:    string(from),
		To:      string(to),
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" for unclassified errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// NotFoundIf classifies err as NotFound when it matches sentinel, and returns it unchanged otherwise
func NotFoundIf(err, sentinel error, format string, args ...any) error {
	if errors.Is(err, sentinel) {
		return NotFound(format, args...)
	}
	return err
}

// ConflictIf classifies err as Conflict when it matches sentinel, and returns it unchanged otherwise
func ConflictIf(err, sentinel error, format string, args ...any) error {
	if errors.Is(err, sentinel) {
		return Conflict(format, args...)
	}
	return err
}
