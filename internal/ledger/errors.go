package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies ledger failures.
type Kind string

// Error kinds.
const (
	KindNotFound          Kind = "not_found"
	KindTypeMismatch      Kind = "type_mismatch"
	KindAlreadyAssigned   Kind = "already_assigned"
	KindInsufficientStock Kind = "insufficient_stock"
	KindSameLocation      Kind = "same_location"
	KindLocationNotFound  Kind = "location_not_found"
	KindInvalidUser       Kind = "invalid_user"
	KindValidation        Kind = "validation"
	KindInternal          Kind = "internal"
)

// Error is a classified ledger failure. Message is safe to show to callers;
// Err carries the underlying cause for internal failures.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of err. Unclassified errors are internal; a nil
// error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether a caller may retry the same input.
func Retryable(err error) bool {
	return KindOf(err) == KindInternal
}

// PublicMessage returns a message for err that is safe to show to callers.
func PublicMessage(err error) string {
	if KindOf(err) == KindInternal {
		return "internal error"
	}
	return err.Error()
}
