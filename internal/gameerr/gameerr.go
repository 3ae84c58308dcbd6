// Package gameerr defines the error taxonomy shared by the engine packages.
//
// Every rejection the engine reports carries a Kind. Callers match on kind
// with errors.Is against the exported sentinels:
//
//	if errors.Is(err, gameerr.ErrInvalidAction) { ... }
package gameerr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error.
type Kind string

const (
	// KindContentIntegrity marks broken content: a missing scene or a
	// malformed effect descriptor. Not recoverable by retrying.
	KindContentIntegrity Kind = "content_integrity"
	// KindInvalidAction marks an action that violates turn or choice rules.
	KindInvalidAction Kind = "invalid_action"
	// KindResourceExhaustion marks a spend the player cannot afford.
	KindResourceExhaustion Kind = "resource_exhaustion"
)

// Error is an engine error with a kind, a message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Sentinels for errors.Is matching. Only the Kind is compared.
var (
	ErrContentIntegrity   = &Error{Kind: KindContentIntegrity}
	ErrInvalidAction      = &Error{Kind: KindInvalidAction}
	ErrResourceExhaustion = &Error{Kind: KindResourceExhaustion}
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// ContentIntegrity builds a content integrity error.
func ContentIntegrity(format string, args ...any) *Error {
	return &Error{Kind: KindContentIntegrity, Message: fmt.Sprintf(format, args...)}
}

// InvalidAction builds an invalid action error.
func InvalidAction(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidAction, Message: fmt.Sprintf(format, args...)}
}

// ResourceExhaustion builds a resource exhaustion error.
func ResourceExhaustion(format string, args ...any) *Error {
	return &Error{Kind: KindResourceExhaustion, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of err, or "" when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
