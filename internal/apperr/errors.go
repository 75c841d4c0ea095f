package apperr

import (
	"errors"
	"fmt"
)

// Kind represents the category of an error.
type Kind string

const (
	// KindTransientFetch indicates the data service failed or answered
	// success=false. Recovered locally with a placeholder or the last good state.
	KindTransientFetch Kind = "transient_fetch"
	// KindStaleContext indicates the rendering backend was revoked while an
	// operation was in flight.
	KindStaleContext Kind = "stale_context"
	// KindResourceGeneration indicates a cached visual could not be built.
	KindResourceGeneration Kind = "resource_generation"
	// KindProgrammer indicates an invalid level or address was passed in.
	KindProgrammer Kind = "programmer"
	// KindInternal is the fallback for unclassified errors.
	KindInternal Kind = "internal"
)

// Error is the base error type for the view core.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient wraps a data-service failure.
func Transient(op, message string, err error) error {
	return &Error{Kind: KindTransientFetch, Op: op, Message: message, Err: err}
}

// Stale wraps an access to a revoked render context.
func Stale(op string, err error) error {
	return &Error{Kind: KindStaleContext, Op: op, Message: "render context revoked", Err: err}
}

// ResourceGeneration wraps a failure to build a cached visual.
func ResourceGeneration(op, message string, err error) error {
	return &Error{Kind: KindResourceGeneration, Op: op, Message: message, Err: err}
}

// Programmerf creates a programmer error with formatting.
func Programmerf(op, format string, args ...any) error {
	return &Error{Kind: KindProgrammer, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsTransient reports whether err is a transient fetch failure.
func IsTransient(err error) bool { return err != nil && KindOf(err) == KindTransientFetch }

// IsStale reports whether err is a stale render context access.
func IsStale(err error) bool { return err != nil && KindOf(err) == KindStaleContext }

// IsResourceGeneration reports whether err is a resource generation failure.
func IsResourceGeneration(err error) bool {
	return err != nil && KindOf(err) == KindResourceGeneration
}

// IsProgrammer reports whether err is a programmer error.
func IsProgrammer(err error) bool { return err != nil && KindOf(err) == KindProgrammer }
