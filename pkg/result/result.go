package result

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies why an external call failed.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindBadRequest Kind = "bad_request"
	KindUpstream   Kind = "upstream"
	KindTimeout    Kind = "timeout"
	KindCaller     Kind = "caller"
	KindDecode     Kind = "decode"
)

// Retryable reports whether a failure of this kind may succeed on a later attempt.
func (k Kind) Retryable() bool {
	return k == KindUpstream || k == KindTimeout
}

// Error is the failure side of a Result.
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Result is either Ok(value) or Err(error). Callers must check IsOk before
// reading Value.
type Result[T any] struct {
	value T
	err   *Error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Err[T any](kind Kind, reason string, cause error) Result[T] {
	return Result[T]{err: &Error{Kind: kind, Reason: reason, Cause: cause}}
}

// FromError converts an arbitrary error into a failed Result, classifying
// context deadline and cancellation as timeouts.
func FromError[T any](reason string, err error) Result[T] {
	var re *Error
	if errors.As(err, &re) {
		return Result[T]{err: re}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Err[T](KindTimeout, reason, err)
	}
	return Err[T](KindUpstream, reason, err)
}

func (r Result[T]) IsOk() bool {
	return r.err == nil
}

func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Error() *Error {
	return r.err
}

// Unwrap returns the value and a plain error for code that prefers the
// (value, error) form.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// IsKind reports whether err carries a result error of the given kind.
func IsKind(err error, kind Kind) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == kind
}
