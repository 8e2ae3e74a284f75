// Package outcome carries the result of a call to an external collaborator
// (record store, model service) without relying on error values alone to
// distinguish "degraded, use a default" from "broken, stop".
package outcome

import "fmt"

// Kind classifies a collaborator call.
type Kind int

const (
	// KindOK means the call succeeded and Value is meaningful.
	KindOK Kind = iota
	// KindUnavailable means the collaborator could not be reached or had no
	// answer; callers substitute a safe default.
	KindUnavailable
	// KindFault means the collaborator failed in an unexpected way.
	KindFault
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindUnavailable:
		return "unavailable"
	case KindFault:
		return "fault"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is Ok(value) | Unavailable(err) | Fault(err).
type Result[T any] struct {
	Value T
	Kind  Kind
	Err   error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Kind: KindOK}
}

func Unavailable[T any](err error) Result[T] {
	return Result[T]{Kind: KindUnavailable, Err: err}
}

func Fault[T any](err error) Result[T] {
	return Result[T]{Kind: KindFault, Err: err}
}

// IsOK reports whether the call succeeded.
func (r Result[T]) IsOK() bool { return r.Kind == KindOK }

// ValueOr returns Value when the call succeeded and def otherwise.
func (r Result[T]) ValueOr(def T) T {
	if r.Kind == KindOK {
		return r.Value
	}
	return def
}
