package model

import (
	"errors"
	"fmt"
)

// Kind discriminates the failure classes of the pipeline.
// Only MalformedInput aborts a run; everything else degrades.
type Kind int

const (
	KindUnknown Kind = iota
	KindMalformedInput
	KindOracleFailure
	KindValidationFailure
	KindLookupMiss
)

func (k Kind) String() string {
	switch k {
	case KindMalformedInput:
		return "malformed_input"
	case KindOracleFailure:
		return "oracle_failure"
	case KindValidationFailure:
		return "validation_failure"
	case KindLookupMiss:
		return "lookup_miss"
	default:
		return "unknown"
	}
}

// Error carries a failure kind so callers branch on data, not on
// control flow. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error from a format string
func NewError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// WrapError attaches a kind and operation to an underlying error
func WrapError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the failure kind from an error chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
