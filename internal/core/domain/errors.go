package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is; services never return them bare,
// they always arrive wrapped in an *OpError.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateUser     = errors.New("user already exists")
	ErrNotFound          = errors.New("not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token expired")
	ErrImmutableField    = errors.New("immutable field")
	ErrMissingSigningKey = errors.New("missing signing key")
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
)

// OpError describes a failed operation. Kind is one of the sentinels above,
// Err is the optional underlying cause (jwt parser error, I/O error, ...).
type OpError struct {
	Op     string
	Kind   error
	Detail string
	Err    error
}

func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op + ": " + e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Fail builds an *OpError without an underlying cause.
func Fail(op string, kind error, detail string) error {
	return &OpError{Op: op, Kind: kind, Detail: detail}
}

// Failf is Fail with a formatted detail.
func Failf(op string, kind error, format string, args ...any) error {
	return &OpError{Op: op, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and op to cause. When cause already carries a kind
// (an *OpError from a lower layer) it is returned unchanged so the original
// kind and operation survive propagation.
func Wrap(op string, kind error, cause error) error {
	var oe *OpError
	if errors.As(cause, &oe) {
		return cause
	}
	return &OpError{Op: op, Kind: kind, Err: cause}
}

// KindOf returns the sentinel kind carried by err, or nil when err is not
// an *OpError.
func KindOf(err error) error {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return nil
}
