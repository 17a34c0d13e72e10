package services

import (
	"errors"
	"strings"

	"podpipe/internal/store"
)

// Classification markers. Every error returned by a service wraps one of
// these so callers can branch with errors.Is.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// Error is a classified failure raised by one step of one stage.
type Error struct {
	Kind      error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	b.WriteString(": ")
	wrote := false
	for _, part := range []string{e.Stage, e.Operation, e.Message} {
		if part == "" {
			continue
		}
		if wrote {
			b.WriteString(": ")
		}
		b.WriteString(part)
		wrote = true
	}
	if !wrote {
		b.WriteString("service failure")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap builds an *Error. A nil kind is treated as ErrTransient.
func Wrap(kind error, stage, operation, message string, err error) error {
	if kind == nil {
		kind = ErrTransient
	}
	return &Error{
		Kind:      kind,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// FailureStatus maps an error to the status persisted for the affected row.
// Bad input, missing matches and configuration problems need a human and
// become review. Anything else is failed.
func FailureStatus(err error) store.Status {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return store.StatusReview
	default:
		return store.StatusFailed
	}
}
