package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEvent matches records with missing or unparsable fields.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrUnknownEnumValue matches records whose type or status is not declared.
	ErrUnknownEnumValue = errors.New("unknown enum value")
)

// MalformedEventError describes why a wire record could not be normalized.
type MalformedEventError struct {
	ID     string
	Field  string
	Reason string
	Err    error
}

func (e *MalformedEventError) Error() string {
	msg := fmt.Sprintf("malformed event %q: %s %s", e.ID, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrMalformedEvent) hold.
func (e *MalformedEventError) Is(target error) bool { return target == ErrMalformedEvent }

func (e *MalformedEventError) Unwrap() error { return e.Err }

// UnknownEnumValueError reports an undeclared type or status on a wire record.
type UnknownEnumValueError struct {
	ID    string
	Field string
	Value string
	Err   error
}

func (e *UnknownEnumValueError) Error() string {
	return fmt.Sprintf("event %q: unknown %s %q", e.ID, e.Field, e.Value)
}

// Is makes errors.Is(err, ErrUnknownEnumValue) hold.
func (e *UnknownEnumValueError) Is(target error) bool { return target == ErrUnknownEnumValue }

// Unwrap exposes types.ErrUnknownEventType or types.ErrUnknownEventStatus.
func (e *UnknownEnumValueError) Unwrap() error { return e.Err }
