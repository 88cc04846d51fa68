package storeclient

import (
	"errors"
	"fmt"
)

// Sentinel kinds for store failures. Typed errors below match them with errors.Is.
var (
	ErrTransport   = errors.New("event store unreachable")
	ErrApplication = errors.New("event store rejected request")
	ErrNotFound    = errors.New("event not found")
)

// TransportError means no usable response was received. It is retryable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrTransport, e.Err)
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
func (e *TransportError) Unwrap() error        { return e.Err }

// Retryable is always true for transport failures.
func (e *TransportError) Retryable() bool { return true }

// ApplicationError is a non-2xx response or a {success:false} envelope.
type ApplicationError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v (status %d)", e.Op, ErrApplication, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v (status %d): %s", e.Op, ErrApplication, e.StatusCode, e.Message)
}

func (e *ApplicationError) Is(target error) bool { return target == ErrApplication }

// ClientError reports whether the store blamed the request (4xx).
func (e *ApplicationError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// NotFoundError reports a stale or deleted event id.
type NotFoundError struct {
	ID      string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("event %q: %v", e.ID, ErrNotFound)
	}
	return fmt.Sprintf("event %q: %v: %s", e.ID, ErrNotFound, e.Message)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
