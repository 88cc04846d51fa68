package service

import (
	"errors"
	"fmt"
)

var (
	// ErrRefreshFailed means a mutation reached the store but the following
	// refetch did not. The previous working set is kept.
	ErrRefreshFailed = errors.New("refresh after mutation failed")
	// ErrInvalidStatus is returned for a transition to an undeclared status.
	ErrInvalidStatus = errors.New("invalid event status")
)

// AppliedError reports a mutation the store accepted whose result could not
// be read back. ID names the affected event.
type AppliedError struct {
	ID  string
	Err error
}

func (e *AppliedError) Error() string {
	return fmt.Sprintf("event %s applied: %v", e.ID, e.Err)
}

func (e *AppliedError) Unwrap() error { return e.Err }
