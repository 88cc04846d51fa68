package repository

import "errors"

// ErrNotFound is returned when an id is not in the working set.
var ErrNotFound = errors.New("event not found in working set")
