// Package repository holds the canonical in-memory event set of a session.
package repository

import (
	"context"

	"github.com/okian/cadence/internal/domain/model"
)

// Store provides access to the working set of calendar events.
// The set is only ever replaced wholesale, never patched.
type Store interface {
	// Replace publishes events as the new working set and returns its version.
	Replace(ctx context.Context, events []model.CalendarEvent) uint64

	// All returns the working set in store order.
	All(ctx context.Context) []model.CalendarEvent

	// Get returns the event with id.
	// Returns ErrNotFound if the id is not in the working set.
	Get(ctx context.Context, id string) (model.CalendarEvent, error)

	// Count returns the number of events in the working set.
	Count(ctx context.Context) int

	// Version increases by one on every Replace.
	Version() uint64
}
