package repository

import (
	"time"

	"github.com/okian/cadence/internal/domain/model"
)

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithEvents seeds the store with an initial working set.
func WithEvents(events []model.CalendarEvent) Option {
	return func(s *SnapshotStore) {
		s.seed = events
	}
}

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *SnapshotStore) {
		if now != nil {
			s.now = now
		}
	}
}
