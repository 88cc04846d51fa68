package repository

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/pkg/metrics"
)

// Snapshot is an immutable working set.
type Snapshot struct {
	Events  []model.CalendarEvent
	Version uint64
	TakenAt time.Time

	byID map[string]int
}

// SnapshotStore publishes working sets through an atomic pointer so readers
// never block and never see a half-built set.
type SnapshotStore struct {
	snapshot atomic.Pointer[Snapshot]
	version  atomic.Uint64

	now  func() time.Time
	seed []model.CalendarEvent
}

var _ Store = (*SnapshotStore)(nil)

// NewSnapshotStore constructs a store holding an empty or seeded set.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{now: time.Now}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	s.publish(s.seed)
	s.seed = nil
	return s
}

// Replace publishes a copy of events as the new working set.
func (s *SnapshotStore) Replace(_ context.Context, events []model.CalendarEvent) uint64 {
	return s.publish(events)
}

func (s *SnapshotStore) publish(events []model.CalendarEvent) uint64 {
	cp := slices.Clone(events)
	if cp == nil {
		cp = []model.CalendarEvent{}
	}
	byID := make(map[string]int, len(cp))
	for i, e := range cp {
		byID[e.ID] = i
	}

	snap := &Snapshot{
		Events:  cp,
		Version: s.version.Add(1),
		TakenAt: s.now(),
		byID:    byID,
	}
	s.snapshot.Store(snap)
	metrics.UpdateWorkingSetSize(len(cp))
	return snap.Version
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (s *SnapshotStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// All returns a copy of the working set.
func (s *SnapshotStore) All(_ context.Context) []model.CalendarEvent {
	return slices.Clone(s.snapshot.Load().Events)
}

// Get returns the event with id or ErrNotFound.
func (s *SnapshotStore) Get(_ context.Context, id string) (model.CalendarEvent, error) {
	snap := s.snapshot.Load()
	i, ok := snap.byID[id]
	if !ok {
		return model.CalendarEvent{}, ErrNotFound
	}
	return snap.Events[i], nil
}

// Count returns the size of the working set.
func (s *SnapshotStore) Count(_ context.Context) int {
	return len(s.snapshot.Load().Events)
}

// Version returns the version of the current snapshot.
func (s *SnapshotStore) Version() uint64 {
	return s.snapshot.Load().Version
}
