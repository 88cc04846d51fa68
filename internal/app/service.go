// Package service runs a scheduling session: it owns the working set of
// calendar events and applies user intents against the remote event store.
//
// Every mutation is followed by a full refetch. The working set is never
// patched locally, so a failed request leaves it exactly as it was.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/cadence/internal/adapters/ics"
	"github.com/okian/cadence/internal/adapters/repository"
	"github.com/okian/cadence/internal/adapters/storeclient"
	"github.com/okian/cadence/internal/domain/filter"
	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/types"
	"github.com/okian/cadence/internal/domain/validation"
	"github.com/okian/cadence/pkg/logger"
	"github.com/okian/cadence/pkg/metrics"
)

// Store is the remote event store. *storeclient.Client implements it.
type Store interface {
	List(ctx context.Context) ([]model.WireEvent, error)
	Create(ctx context.Context, p model.CreatePayload) (model.WireEvent, error)
	UpdateStatus(ctx context.Context, id string, status types.EventStatus) (model.WireEvent, error)
	Delete(ctx context.Context, id string) error
	ExportAll(ctx context.Context) ([]byte, error)
}

var _ Store = (*storeclient.Client)(nil)

// Export is a calendar file ready for download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
	Summary     ics.Summary
}

// Session holds one employer's working set.
type Session struct {
	store     Store
	events    repository.Store
	logger    logger.Logger
	loc       *time.Location
	icsDomain string
	now       func() time.Time

	mu             sync.RWMutex
	lastRefresh    time.Time
	lastRefreshErr error
	dropped        int
}

// New constructs a session over store with an empty working set.
func New(store Store, opts ...Option) *Session {
	s := &Session{
		store:     store,
		events:    repository.NewSnapshotStore(),
		logger:    logger.NewNop(),
		loc:       time.UTC,
		icsDomain: "cadence.local",
		now:       time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh refetches the full event set and replaces the working set.
// On failure the working set is left unchanged.
func (s *Session) Refresh(ctx context.Context) (int, error) {
	raws, err := s.store.List(ctx)
	if err != nil {
		metrics.RecordRefresh("error")
		s.mu.Lock()
		s.lastRefreshErr = err
		s.mu.Unlock()
		return 0, fmt.Errorf("refresh working set: %w", err)
	}

	events, dropped := model.NormalizeAll(ctx, raws, s.logger)
	version := s.events.Replace(ctx, events)
	metrics.RecordRefresh(metrics.OutcomeSuccess)

	s.mu.Lock()
	s.lastRefresh = s.now()
	s.lastRefreshErr = nil
	s.dropped = len(dropped)
	s.mu.Unlock()

	s.logger.Debug(ctx, "working set refreshed",
		logger.Int("events", len(events)),
		logger.Int("dropped", len(dropped)),
		logger.Int64("version", int64(version)),
	)
	return len(events), nil
}

// Events returns the working set in store order.
func (s *Session) Events(ctx context.Context) []model.CalendarEvent {
	return s.events.All(ctx)
}

// Filter returns the events of the working set matching c.
func (s *Session) Filter(ctx context.Context, c filter.Criteria) []model.CalendarEvent {
	out := filter.Apply(s.events.All(ctx), c)
	metrics.RecordFilterEvaluation(len(out))
	return out
}

// Get returns one event of the working set or a *storeclient.NotFoundError.
func (s *Session) Get(ctx context.Context, id string) (model.CalendarEvent, error) {
	ev, err := s.events.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.CalendarEvent{}, &storeclient.NotFoundError{ID: id, Message: "not in working set"}
	}
	return ev, err
}

// Create validates d, submits it and refetches. The returned event is read
// back from the refreshed working set when present.
func (s *Session) Create(ctx context.Context, d model.EventDraft) (model.CalendarEvent, error) {
	payload, err := validation.Compose(d, validation.WithLocation(s.loc))
	if err != nil {
		var ve *validation.ValidationError
		if errors.As(err, &ve) {
			for field := range ve.Fields {
				metrics.RecordValidationFailure(field)
			}
		}
		return model.CalendarEvent{}, err
	}

	created, err := s.store.Create(ctx, payload)
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info(ctx, "event created",
		logger.String("id", created.ID.String()),
		logger.String("type", payload.Type),
	)

	echoed, normErr := model.Normalize(created)
	return s.settle(ctx, created.ID.String(), echoed, normErr)
}

// Transition sets the status of id. Any status may follow any other,
// including itself.
func (s *Session) Transition(ctx context.Context, id string, status types.EventStatus) (model.CalendarEvent, error) {
	if !status.Valid() {
		metrics.RecordTransition("invalid", "rejected")
		return model.CalendarEvent{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	before, err := s.Get(ctx, id)
	if err != nil {
		metrics.RecordTransition(status.String(), metrics.OutcomeNotFound)
		return model.CalendarEvent{}, err
	}

	updated, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		metrics.RecordTransition(status.String(), "error")
		s.logger.Warn(ctx, "status transition failed",
			logger.String("id", id),
			logger.String("from", before.Status.String()),
			logger.String("to", status.String()),
			logger.Error(err),
		)
		return model.CalendarEvent{}, fmt.Errorf("transition event %s: %w", id, err)
	}
	metrics.RecordTransition(status.String(), metrics.OutcomeSuccess)
	s.logger.Info(ctx, "event status changed",
		logger.String("id", id),
		logger.String("from", before.Status.String()),
		logger.String("to", status.String()),
	)

	echoed, normErr := model.Normalize(updated)
	return s.settle(ctx, id, echoed, normErr)
}

// Complete marks id completed.
func (s *Session) Complete(ctx context.Context, id string) (model.CalendarEvent, error) {
	return s.Transition(ctx, id, types.EventStatusCompleted)
}

// Cancel marks id cancelled.
func (s *Session) Cancel(ctx context.Context, id string) (model.CalendarEvent, error) {
	return s.Transition(ctx, id, types.EventStatusCancelled)
}

// Reschedule marks id rescheduled.
func (s *Session) Reschedule(ctx context.Context, id string) (model.CalendarEvent, error) {
	return s.Transition(ctx, id, types.EventStatusRescheduled)
}

// Reopen moves id back to scheduled.
func (s *Session) Reopen(ctx context.Context, id string) (model.CalendarEvent, error) {
	return s.Transition(ctx, id, types.EventStatusScheduled)
}

// Delete removes id from the store and refetches. Deletion is terminal.
func (s *Session) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	s.logger.Info(ctx, "event deleted", logger.String("id", id))

	if _, err := s.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return nil
}

// Export downloads the store's calendar file and checks it parses.
func (s *Session) Export(ctx context.Context) (Export, error) {
	blob, err := s.store.ExportAll(ctx)
	if err != nil {
		metrics.RecordExport("store", "error")
		return Export{}, fmt.Errorf("export calendar: %w", err)
	}
	summary, err := ics.Inspect(blob)
	if err != nil {
		metrics.RecordExport("store", "invalid")
		return Export{}, fmt.Errorf("export calendar: %w", err)
	}
	metrics.RecordExport("store", metrics.OutcomeSuccess)
	return Export{Filename: ics.Filename, ContentType: ics.ContentType, Data: blob, Summary: summary}, nil
}

// ExportBlob returns only the bytes of Export.
func (s *Session) ExportBlob(ctx context.Context) ([]byte, error) {
	exp, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	return exp.Data, nil
}

// ExportFiltered renders the filtered working set locally.
func (s *Session) ExportFiltered(ctx context.Context, c filter.Criteria) (Export, error) {
	events := s.Filter(ctx, c)
	blob, err := ics.Render(events, ics.WithDomain(s.icsDomain), ics.WithClock(s.now))
	if err != nil {
		metrics.RecordExport("local", "error")
		return Export{}, fmt.Errorf("render calendar: %w", err)
	}
	metrics.RecordExport("local", metrics.OutcomeSuccess)
	summary := ics.Summary{Events: len(events), Bytes: len(blob)}
	return Export{Filename: ics.Filename, ContentType: ics.ContentType, Data: blob, Summary: summary}, nil
}

// GetStats returns session statistics for monitoring.
func (s *Session) GetStats() map[string]interface{} {
	ctx := context.Background()
	events := s.events.All(ctx)

	byType := make(map[string]int, len(types.AllEventTypes()))
	for _, t := range types.AllEventTypes() {
		byType[t.String()] = 0
	}
	byStatus := make(map[string]int, len(types.AllEventStatuses()))
	for _, st := range types.AllEventStatuses() {
		byStatus[st.String()] = 0
	}
	for _, e := range events {
		byType[e.Type.String()]++
		byStatus[e.Status.String()]++
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"events":         len(events),
		"version":        s.events.Version(),
		"byType":         byType,
		"byStatus":       byStatus,
		"droppedRecords": s.dropped,
	}
	if !s.lastRefresh.IsZero() {
		stats["lastRefresh"] = s.lastRefresh.UTC().Format(time.RFC3339)
	}
	if s.lastRefreshErr != nil {
		stats["lastRefreshError"] = s.lastRefreshErr.Error()
	}
	return stats
}

// settle refetches after a successful mutation and returns the event with id
// as read back from the store. echoed is the mutation response, used when the
// refreshed set does not contain id.
func (s *Session) settle(ctx context.Context, id string, echoed model.CalendarEvent, normErr error) (model.CalendarEvent, error) {
	if _, err := s.Refresh(ctx); err != nil {
		if normErr != nil {
			return model.CalendarEvent{}, &AppliedError{ID: id, Err: fmt.Errorf("%w: %w", ErrRefreshFailed, err)}
		}
		return echoed, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if ev, err := s.events.Get(ctx, id); err == nil {
		return ev, nil
	}
	if normErr != nil {
		return model.CalendarEvent{}, fmt.Errorf("read back event %s: %w", id, normErr)
	}
	return echoed, nil
}
