package service_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/okian/cadence/internal/adapters/storeclient"
	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/types"
)

// fakeStore is an in-memory event store with failure injection.
type fakeStore struct {
	mu      sync.Mutex
	records []model.WireEvent
	nextID  int
	calls   map[string]int

	listErr   error
	createErr error
	updateErr error
	deleteErr error
	exportErr error
	blob      []byte

	// failListAfterMutation makes every List after a successful mutation fail.
	failListAfterMutation error
	// echoHook edits the record a mutation returns, not the stored one.
	echoHook func(w *model.WireEvent)
	// listHook runs after List took its snapshot and before it returns.
	listHook func(snapshot []model.WireEvent)
}

func newFakeStore(records ...model.WireEvent) *fakeStore {
	return &fakeStore{records: records, nextID: 100, calls: map[string]int{}}
}

func wire(id string, et types.EventType, st types.EventStatus, start string, end string) model.WireEvent {
	w := model.WireEvent{
		ID:     model.FlexID(id),
		Title:  "event " + id,
		Start:  start,
		End:    end,
		Type:   et.String(),
		Status: st.String(),
	}
	if et == types.EventTypeInterview {
		w.CandidateName = "Candidate " + id
	}
	return w
}

func (f *fakeStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) serverStatus(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID.String() == id {
			return r.Status
		}
	}
	return ""
}

func (f *fakeStore) mutated() {
	if f.failListAfterMutation != nil {
		f.listErr = f.failListAfterMutation
	}
}

func (f *fakeStore) List(_ context.Context) ([]model.WireEvent, error) {
	f.mu.Lock()
	f.calls["list"]++
	if f.listErr != nil {
		err := f.listErr
		f.mu.Unlock()
		return nil, err
	}
	snapshot := slices.Clone(f.records)
	hook := f.listHook
	f.mu.Unlock()

	if hook != nil {
		hook(snapshot)
	}
	return snapshot, nil
}

func (f *fakeStore) Create(_ context.Context, p model.CreatePayload) (model.WireEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if f.createErr != nil {
		return model.WireEvent{}, f.createErr
	}
	f.nextID++
	w := model.WireEvent{
		ID:             model.FlexID(fmt.Sprint(f.nextID)),
		Title:          p.Title,
		Description:    p.Description,
		Start:          p.Start,
		End:            p.End,
		Type:           p.Type,
		Status:         p.Status.String(),
		Location:       p.Location,
		CandidateName:  p.CandidateName,
		CandidateEmail: p.CandidateEmail,
		JobID:          p.JobID,
		CreatedAt:      "2024-01-01T00:00:00Z",
		UpdatedAt:      "2024-01-01T00:00:00Z",
	}
	f.records = append(f.records, w)
	f.mutated()
	if f.echoHook != nil {
		f.echoHook(&w)
	}
	return w, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id string, status types.EventStatus) (model.WireEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	if f.updateErr != nil {
		return model.WireEvent{}, f.updateErr
	}
	for i := range f.records {
		if f.records[i].ID.String() == id {
			f.records[i].Status = status.String()
			f.mutated()
			return f.records[i], nil
		}
	}
	return model.WireEvent{}, &storeclient.NotFoundError{ID: id}
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.records {
		if f.records[i].ID.String() == id {
			f.records = slices.Delete(f.records, i, i+1)
			f.mutated()
			return nil
		}
	}
	return &storeclient.NotFoundError{ID: id}
}

func (f *fakeStore) ExportAll(_ context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["export"]++
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return f.blob, nil
}
