package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/cadence/internal/app"
	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/types"
)

const maxBodyBytes = 1 << 20

// EventsHandler handles event intents.
type EventsHandler struct {
	deps Dependencies
	loc  *time.Location
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies, loc *time.Location) *EventsHandler {
	return &EventsHandler{deps: deps, loc: loc}
}

// HandleList handles GET /events?type=&status=&from=&to=.
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_events"
	c, err := parseCriteria(r.URL.Query(), h.loc)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadQuery, err))
		return
	}
	events := h.deps.Filter(r.Context(), c)
	out := listResponse{Count: len(events), Events: make([]eventResponse, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, toResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreate handles POST /events.
func (h *EventsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_event"
	var draft model.EventDraft
	if err := decodeBody(w, r, &draft); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	ev, err := h.deps.Create(r.Context(), draft)
	if !writeMutation(w, http.StatusCreated, ev, err) {
		writeFailure(w, Wrap(op, err))
	}
}

// HandleGet handles GET /events/{id}.
func (h *EventsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ev, err := h.deps.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.get_event", err))
		return
	}
	writeJSON(w, http.StatusOK, toResponse(ev))
}

// HandleTransition handles POST /events/{id}/status.
func (h *EventsHandler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	const op = "api.transition_event"
	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	status := types.EventStatus(strings.TrimSpace(req.Status))
	ev, err := h.deps.Transition(r.Context(), r.PathValue("id"), status)
	if !writeMutation(w, http.StatusOK, ev, err) {
		writeFailure(w, Wrap(op, err))
	}
}

// HandleDelete handles DELETE /events/{id}.
func (h *EventsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.deps.Delete(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrRefreshFailed):
		setStaleWarning(w)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeFailure(w, Wrap("api.delete_event", err))
	}
}

// HandleRefresh handles POST /events/refresh.
func (h *EventsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.Refresh(r.Context())
	if err != nil {
		writeFailure(w, Wrap("api.refresh_events", err))
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Count: n})
}

// writeMutation writes a successful mutation, including one whose refetch
// failed. It reports false when err must be written as a failure instead.
func writeMutation(w http.ResponseWriter, status int, ev model.CalendarEvent, err error) bool {
	switch {
	case err == nil:
		writeJSON(w, status, toResponse(ev))
		return true
	case errors.Is(err, service.ErrRefreshFailed) && ev.ID != "":
		setStaleWarning(w)
		writeJSON(w, status, toResponse(ev))
		return true
	case errors.Is(err, service.ErrRefreshFailed):
		var applied *service.AppliedError
		if !errors.As(err, &applied) {
			return false
		}
		setStaleWarning(w)
		writeJSON(w, http.StatusAccepted, appliedResponse{ID: applied.ID})
		return true
	}
	return false
}

func setStaleWarning(w http.ResponseWriter) {
	w.Header().Set("Warning", `199 - "working set not refreshed after mutation"`)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
