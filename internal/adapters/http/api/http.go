// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	service "github.com/okian/cadence/internal/app"
	"github.com/okian/cadence/internal/domain/filter"
	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/types"
)

// Dependencies required by HTTP handlers. *service.Session satisfies it.
type Dependencies interface {
	Refresh(ctx context.Context) (int, error)
	Filter(ctx context.Context, c filter.Criteria) []model.CalendarEvent
	Get(ctx context.Context, id string) (model.CalendarEvent, error)
	Create(ctx context.Context, d model.EventDraft) (model.CalendarEvent, error)
	Transition(ctx context.Context, id string, status types.EventStatus) (model.CalendarEvent, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context) (service.Export, error)
	ExportFiltered(ctx context.Context, c filter.Criteria) (service.Export, error)
}

var _ Dependencies = (*service.Session)(nil)

// Option configures the Server.
type Option func(*Server)

// WithLocation sets the zone date-only query bounds are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Server wires HTTP routes for the scheduling API.
type Server struct {
	loc           *time.Location
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	eventsHandler *EventsHandler
	exportHandler *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.eventsHandler = NewEventsHandler(deps, s.loc)
	s.exportHandler = NewExportHandler(deps, s.loc)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /events", MetricsMiddleware(s.eventsHandler.HandleList, "events"))
	mux.HandleFunc("POST /events", MetricsMiddleware(s.eventsHandler.HandleCreate, "events"))
	mux.HandleFunc("POST /events/refresh", MetricsMiddleware(s.eventsHandler.HandleRefresh, "events_refresh"))
	mux.HandleFunc("GET /events/{id}", MetricsMiddleware(s.eventsHandler.HandleGet, "event"))
	mux.HandleFunc("DELETE /events/{id}", MetricsMiddleware(s.eventsHandler.HandleDelete, "event"))
	mux.HandleFunc("POST /events/{id}/status", MetricsMiddleware(s.eventsHandler.HandleTransition, "event_status"))

	mux.HandleFunc("GET /export", MetricsMiddleware(s.exportHandler.HandleExport, "export"))
}

// eventResponse is the wire record plus presentation hints.
type eventResponse struct {
	model.WireEvent
	TypeLabel       string `json:"type_label"`
	TypeColor       string `json:"type_color"`
	StatusLabel     string `json:"status_label"`
	StatusBadge     string `json:"status_badge"`
	DurationMinutes int    `json:"duration_minutes"`
}

func toResponse(e model.CalendarEvent) eventResponse {
	return eventResponse{
		WireEvent:       model.Serialize(e),
		TypeLabel:       e.Type.Label(),
		TypeColor:       e.Type.Color(),
		StatusLabel:     e.Status.Label(),
		StatusBadge:     e.Status.Badge(),
		DurationMinutes: int(e.Duration() / time.Minute),
	}
}

type listResponse struct {
	Count  int             `json:"count"`
	Events []eventResponse `json:"events"`
}

type refreshResponse struct {
	Count int `json:"count"`
}

type appliedResponse struct {
	ID string `json:"id"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Retryable bool                `json:"retryable,omitempty"`
	Fields    map[string][]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeErrorResponse(w, status, errorResponse{Code: code, Message: msg})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	noteErrorCode(w, resp.Code)
	writeJSON(w, status, resp)
}
