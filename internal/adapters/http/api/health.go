package api

import (
	"net/http"

	"github.com/okian/cadence/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler serves the scheduler's metrics registry as its liveness probe.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler creates a new health handler over the custom registry.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{
			ErrorHandling: promhttp.ContinueOnError,
		}),
	}
}

// HandleHealth handles GET /healthz.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	h.metrics.ServeHTTP(w, r)
}
