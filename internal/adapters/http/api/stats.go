package api

import (
	"net/http"
)

// StatsProvider reports working-set counters. *service.Session implements it.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves session statistics.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats. Counts change on every refetch, so
// responses are never cached.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}
