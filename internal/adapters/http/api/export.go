package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	service "github.com/okian/cadence/internal/app"
)

// ExportHandler serves calendar downloads.
type ExportHandler struct {
	deps Dependencies
	loc  *time.Location
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps Dependencies, loc *time.Location) *ExportHandler {
	return &ExportHandler{deps: deps, loc: loc}
}

// HandleExport handles GET /export. With source=local the filtered working
// set is rendered here; otherwise the store's own calendar is relayed.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	q := r.URL.Query()

	var (
		exp service.Export
		err error
	)
	switch source := q.Get("source"); source {
	case "", "store":
		exp, err = h.deps.Export(r.Context())
	case "local":
		c, perr := parseCriteria(q, h.loc)
		if perr != nil {
			writeFailure(w, WrapKind(op, ErrBadQuery, perr))
			return
		}
		exp, err = h.deps.ExportFiltered(r.Context(), c)
	default:
		writeFailure(w, WrapKind(op, ErrBadQuery, fmt.Errorf("unknown source %q", source)))
		return
	}
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.Header().Set("X-Calendar-Events", strconv.Itoa(exp.Summary.Events))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}
