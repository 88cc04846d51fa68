package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/cadence/internal/adapters/ics"
	"github.com/okian/cadence/internal/adapters/storeclient"
	service "github.com/okian/cadence/internal/app"
	"github.com/okian/cadence/internal/domain/types"
	"github.com/okian/cadence/internal/domain/validation"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrBadQuery   = errors.New("invalid query parameter")
)

// Error tags an underlying error with the operation and kind that produced it.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return e.Op
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap attaches op to err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind attaches op and kind to err.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// writeFailure maps domain and store errors to HTTP responses.
func writeFailure(w http.ResponseWriter, err error) {
	var (
		ve     *validation.ValidationError
		appErr *storeclient.ApplicationError
	)
	switch {
	case errors.As(err, &ve):
		writeErrorResponse(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    codeValidationFailed,
			Message: validation.ErrValidation.Error(),
			Fields:  ve.Fields,
		})
	case errors.Is(err, storeclient.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err)
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrBadQuery),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, types.ErrUnknownEventType), errors.Is(err, types.ErrUnknownEventStatus):
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
	case errors.Is(err, storeclient.ErrTransport):
		writeErrorResponse(w, http.StatusBadGateway, errorResponse{
			Code:      codeUpstreamUnavailable,
			Message:   err.Error(),
			Retryable: true,
		})
	case errors.As(err, &appErr):
		if appErr.ClientError() {
			writeErrorResponse(w, http.StatusBadRequest, errorResponse{Code: codeUpstreamRejected, Message: appErr.Message})
			return
		}
		writeErrorResponse(w, http.StatusBadGateway, errorResponse{Code: codeUpstreamError, Message: appErr.Message})
	case errors.Is(err, ics.ErrInvalidCalendar):
		writeError(w, http.StatusBadGateway, codeUpstreamError, err)
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, err)
	}
}
