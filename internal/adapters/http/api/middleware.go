package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/cadence/pkg/metrics"
)

// Error codes written in errorResponse.Code.
const (
	codeValidationFailed    = "validation_failed"
	codeNotFound            = "not_found"
	codeBadRequest          = "bad_request"
	codeUpstreamUnavailable = "upstream_unavailable" // store unreachable, retryable
	codeUpstreamRejected    = "upstream_rejected"    // store refused the request (4xx)
	codeUpstreamError       = "upstream_error"       // store failed or answered garbage
	codeInternalError       = "internal_error"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
// Failures are labelled with the error code the handler wrote, so store
// outages and store rejections are counted apart.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		statusCodeStr := strconv.Itoa(wrapped.statusCode)

		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)

		if wrapped.statusCode >= http.StatusBadRequest {
			errorType := wrapped.errorCode
			if errorType == "" {
				errorType = errorTypeForStatus(wrapped.statusCode)
			}
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
			metrics.RecordErrorByType(errorType, errorSeverity(errorType))
		}
	}
}

// errorTypeForStatus classifies responses written without an error code,
// such as the mux's own 404 and 405 replies.
func errorTypeForStatus(statusCode int) string {
	switch {
	case statusCode == http.StatusNotFound:
		return codeNotFound
	case statusCode == http.StatusBadGateway:
		return codeUpstreamError
	case statusCode >= http.StatusInternalServerError:
		return codeInternalError
	default:
		return codeBadRequest
	}
}

// errorSeverity ranks failures by who has to act: the caller fixes
// rejections, an operator looks at outages.
func errorSeverity(errorType string) string {
	switch errorType {
	case codeInternalError, codeUpstreamUnavailable:
		return "high"
	case codeUpstreamError:
		return "medium"
	default:
		return "low"
	}
}

// responseWriter wraps http.ResponseWriter to capture the status and error code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	errorCode  string
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// noteErrorCode hands the response's error code to MetricsMiddleware.
func noteErrorCode(w http.ResponseWriter, code string) {
	if rw, ok := w.(*responseWriter); ok {
		rw.errorCode = code
	}
}
