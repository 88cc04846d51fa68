// Package storeclient talks to the remote calendar event store.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/types"
	"github.com/okian/cadence/pkg/logger"
	"github.com/okian/cadence/pkg/metrics"
)

// Operation names used in errors, logs and metrics.
const (
	OpList         = "list"
	OpCreate       = "create"
	OpUpdateStatus = "update_status"
	OpDelete       = "delete"
	OpExport       = "export"
)

const (
	eventsPath = "/calendar/events"
	exportPath = "/calendar/export"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20
)

// Client performs CRUD against the event store. Auth is fixed at construction.
type Client struct {
	baseURL      string
	http         Doer
	token        string
	employerID   string
	timeout      time.Duration
	maxBody      int64
	log          logger.Logger
	newRequestID func() string
}

// New creates a client for the store rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{},
		timeout:      defaultTimeout,
		maxBody:      maxBodyBytes,
		log:          logger.NewNop(),
		newRequestID: func() string { return uuid.NewString() },
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the {success, data} wrapper the store may put around payloads.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (e envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// List fetches every event of the employer.
func (c *Client) List(ctx context.Context) ([]model.WireEvent, error) {
	body, err := c.do(ctx, OpList, http.MethodGet, eventsPath, "", nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []model.WireEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, c.decodeErr(OpList, err)
		}
		return events, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, c.decodeErr(OpList, err)
	}
	if env.Success != nil && !*env.Success {
		return nil, &ApplicationError{Op: OpList, StatusCode: http.StatusOK, Message: env.message()}
	}
	var events []model.WireEvent
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, &events); err != nil {
			return nil, c.decodeErr(OpList, err)
		}
	}
	return events, nil
}

// Create posts a composed draft and returns the stored record.
func (c *Client) Create(ctx context.Context, p model.CreatePayload) (model.WireEvent, error) {
	body, err := c.do(ctx, OpCreate, http.MethodPost, eventsPath, "", p)
	if err != nil {
		return model.WireEvent{}, err
	}
	return c.decodeRecord(OpCreate, body)
}

// UpdateStatus sends a status-only update for id.
func (c *Client) UpdateStatus(ctx context.Context, id string, status types.EventStatus) (model.WireEvent, error) {
	body, err := c.do(ctx, OpUpdateStatus, http.MethodPost, eventPath(id), id, map[string]string{"status": status.String()})
	if err != nil {
		return model.WireEvent{}, err
	}
	return c.decodeRecord(OpUpdateStatus, body)
}

// Delete removes id from the store.
func (c *Client) Delete(ctx context.Context, id string) error {
	body, err := c.do(ctx, OpDelete, http.MethodDelete, eventPath(id), id, nil)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Success != nil && !*env.Success {
		return &ApplicationError{Op: OpDelete, StatusCode: http.StatusOK, Message: env.message()}
	}
	return nil
}

// ExportAll downloads the store's calendar file.
func (c *Client) ExportAll(ctx context.Context) ([]byte, error) {
	return c.do(ctx, OpExport, http.MethodGet, exportPath, "", nil)
}

func eventPath(id string) string {
	return eventsPath + "/" + url.PathEscape(id)
}

// do sends one request and returns the 2xx body. id is set for operations
// on a single event so a 404 becomes a NotFoundError.
func (c *Client) do(ctx context.Context, op, method, path, id string, payload any) ([]byte, error) {
	start := time.Now()
	body, err := c.roundTrip(ctx, op, method, path, id, payload)
	ms := float64(time.Since(start).Milliseconds())
	metrics.RecordStoreRequest(op, outcomeOf(err), ms)

	if err != nil {
		c.log.Warn(ctx, "event store request failed",
			logger.String("operation", op),
			logger.String("method", method),
			logger.String("path", path),
			logger.Float64("latency_ms", ms),
			logger.Error(err),
		)
		return nil, err
	}
	c.log.Debug(ctx, "event store request",
		logger.String("operation", op),
		logger.String("method", method),
		logger.String("path", path),
		logger.Float64("latency_ms", ms),
	)
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path, id string, payload any) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	c.setHeaders(req, op, payload != nil)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	oversized := int64(len(body)) > c.maxBody
	if oversized {
		body = body[:c.maxBody]
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if oversized {
			return nil, &ApplicationError{
				Op:         op,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("response exceeds %d bytes", c.maxBody),
			}
		}
		return body, nil
	}

	msg := errorMessage(body)
	if resp.StatusCode == http.StatusNotFound && id != "" {
		return nil, &NotFoundError{ID: id, Message: msg}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return nil, &ApplicationError{Op: op, StatusCode: resp.StatusCode, Message: msg}
}

func (c *Client) setHeaders(req *http.Request, op string, hasBody bool) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.employerID != "" {
		req.Header.Set("X-Employer-ID", c.employerID)
	}
	req.Header.Set("X-Request-ID", c.newRequestID())
	if op == OpExport {
		req.Header.Set("Accept", "text/calendar, application/octet-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

// decodeRecord accepts an enveloped or bare single record.
func (c *Client) decodeRecord(op string, body []byte) (model.WireEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return model.WireEvent{}, c.decodeErr(op, err)
	}
	if env.Success != nil && !*env.Success {
		return model.WireEvent{}, &ApplicationError{Op: op, StatusCode: http.StatusOK, Message: env.message()}
	}

	raw := json.RawMessage(body)
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		raw = env.Data
	}
	var ev model.WireEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return model.WireEvent{}, c.decodeErr(op, err)
	}
	return ev, nil
}

// decodeErr reports a 2xx body that cannot be read as the store's contract.
func (c *Client) decodeErr(op string, err error) error {
	return &ApplicationError{Op: op, StatusCode: http.StatusOK, Message: "undecodable response: " + err.Error()}
}

// errorMessage extracts the server message from an error payload.
func errorMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if m := env.message(); m != "" {
			return m
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "<") {
		return ""
	}
	return s
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrTransport):
		return metrics.OutcomeTransport
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeRejected
	}
}
