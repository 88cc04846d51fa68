package storeclient

import (
	"net/http"
	"time"

	"github.com/okian/cadence/pkg/logger"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets the transport used for every request.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithEmployerID scopes every request to one employer.
func WithEmployerID(id string) Option {
	return func(c *Client) {
		c.employerID = id
	}
}

// WithTimeout bounds each request. Zero disables the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithMaxBodyBytes bounds how much of a response body is read. Larger
// successful responses fail instead of being truncated.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithLogger sets the logger for request outcomes.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRequestIDFunc overrides how X-Request-ID values are generated.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newRequestID = fn
		}
	}
}
