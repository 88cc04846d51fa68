// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config populated with defaults.
// - Load layers a YAML file and CADENCE_* environment variables on top.
// - Validation failures are *KeyError (matching ErrInvalidConfig), read failures wrap ErrLoadConfig.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// StoreBaseURL is the root of the remote event store, without the
	// /calendar suffix.
	StoreBaseURL string `koanf:"store_base_url"`

	// StoreToken is sent as a bearer token on every store request.
	StoreToken string `koanf:"store_token"`

	// EmployerID scopes store requests to one employer's calendar.
	EmployerID string `koanf:"employer_id"`

	// RequestTimeoutMS bounds a single store round trip.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// Timezone is the IANA zone draft dates and times are composed in.
	Timezone string `koanf:"timezone"`

	// ExportDir receives calendar-events.ics on every scheduled export.
	// Empty disables the export job.
	ExportDir string `koanf:"export_dir"`

	// ExportCron is a five-field cron schedule for the export job.
	ExportCron string `koanf:"export_cron"`

	// ICSDomain is the right-hand side of UIDs in locally rendered calendars.
	ICSDomain string `koanf:"ics_domain"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9090",
		StoreBaseURL:     "http://localhost:8080/api",
		RequestTimeoutMS: 15_000,
		Timezone:         "UTC",
		ExportCron:       "*/30 * * * *",
		ICSDomain:        "cadence.local",
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Location resolves Timezone, falling back to UTC when it cannot be loaded.
// Load has already rejected unknown zones, so the fallback only applies to
// hand-built configs.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		return time.UTC
	}
	return loc
}

// ExportEnabled reports whether the scheduled export job should run.
func (c *Config) ExportEnabled() bool {
	return c.ExportDir != "" && c.ExportCron != ""
}
