package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // zones resolve on hosts without a zoneinfo database

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names read by Load.
const (
	EnvPrefix = "CADENCE_"
	EnvConfig = "CADENCE_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CADENCE_CONFIG is set
//  3. env (prefix CADENCE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CADENCE_STORE_BASE_URL -> store_base_url; keys are flat so underscores stay.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the process cannot start without.
// Failures are *KeyError values.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return &KeyError{Key: "addr", Reason: "must not be empty"}
	case strings.TrimSpace(c.StoreBaseURL) == "":
		return &KeyError{Key: "store_base_url", Reason: "must not be empty"}
	case c.RequestTimeoutMS <= 0:
		return &KeyError{Key: "request_timeout_ms", Reason: "must be positive"}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return &KeyError{Key: "timezone", Reason: fmt.Sprintf("%q is not a known zone", c.Timezone), Err: err}
	}
	return nil
}
