package service

import (
	"time"

	"github.com/okian/cadence/internal/adapters/repository"
	"github.com/okian/cadence/pkg/logger"
)

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithLogger sets a custom logger for the session.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation sets the zone draft dates and times are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Session) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithICSDomain sets the UID domain of locally rendered calendars.
func WithICSDomain(domain string) Option {
	return func(s *Session) {
		if domain != "" {
			s.icsDomain = domain
		}
	}
}

// WithWorkingSet replaces the in-memory event set.
func WithWorkingSet(ws repository.Store) Option {
	return func(s *Session) {
		if ws != nil {
			s.events = ws
		}
	}
}

// WithClock overrides the session time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}
