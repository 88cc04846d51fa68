package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/okian/cadence/internal/adapters/storeclient"
	"github.com/okian/cadence/pkg/logger"
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
)

// ErrNothingCreated is returned when no draft made it into the store.
var ErrNothingCreated = errors.New("no events were created")

// Run generates and submits cfg.NumEvents drafts.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	client := storeclient.New(cfg.BaseURL,
		storeclient.WithToken(cfg.Token),
		storeclient.WithEmployerID(cfg.EmployerID),
		storeclient.WithTimeout(cfg.Timeout),
		storeclient.WithLogger(logger.Named("storeclient")),
	)
	return RunWith(ctx, client, cfg)
}

// RunWith is Run against an existing Creator.
func RunWith(ctx context.Context, c Creator, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("seed")

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("employer", cfg.EmployerID),
		logger.Int("events", cfg.NumEvents),
		logger.Int("workers", cfg.Workers),
		logger.Int("days", cfg.Days),
		logger.Duration("timeout", cfg.Timeout),
	)

	drafts := Generate(cfg.NumEvents, cfg.Days, stats.StartTime, cfg.Location)
	stats.Generated = len(drafts)

	Submit(ctx, c, drafts, cfg, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("seed run interrupted: %w", err)
	}
	if stats.Generated > 0 && stats.Created == 0 {
		return stats, ErrNothingCreated
	}
	return stats, nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, eventsPerSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Created) / float64(stats.Submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Named("seed").Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("created", stats.Created),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Cadence Seed Tool
=================

Fills an event store with generated calendar events.

Usage:
  go run ./cmd/seed-events [options]

Options:
  -url string        Base URL of the event store (default "http://localhost:8080/api")
  -token string      Bearer token
  -employer string   Employer ID the events belong to
  -events int        Number of events to create (default 100)
  -workers int       Concurrent submissions (default CPU cores * 2)
  -timeout duration  Per-request timeout (default 15s)
  -days int          Spread events over this many days (default 14)
  -tz string         IANA zone drafts are composed in (default "UTC")
  -verbose           Log every submission
  -help              Show this help message

Examples:
  go run ./cmd/seed-events -events 500 -employer 42 -token secret
`)
}
