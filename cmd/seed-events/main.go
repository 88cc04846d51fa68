package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/okian/cadence/internal/seed"
	"github.com/okian/cadence/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumEvents  = 100
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 15 * time.Second
	defaultDays       = 14
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080/api", "Base URL of the event store")
		token    = flag.String("token", "", "Bearer token")
		employer = flag.String("employer", "", "Employer ID the events belong to")
		events   = flag.Int("events", defaultNumEvents, "Number of events to create")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submissions")
		timeout  = flag.Duration("timeout", defaultTimeout, "Per-request timeout")
		days     = flag.Int("days", defaultDays, "Spread events over this many days")
		tz       = flag.String("tz", "UTC", "IANA zone drafts are composed in")
		verbose  = flag.Bool("verbose", false, "Log every submission")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		_, _ = os.Stderr.WriteString("Invalid timezone: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:    *baseURL,
		Token:      *token,
		EmployerID: *employer,
		NumEvents:  *events,
		Workers:    *workers,
		Timeout:    *timeout,
		Days:       *days,
		Location:   loc,
		Verbose:    *verbose,
	}

	if _, err := seed.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Seed failed: " + err.Error() + "\n")
		cancel()
		stop()
		os.Exit(1)
	}
}
