// Package seed fills an event store with generated calendar events.
package seed

import "time"

// Config holds configuration for a seed run.
type Config struct {
	BaseURL    string        // Root of the event store API
	Token      string        // Bearer token
	EmployerID string        // Employer the events belong to
	NumEvents  int           // Number of drafts to generate
	Workers    int           // Concurrent submissions
	Timeout    time.Duration // Per-request timeout
	Days       int           // Events are spread over this many days from now
	Location   *time.Location
	Verbose    bool
}

// Stats holds seed run statistics.
type Stats struct {
	Generated int
	Submitted int
	Created   int
	Rejected  int // validation or store rejections
	Failed    int // transport failures
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
