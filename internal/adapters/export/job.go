package export

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/cadence/pkg/logger"
	"github.com/okian/cadence/pkg/metrics"
)

// SourceFunc produces the calendar blob to write.
type SourceFunc func(ctx context.Context) ([]byte, error)

// JobOption configures a Job.
type JobOption func(*Job)

// WithLocation sets the zone the schedule is evaluated in.
func WithLocation(loc *time.Location) JobOption {
	return func(j *Job) {
		if loc != nil {
			j.loc = loc
		}
	}
}

// WithLogger sets the job logger.
func WithLogger(l logger.Logger) JobOption {
	return func(j *Job) {
		if l != nil {
			j.log = l
		}
	}
}

// WithRunTimeout bounds a single export run.
func WithRunTimeout(d time.Duration) JobOption {
	return func(j *Job) {
		if d > 0 {
			j.runTimeout = d
		}
	}
}

// Job periodically fetches a calendar and hands it to a Writer.
type Job struct {
	schedule   string
	source     SourceFunc
	writer     *Writer
	loc        *time.Location
	log        logger.Logger
	runTimeout time.Duration

	mu   sync.Mutex
	cron *cron.Cron
	done chan struct{} // closed by Stop; one per Start
}

// NewJob validates schedule (standard five field cron syntax) and builds a job.
func NewJob(schedule string, source SourceFunc, writer *Writer, opts ...JobOption) (*Job, error) {
	schedule = strings.TrimSpace(schedule)
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse export schedule %q: %w", schedule, err)
	}
	if source == nil || writer == nil {
		return nil, fmt.Errorf("export job needs a source and a writer")
	}

	j := &Job{
		schedule:   schedule,
		source:     source,
		writer:     writer,
		loc:        time.UTC,
		log:        logger.NewNop(),
		runTimeout: time.Minute,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Start schedules the job until ctx is done or Stop is called.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cron != nil {
		return nil
	}

	c := cron.New(cron.WithLocation(j.loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(j.schedule, func() { _ = j.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule export: %w", err)
	}
	done := make(chan struct{})
	j.cron = c
	j.done = done
	c.Start()

	go func() {
		select {
		case <-ctx.Done():
			j.stop(done)
		case <-done:
		}
	}()

	j.log.Info(ctx, "export job scheduled",
		logger.String("schedule", j.schedule),
		logger.String("path", j.writer.Path()),
	)
	return nil
}

// Stop halts scheduling and waits for a running export to finish.
func (j *Job) Stop() {
	j.mu.Lock()
	done := j.done
	j.mu.Unlock()
	j.stop(done)
}

// Running reports whether the job is scheduled.
func (j *Job) Running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cron != nil
}

// stop ends the run started with done. A stale done from an earlier Start
// leaves the current run alone.
func (j *Job) stop(done chan struct{}) {
	j.mu.Lock()
	if done == nil || j.done != done {
		j.mu.Unlock()
		return
	}
	c := j.cron
	j.cron = nil
	j.done = nil
	close(done)
	j.mu.Unlock()
	<-c.Stop().Done()
}

// RunOnce exports immediately.
func (j *Job) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.runTimeout)
	defer cancel()

	start := time.Now()
	blob, err := j.source(ctx)
	if err == nil {
		err = j.writer.Write(ctx, blob)
	}
	if err != nil {
		metrics.RecordExport("scheduled", "error")
		j.log.Error(ctx, "scheduled export failed", logger.Error(err))
		return err
	}

	metrics.RecordExport("scheduled", metrics.OutcomeSuccess)
	j.log.Info(ctx, "scheduled export written",
		logger.String("path", j.writer.Path()),
		logger.Int("bytes", len(blob)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}
