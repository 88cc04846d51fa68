package seed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/okian/cadence/internal/adapters/storeclient"
	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/validation"
	"github.com/okian/cadence/pkg/logger"
)

// Creator creates events in the store. *storeclient.Client implements it.
type Creator interface {
	Create(ctx context.Context, p model.CreatePayload) (model.WireEvent, error)
}

var _ Creator = (*storeclient.Client)(nil)

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeRejected
	outcomeFailed
)

// Submit validates every draft and creates the valid ones with a bounded
// number of workers. Counts are written to stats.
func Submit(ctx context.Context, c Creator, drafts []model.EventDraft, cfg *Config, stats *Stats) {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(drafts) && len(drafts) > 0 {
		workers = len(drafts)
	}
	log := logger.Named("seed")

	var submitted, created, rejected, failed int64
	jobs := make(chan model.EventDraft, workers*WorkerChannelMultiplier)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				if ctx.Err() != nil {
					continue
				}
				atomic.AddInt64(&submitted, 1)
				switch submitOne(ctx, c, d, cfg, log) {
				case outcomeCreated:
					atomic.AddInt64(&created, 1)
				case outcomeRejected:
					atomic.AddInt64(&rejected, 1)
				case outcomeFailed:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, d := range drafts {
			select {
			case <-ctx.Done():
				return
			case jobs <- d:
			}
		}
	}()

	wg.Wait()

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Created = int(atomic.LoadInt64(&created))
	stats.Rejected = int(atomic.LoadInt64(&rejected))
	stats.Failed = int(atomic.LoadInt64(&failed))
}

func submitOne(ctx context.Context, c Creator, d model.EventDraft, cfg *Config, log logger.Logger) outcome {
	payload, err := validation.Compose(d, validation.WithLocation(cfg.Location))
	if err != nil {
		if cfg.Verbose {
			log.Warn(ctx, "draft rejected locally", logger.String("title", d.Title), logger.Error(err))
		}
		return outcomeRejected
	}
	ev, err := c.Create(ctx, payload)
	switch {
	case err == nil:
		if cfg.Verbose {
			log.Debug(ctx, "event created", logger.String("id", ev.ID.String()))
		}
		return outcomeCreated
	case errors.Is(err, storeclient.ErrTransport):
		log.Warn(ctx, "create failed", logger.String("title", d.Title), logger.Error(err))
		return outcomeFailed
	default:
		log.Warn(ctx, "create rejected by store", logger.String("title", d.Title), logger.Error(err))
		return outcomeRejected
	}
}
