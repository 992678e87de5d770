package ingest

import (
	"context"
	"log/slog"
	"time"
)

const DefaultInterval = 30 * time.Second

// Scheduler syncs every source on a fixed interval until its context ends.
type Scheduler struct {
	syncer   *Syncer
	sources  []Source
	interval time.Duration

	// afterSync is called once per tick with the tick's combined result.
	afterSync func(Result)
}

func NewScheduler(syncer *Syncer, interval time.Duration, sources ...Source) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		syncer:   syncer,
		sources:  sources,
		interval: interval,
	}
}

// OnSync registers fn to run after every tick.
func (s *Scheduler) OnSync(fn func(Result)) {
	s.afterSync = fn
}

// Run syncs once immediately and then on every tick. Source failures are
// logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	var total Result
	for _, src := range s.sources {
		res, err := s.syncer.SyncSource(ctx, src)
		total.Inserted += res.Inserted
		total.AlreadyPresent += res.AlreadyPresent
		total.Skipped += res.Skipped
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("Key sync failed",
				slog.String("type", "sys"),
				slog.String("source", src.Name()),
				slog.Any("error", err))
		}
	}
	if s.afterSync != nil {
		s.afterSync(total)
	}
}
