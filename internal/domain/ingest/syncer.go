package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/betakeys/keybot/internal/gateways/database/repositories"
	"github.com/betakeys/keybot/internal/obs"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

type Inventory interface {
	Ingest(ctx context.Context, value string) (repositories.IngestOutcome, error)
}

type Result struct {
	Inserted       int
	AlreadyPresent int
	Skipped        int
}

func (r Result) Total() int {
	return r.Inserted + r.AlreadyPresent + r.Skipped
}

// Syncer adds candidate keys to the inventory. Each insert stands on its own,
// so a sync that fails halfway can simply be run again.
type Syncer struct {
	inventory   Inventory
	concurrency int
	metrics     *obs.Metrics
}

func NewSyncer(inventory Inventory, concurrency int, metrics *obs.Metrics) *Syncer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Syncer{
		inventory:   inventory,
		concurrency: concurrency,
		metrics:     metrics,
	}
}

func (s *Syncer) Sync(ctx context.Context, candidates []string) (Result, error) {
	start := time.Now()
	var inserted, present, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, candidate := range candidates {
		candidate := candidate
		g.Go(func() error {
			outcome, err := s.inventory.Ingest(gctx, candidate)
			if err != nil {
				return fmt.Errorf("failed to ingest key: %w", err)
			}
			switch outcome {
			case repositories.Inserted:
				inserted.Add(1)
			case repositories.AlreadyPresent:
				present.Add(1)
			case repositories.Skipped:
				skipped.Add(1)
			}
			s.metrics.ObserveIngest(outcome.String())
			return nil
		})
	}
	err := g.Wait()

	res := Result{
		Inserted:       int(inserted.Load()),
		AlreadyPresent: int(present.Load()),
		Skipped:        int(skipped.Load()),
	}
	if err != nil {
		return res, err
	}

	if res.Inserted > 0 {
		slog.Info("Ingested new keys",
			slog.String("type", "sys"),
			slog.Int("inserted", res.Inserted),
			slog.Int("already_present", res.AlreadyPresent),
			slog.Int("skipped", res.Skipped),
			slog.Duration("took", time.Since(start)))
	} else {
		slog.Debug("No new keys",
			slog.String("type", "sys"),
			slog.Int("candidates", len(candidates)))
	}
	return res, nil
}

// SyncSource pulls the candidates from src and syncs them.
func (s *Syncer) SyncSource(ctx context.Context, src Source) (Result, error) {
	candidates, err := src.Candidates(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", src.Name(), err)
	}
	return s.Sync(ctx, candidates)
}
