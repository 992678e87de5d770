package rounds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/betakeys/keybot/internal/gateways/database/models"
	"github.com/betakeys/keybot/internal/obs"
	"github.com/uptrace/bun"
)

const defaultAttempts = 3

var (
	ErrInvalidRound       = errors.New("round number must be positive")
	ErrRoundNotIncreasing = errors.New("round number must be greater than every previous round")
	ErrTransactionFailed  = errors.New("round transaction failed")
)

type Service interface {
	Active(ctx context.Context) (int64, bool, error)
	Open(ctx context.Context, number int64) error
	EnsureStarted(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]*models.Round, error)
}

type service struct {
	tx      TxRunner
	repo    Repository
	current CurrentRound
	metrics *obs.Metrics
	strict  bool
	now     func() time.Time
}

// NewService builds the round manager. In strict mode a round number can
// only be opened once and must exceed every earlier one.
func NewService(tx TxRunner, repo Repository, current CurrentRound, metrics *obs.Metrics, strict bool) Service {
	return &service{
		tx:      tx,
		repo:    repo,
		current: current,
		metrics: metrics,
		strict:  strict,
		now:     time.Now,
	}
}

func (s *service) Active(ctx context.Context) (int64, bool, error) {
	return s.repo.Active(ctx, nil)
}

// Open completes the active round and activates number in one transaction.
func (s *service) Open(ctx context.Context, number int64) error {
	if number <= 0 {
		return ErrInvalidRound
	}

	err := s.tx.RunInTx(ctx, defaultAttempts, func(ctx context.Context, tx bun.Tx) error {
		if s.strict {
			highest, ok, err := s.repo.MaxNumber(ctx, tx)
			if err != nil {
				return err
			}
			if ok && number <= highest {
				return ErrRoundNotIncreasing
			}
		}
		if err := s.repo.CompleteActive(ctx, tx); err != nil {
			return err
		}
		return s.repo.Activate(ctx, tx, number, s.now())
	})
	if errors.Is(err, ErrRoundNotIncreasing) {
		return err
	}
	if err != nil {
		slog.Error("Failed to open round",
			slog.String("type", "db"),
			slog.Int64("round", number),
			slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	if s.current != nil {
		s.current.SetRound(number)
	}
	s.metrics.ObserveRoundOpen()
	slog.Info("Round opened",
		slog.String("type", "sys"),
		slog.Int64("round", number))
	return nil
}

// EnsureStarted opens round 1 when no round has ever been opened and returns
// the active round.
func (s *service) EnsureStarted(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count rounds: %w", err)
	}
	if count == 0 {
		if err := s.Open(ctx, 1); err != nil {
			return 0, err
		}
		return 1, nil
	}

	active, ok, err := s.repo.Active(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read active round: %w", err)
	}
	if !ok {
		slog.Warn("Rounds exist but none is active",
			slog.String("type", "sys"),
			slog.Int("rounds", count))
		return 0, nil
	}
	if s.current != nil {
		s.current.SetRound(active)
	}
	return active, nil
}

func (s *service) List(ctx context.Context) ([]*models.Round, error) {
	return s.repo.List(ctx)
}
