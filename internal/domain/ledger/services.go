package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/betakeys/keybot/internal/gateways/database"
	"github.com/betakeys/keybot/internal/gateways/database/repositories"
	"github.com/betakeys/keybot/internal/obs"
	"github.com/uptrace/bun"
)

const DefaultMaxAttempts = 3

type Service interface {
	Claim(ctx context.Context, user string) (string, error)
	ClaimUnchecked(ctx context.Context, user string) (string, error)
	Remaining(ctx context.Context) (int, error)
}

type service struct {
	tx          TxRunner
	keys        KeyStore
	users       UserStore
	rounds      RoundStore
	metrics     *obs.Metrics
	maxAttempts int
	now         func() time.Time
}

func NewService(tx TxRunner, keys KeyStore, users UserStore, rounds RoundStore, metrics *obs.Metrics, maxAttempts int) Service {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &service{
		tx:          tx,
		keys:        keys,
		users:       users,
		rounds:      rounds,
		metrics:     metrics,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Claim hands user one unclaimed key bound to the active round, unless the
// user already holds a key from that round.
func (s *service) Claim(ctx context.Context, user string) (string, error) {
	return s.claim(ctx, user, true)
}

// ClaimUnchecked hands out a key without the once-per-round check. Only
// administrator surfaces may call it.
func (s *service) ClaimUnchecked(ctx context.Context, user string) (string, error) {
	return s.claim(ctx, user, false)
}

func (s *service) Remaining(ctx context.Context) (int, error) {
	n, err := s.keys.CountUnclaimed(ctx, nil)
	if err != nil {
		return 0, s.classify(err)
	}
	s.metrics.SetRemaining(n)
	return n, nil
}

func (s *service) claim(ctx context.Context, user string, checked bool) (string, error) {
	start := time.Now()
	mode := "checked"
	if !checked {
		mode = "unchecked"
	}

	userID, err := s.users.Ensure(ctx, nil, user)
	if err != nil {
		return "", s.finish(mode, user, start, s.classify(err))
	}

	var value string
	err = s.tx.RunInTx(ctx, s.maxAttempts, func(ctx context.Context, tx bun.Tx) error {
		round, ok, err := s.rounds.Active(ctx, tx)
		if err != nil {
			return err
		}

		var roundRef *int64
		switch {
		case ok:
			roundRef = &round
		case checked:
			return ErrNoActiveRound
		}

		var candidate string
		if checked {
			candidate, err = s.keys.SelectUnclaimedExcluding(ctx, tx, userID)
		} else {
			candidate, err = s.keys.SelectUnclaimed(ctx, tx)
		}
		if errors.Is(err, repositories.ErrNoKeyAvailable) {
			if !checked {
				return ErrPoolExhausted
			}
			// Tell "this user is blocked" apart from "nothing left".
			remaining, err := s.keys.CountUnclaimed(ctx, tx)
			if err != nil {
				return err
			}
			if remaining > 0 {
				return ErrAlreadyClaimedThisRound
			}
			return ErrPoolExhausted
		}
		if err != nil {
			return err
		}

		if err := s.keys.Bind(ctx, tx, candidate, userID, roundRef, s.now()); err != nil {
			if errors.Is(err, repositories.ErrKeyNotClaimable) {
				slog.Error("Selected key could not be bound inside claim transaction",
					slog.String("type", "db"),
					slog.String("user", user),
					slog.String("mode", mode))
			}
			return err
		}
		value = candidate
		return nil
	})
	if err != nil {
		return "", s.finish(mode, user, start, s.classify(err))
	}

	s.finish(mode, user, start, nil)
	return value, nil
}

// classify maps anything below the ledger onto the claim error taxonomy.
func (s *service) classify(err error) *ClaimError {
	var ce *ClaimError
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, repositories.ErrKeyNotClaimable):
		return newClaimError(ReasonTransactionFailed, err)
	case database.IsUnavailable(err):
		return newClaimError(ReasonStorageUnavailable, err)
	default:
		return newClaimError(ReasonTransactionFailed, err)
	}
}

func (s *service) finish(mode, user string, start time.Time, ce *ClaimError) error {
	took := time.Since(start)
	if ce == nil {
		s.metrics.ObserveClaim(mode, "success", took)
		slog.Info("Key claimed",
			slog.String("type", "sys"),
			slog.String("user", user),
			slog.String("mode", mode),
			slog.Duration("took", took))
		return nil
	}

	s.metrics.ObserveClaim(mode, string(ce.Reason), took)
	switch ce.Reason {
	case ReasonTransactionFailed, ReasonStorageUnavailable:
		slog.Error("Claim failed",
			slog.String("type", "db"),
			slog.String("user", user),
			slog.String("mode", mode),
			slog.String("reason", string(ce.Reason)),
			slog.Any("error", ce.Err))
	default:
		slog.Info("Claim refused",
			slog.String("type", "sys"),
			slog.String("user", user),
			slog.String("mode", mode),
			slog.String("reason", string(ce.Reason)))
	}
	return ce
}
