package ledger_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/betakeys/keybot/internal/domain/ledger"
	"github.com/betakeys/keybot/internal/domain/rounds"
	"github.com/betakeys/keybot/internal/gateways/database/dbtest"
	"github.com/betakeys/keybot/internal/gateways/database/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fixture struct {
	ledger ledger.Service
	rounds rounds.Service
	keys   repositories.KeyRepository
}

func newFixture(t *testing.T, keys ...string) fixture {
	t.Helper()
	db := dbtest.Open(t)

	keyRepo := repositories.NewKeyRepository(db.BunDB())
	userRepo := repositories.NewUserRepository(db.BunDB())
	roundRepo := repositories.NewRoundRepository(db.BunDB())

	for _, k := range keys {
		_, err := keyRepo.Ingest(context.Background(), k)
		require.NoError(t, err)
	}

	return fixture{
		ledger: ledger.NewService(db, keyRepo, userRepo, roundRepo, nil, 0),
		rounds: rounds.NewService(db, roundRepo, nil, nil, false),
		keys:   keyRepo,
	}
}

func poolOf(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("KEY-%04d", i)
	}
	return keys
}

func TestClaim_Scenario(t *testing.T) {
	f := newFixture(t, "K1", "K2")
	ctx := context.Background()
	require.NoError(t, f.rounds.Open(ctx, 1))

	first, err := f.ledger.Claim(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, []string{"K1", "K2"}, first)

	_, err = f.ledger.Claim(ctx, "alice")
	assert.ErrorIs(t, err, ledger.ErrAlreadyClaimedThisRound)

	second, err := f.ledger.Claim(ctx, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = f.ledger.Claim(ctx, "carol")
	assert.ErrorIs(t, err, ledger.ErrPoolExhausted)

	require.NoError(t, f.rounds.Open(ctx, 2))
	_, err = f.ledger.Claim(ctx, "alice")
	assert.ErrorIs(t, err, ledger.ErrPoolExhausted)

	// Ingestion refills the pool and alice may claim again in round 2.
	_, err = f.keys.Ingest(ctx, "K3")
	require.NoError(t, err)
	third, err := f.ledger.Claim(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "K3", third)
}

func TestClaim_RolloverYieldsDistinctKey(t *testing.T) {
	f := newFixture(t, poolOf(4)...)
	ctx := context.Background()
	require.NoError(t, f.rounds.Open(ctx, 1))

	r1, err := f.ledger.Claim(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, f.rounds.Open(ctx, 2))
	r2, err := f.ledger.Claim(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, r1, r2)

	_, err = f.ledger.Claim(ctx, "alice")
	assert.ErrorIs(t, err, ledger.ErrAlreadyClaimedThisRound)

	key, err := f.keys.GetByValue(ctx, r2)
	require.NoError(t, err)
	require.NotNil(t, key.RoundNumber)
	assert.Equal(t, int64(2), *key.RoundNumber)
}

func TestClaim_NoActiveRound(t *testing.T) {
	f := newFixture(t, "K1")
	ctx := context.Background()

	_, err := f.ledger.Claim(ctx, "alice")
	assert.ErrorIs(t, err, ledger.ErrNoActiveRound)

	value, err := f.ledger.ClaimUnchecked(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "K1", value)

	key, err := f.keys.GetByValue(ctx, "K1")
	require.NoError(t, err)
	assert.Nil(t, key.RoundNumber)
}

func TestClaimUnchecked_IgnoresRoundRule(t *testing.T) {
	f := newFixture(t, "K1", "K2")
	ctx := context.Background()
	require.NoError(t, f.rounds.Open(ctx, 1))

	_, err := f.ledger.Claim(ctx, "alice")
	require.NoError(t, err)
	_, err = f.ledger.ClaimUnchecked(ctx, "alice")
	require.NoError(t, err)

	_, err = f.ledger.ClaimUnchecked(ctx, "alice")
	assert.ErrorIs(t, err, ledger.ErrPoolExhausted)

	remaining, err := f.ledger.Remaining(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestClaim_ConcurrentUniqueness(t *testing.T) {
	const (
		keys    = 25
		callers = 80
	)
	f := newFixture(t, poolOf(keys)...)
	ctx := context.Background()
	require.NoError(t, f.rounds.Open(ctx, 1))

	var (
		mu        sync.Mutex
		seen      = make(map[string]string)
		exhausted atomic.Int64
	)

	var g errgroup.Group
	for i := 0; i < callers; i++ {
		user := fmt.Sprintf("user-%d", i)
		g.Go(func() error {
			value, err := f.ledger.Claim(ctx, user)
			if err != nil {
				if ledger.Retryable(err) {
					return err
				}
				if assert.ErrorIs(t, err, ledger.ErrPoolExhausted) {
					exhausted.Add(1)
				}
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if prev, dup := seen[value]; dup {
				return fmt.Errorf("key %s handed to %s and %s", value, prev, user)
			}
			seen[value] = user
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, seen, keys)
	assert.Equal(t, int64(callers-keys), exhausted.Load())
}

func TestClaim_ConcurrentSameUserOncePerRound(t *testing.T) {
	f := newFixture(t, poolOf(10)...)
	ctx := context.Background()
	require.NoError(t, f.rounds.Open(ctx, 1))

	var (
		wins    atomic.Int64
		blocked atomic.Int64
	)
	var g errgroup.Group
	for i := 0; i < 12; i++ {
		g.Go(func() error {
			_, err := f.ledger.Claim(ctx, "alice")
			switch {
			case err == nil:
				wins.Add(1)
			case ledger.Retryable(err):
				return err
			default:
				if assert.ErrorIs(t, err, ledger.ErrAlreadyClaimedThisRound) {
					blocked.Add(1)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), wins.Load())
	assert.Equal(t, int64(11), blocked.Load())

	remaining, err := f.ledger.Remaining(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, remaining)
}
