package rounds_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/betakeys/keybot/internal/domain/rounds"
	"github.com/betakeys/keybot/internal/gateways/database/dbtest"
	"github.com/betakeys/keybot/internal/gateways/database/models"
	"github.com/betakeys/keybot/internal/gateways/database/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type currentRound struct {
	mu sync.Mutex
	n  int64
}

func (c *currentRound) SetRound(n int64) {
	c.mu.Lock()
	c.n = n
	c.mu.Unlock()
}

func (c *currentRound) get() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func newService(t *testing.T, strict bool) (rounds.Service, *currentRound, repositories.RoundRepository) {
	db := dbtest.Open(t)
	repo := repositories.NewRoundRepository(db.BunDB())
	cur := &currentRound{}
	return rounds.NewService(db, repo, cur, nil, strict), cur, repo
}

func activeCount(t *testing.T, list []*models.Round) int {
	t.Helper()
	n := 0
	for _, r := range list {
		if r.Status == models.RoundActive {
			n++
		}
	}
	return n
}

func TestService_EnsureStarted(t *testing.T) {
	svc, cur, _ := newService(t, false)
	ctx := context.Background()

	_, ok, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := svc.EnsureStarted(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(1), cur.get())

	require.NoError(t, svc.Open(ctx, 4))
	n, err = svc.EnsureStarted(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n, "an existing round is never replaced by round 1")
}

func TestService_OpenRollsOver(t *testing.T) {
	svc, cur, _ := newService(t, false)
	ctx := context.Background()

	require.NoError(t, svc.Open(ctx, 1))
	require.NoError(t, svc.Open(ctx, 2))

	active, ok, err := svc.Active(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), active)
	assert.Equal(t, int64(2), cur.get())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.RoundCompleted, list[0].Status)
	assert.Equal(t, models.RoundActive, list[1].Status)
}

// failingActivate completes the active round as usual, then fails to
// activate round failOn.
type failingActivate struct {
	repositories.RoundRepository
	failOn int64
}

func (f failingActivate) Activate(ctx context.Context, db bun.IDB, number int64, at time.Time) error {
	if number == f.failOn {
		return errors.New("constraint failed")
	}
	return f.RoundRepository.Activate(ctx, db, number, at)
}

func TestService_OpenFailureKeepsPreviousRound(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewRoundRepository(db.BunDB())
	cur := &currentRound{}
	svc := rounds.NewService(db, failingActivate{RoundRepository: repo, failOn: 2}, cur, nil, false)
	ctx := context.Background()

	require.NoError(t, svc.Open(ctx, 1))

	err := svc.Open(ctx, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, rounds.ErrTransactionFailed)

	active, ok, err := svc.Active(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), active)
	assert.Equal(t, int64(1), cur.get())

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, activeCount(t, list))
}

func TestService_ReopenExistingRound(t *testing.T) {
	svc, _, _ := newService(t, false)
	ctx := context.Background()

	require.NoError(t, svc.Open(ctx, 1))
	require.NoError(t, svc.Open(ctx, 2))
	require.NoError(t, svc.Open(ctx, 1))

	active, _, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 1, activeCount(t, list))
}

func TestService_StrictRejectsReuse(t *testing.T) {
	svc, cur, _ := newService(t, true)
	ctx := context.Background()

	require.NoError(t, svc.Open(ctx, 2))
	assert.ErrorIs(t, svc.Open(ctx, 2), rounds.ErrRoundNotIncreasing)
	assert.ErrorIs(t, svc.Open(ctx, 1), rounds.ErrRoundNotIncreasing)
	require.NoError(t, svc.Open(ctx, 3))

	active, _, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), active)
	assert.Equal(t, int64(3), cur.get())
}

func TestService_OpenRejectsNonPositive(t *testing.T) {
	svc, _, _ := newService(t, false)
	assert.ErrorIs(t, svc.Open(context.Background(), 0), rounds.ErrInvalidRound)
	assert.ErrorIs(t, svc.Open(context.Background(), -3), rounds.ErrInvalidRound)
}

func TestService_ConcurrentOpensKeepOneActive(t *testing.T) {
	svc, _, _ := newService(t, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 1; i <= 16; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			if err := svc.Open(ctx, n); err != nil {
				errs <- fmt.Errorf("open %d: %w", n, err)
			}
		}(int64(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 16)
	assert.Equal(t, 1, activeCount(t, list))
}
