package ingest_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/betakeys/keybot/internal/domain/ingest"
	"github.com/betakeys/keybot/internal/domain/ingest/mock"
	"github.com/betakeys/keybot/internal/gateways/database/dbtest"
	"github.com/betakeys/keybot/internal/gateways/database/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSyncer_Idempotent(t *testing.T) {
	db := dbtest.Open(t)
	keys := repositories.NewKeyRepository(db.BunDB())
	syncer := ingest.NewSyncer(keys, 4, nil)
	ctx := context.Background()

	candidates := []string{"K1", "K2", "", "K3", "K2", "  "}

	first, err := syncer.Sync(ctx, candidates)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)
	assert.Equal(t, 1, first.AlreadyPresent)
	assert.Equal(t, 2, first.Skipped)
	assert.Equal(t, len(candidates), first.Total())

	second, err := syncer.Sync(ctx, candidates)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 4, second.AlreadyPresent)

	count, err := keys.CountUnclaimed(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSyncer_OrderIndependent(t *testing.T) {
	ctx := context.Background()
	forward := []string{"A", "B", "C", "D"}
	backward := []string{"D", "C", "B", "A"}

	counts := make([]int, 0, 2)
	for _, candidates := range [][]string{forward, backward} {
		db := dbtest.Open(t)
		keys := repositories.NewKeyRepository(db.BunDB())
		_, err := ingest.NewSyncer(keys, 2, nil).Sync(ctx, candidates)
		require.NoError(t, err)

		n, err := keys.CountUnclaimed(ctx, nil)
		require.NoError(t, err)
		counts = append(counts, n)
	}
	assert.Equal(t, counts[0], counts[1])
}

type failingInventory struct {
	calls atomic.Int64
}

func (f *failingInventory) Ingest(context.Context, string) (repositories.IngestOutcome, error) {
	f.calls.Add(1)
	return repositories.Skipped, errors.New("database is closed")
}

func TestSyncer_PropagatesErrors(t *testing.T) {
	inv := &failingInventory{}
	_, err := ingest.NewSyncer(inv, 1, nil).Sync(context.Background(), []string{"K1", "K2"})
	assert.ErrorContains(t, err, "database is closed")
	assert.GreaterOrEqual(t, inv.calls.Load(), int64(1))
}

func TestSyncer_SyncSource(t *testing.T) {
	db := dbtest.Open(t)
	keys := repositories.NewKeyRepository(db.BunDB())
	syncer := ingest.NewSyncer(keys, 2, nil)

	ctrl := gomock.NewController(t)
	src := mock.NewMockSource(ctrl)
	src.EXPECT().Candidates(gomock.Any()).Return([]string{"K1", "K2"}, nil)

	res, err := syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)

	broken := mock.NewMockSource(ctrl)
	broken.EXPECT().Candidates(gomock.Any()).Return(nil, errors.New("timeout"))
	broken.EXPECT().Name().Return("broken").AnyTimes()

	_, err = syncer.SyncSource(context.Background(), broken)
	assert.ErrorContains(t, err, "broken: timeout")
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fresh_keys.txt")
	src := ingest.NewFileSource(path)

	lines, err := src.Candidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.NoError(t, os.WriteFile(path, []byte("K1\nK2\r\n\nK3"), 0o600))
	lines, err = src.Candidates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"K1", "K2", "", "K3"}, lines)
}

type fakeObjects struct {
	body string
	err  error
}

func (f *fakeObjects) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(f.body))}, nil
}

func TestSpacesSource(t *testing.T) {
	src := ingest.NewSpacesSourceWithClient(&fakeObjects{body: "K1\nK2\n"}, "bucket", "keys.txt")
	lines, err := src.Candidates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"K1", "K2"}, lines)
	assert.Equal(t, "spaces:bucket/keys.txt", src.Name())

	missing := ingest.NewSpacesSourceWithClient(&fakeObjects{err: &types.NoSuchKey{}}, "bucket", "keys.txt")
	lines, err = missing.Candidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)

	denied := ingest.NewSpacesSourceWithClient(&fakeObjects{err: errors.New("access denied")}, "bucket", "keys.txt")
	_, err = denied.Candidates(context.Background())
	assert.ErrorContains(t, err, "access denied")
}

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	db := dbtest.Open(t)
	keys := repositories.NewKeyRepository(db.BunDB())
	path := filepath.Join(t.TempDir(), "fresh_keys.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{"K1", "K2"}, "\n")), 0o600))

	sched := ingest.NewScheduler(ingest.NewSyncer(keys, 2, nil), 10*time.Millisecond, ingest.NewFileSource(path))

	ticks := make(chan ingest.Result, 16)
	sched.OnSync(func(r ingest.Result) {
		select {
		case ticks <- r:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	first := <-ticks
	assert.Equal(t, 2, first.Inserted)

	// Keys appended to the file are picked up on a later tick.
	require.NoError(t, os.WriteFile(path, []byte("K1\nK2\nK3\n"), 0o600))
	require.Eventually(t, func() bool {
		n, err := keys.CountUnclaimed(context.Background(), nil)
		return err == nil && n == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
