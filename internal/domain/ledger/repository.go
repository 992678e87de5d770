package ledger

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

//go:generate mockgen -source=repository.go -destination=mock/store.go -package=mock

// The ledger reads and writes through these narrow views of the key, user and
// round repositories so a claim can run every step on one transaction.

type KeyStore interface {
	CountUnclaimed(ctx context.Context, db bun.IDB) (int, error)
	SelectUnclaimedExcluding(ctx context.Context, db bun.IDB, userID int64) (string, error)
	SelectUnclaimed(ctx context.Context, db bun.IDB) (string, error)
	Bind(ctx context.Context, db bun.IDB, value string, userID int64, round *int64, at time.Time) error
}

type UserStore interface {
	Ensure(ctx context.Context, db bun.IDB, name string) (int64, error)
}

type RoundStore interface {
	Active(ctx context.Context, db bun.IDB) (int64, bool, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, attempts int, fn func(ctx context.Context, tx bun.Tx) error) error
}
