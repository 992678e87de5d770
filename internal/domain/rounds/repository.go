package rounds

import (
	"context"
	"time"

	"github.com/betakeys/keybot/internal/gateways/database/models"
	"github.com/uptrace/bun"
)

type Repository interface {
	Active(ctx context.Context, db bun.IDB) (int64, bool, error)
	Count(ctx context.Context, db bun.IDB) (int, error)
	MaxNumber(ctx context.Context, db bun.IDB) (int64, bool, error)
	CompleteActive(ctx context.Context, db bun.IDB) error
	Activate(ctx context.Context, db bun.IDB, number int64, at time.Time) error
	List(ctx context.Context) ([]*models.Round, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, attempts int, fn func(ctx context.Context, tx bun.Tx) error) error
}

// CurrentRound receives the round number after every successful open.
type CurrentRound interface {
	SetRound(n int64)
}
