package repositories

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/betakeys/keybot/internal/gateways/database/models"
	"github.com/uptrace/bun"
)

var (
	ErrNoKeyAvailable  = errors.New("no claimable key available")
	ErrKeyNotClaimable = errors.New("key is missing or already claimed")
)

type IngestOutcome int

const (
	Inserted IngestOutcome = iota
	AlreadyPresent
	Skipped
)

func (o IngestOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case AlreadyPresent:
		return "already_present"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// KeyRepository owns the key inventory. Methods taking a bun.IDB run on the
// transaction they are given, or on the pool when it is nil.
type KeyRepository interface {
	Ingest(ctx context.Context, value string) (IngestOutcome, error)
	CountUnclaimed(ctx context.Context, db bun.IDB) (int, error)
	SelectUnclaimedExcluding(ctx context.Context, db bun.IDB, userID int64) (string, error)
	SelectUnclaimed(ctx context.Context, db bun.IDB) (string, error)
	Bind(ctx context.Context, db bun.IDB, value string, userID int64, round *int64, at time.Time) error
	GetByValue(ctx context.Context, value string) (*models.Key, error)
}

type keyRepository struct {
	*BaseRepository
}

func NewKeyRepository(db *bun.DB) KeyRepository {
	return &keyRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *keyRepository) Ingest(ctx context.Context, value string) (IngestOutcome, error) {
	if strings.TrimSpace(value) == "" {
		return Skipped, nil
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	key := &models.Key{Value: value, AddedAt: time.Now()}
	res, err := r.db.NewInsert().
		Model(key).
		Column("value", "claimed", "added_at").
		On("CONFLICT (value) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return Skipped, r.HandleError("ingest", "key", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return Skipped, r.HandleError("ingest", "key", err)
	}
	if affected == 0 {
		return AlreadyPresent, nil
	}

	slog.Debug("Key ingested",
		slog.String("type", "db"),
		slog.String("operation", "Ingest"))
	return Inserted, nil
}

func (r *keyRepository) CountUnclaimed(ctx context.Context, db bun.IDB) (int, error) {
	count, err := r.idb(db).NewSelect().
		Model((*models.Key)(nil)).
		Where("k.claimed = ?", false).
		Count(ctx)
	if err != nil {
		return 0, r.HandleError("count_unclaimed", "key", err)
	}
	return count, nil
}

// SelectUnclaimedExcluding returns the oldest unclaimed key, unless the user
// already holds a key bound to whichever round is active right now.
func (r *keyRepository) SelectUnclaimedExcluding(ctx context.Context, db bun.IDB, userID int64) (string, error) {
	db = r.idb(db)

	held := db.NewSelect().
		TableExpr("keys AS c").
		ColumnExpr("1").
		Join("JOIN rounds AS r ON r.number = c.round_number").
		Where("c.user_id = ?", userID).
		Where("c.claimed = ?", true).
		Where("r.status = ?", models.RoundActive)

	var value string
	err := db.NewSelect().
		TableExpr("keys AS k").
		ColumnExpr("k.value").
		Where("k.claimed = ?", false).
		Where("NOT EXISTS (?)", held).
		OrderExpr("k.id ASC").
		Limit(1).
		Scan(ctx, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoKeyAvailable
	}
	if err != nil {
		return "", r.HandleError("select_unclaimed", "key", err)
	}
	return value, nil
}

func (r *keyRepository) SelectUnclaimed(ctx context.Context, db bun.IDB) (string, error) {
	var value string
	err := r.idb(db).NewSelect().
		TableExpr("keys AS k").
		ColumnExpr("k.value").
		Where("k.claimed = ?", false).
		OrderExpr("k.id ASC").
		Limit(1).
		Scan(ctx, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoKeyAvailable
	}
	if err != nil {
		return "", r.HandleError("select_unclaimed", "key", err)
	}
	return value, nil
}

// Bind claims value for userID. The update only matches an unclaimed row, so
// a key is never bound twice even if the caller's view was stale.
func (r *keyRepository) Bind(ctx context.Context, db bun.IDB, value string, userID int64, round *int64, at time.Time) error {
	res, err := r.idb(db).NewUpdate().
		Model((*models.Key)(nil)).
		Set("claimed = ?", true).
		Set("user_id = ?", userID).
		Set("claimed_at = ?", at).
		Set("round_number = ?", round).
		Where("value = ?", value).
		Where("claimed = ?", false).
		Exec(ctx)
	if err != nil {
		return r.HandleError("bind", "key", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return r.HandleError("bind", "key", err)
	}
	if affected != 1 {
		return ErrKeyNotClaimable
	}
	return nil
}

func (r *keyRepository) GetByValue(ctx context.Context, value string) (*models.Key, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	key := new(models.Key)
	err := r.db.NewSelect().
		Model(key).
		Where("k.value = ?", value).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "key", value, err)
	}
	return key, nil
}
