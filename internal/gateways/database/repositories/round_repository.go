package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/betakeys/keybot/internal/gateways/database/models"
	"github.com/uptrace/bun"
)

type RoundRepository interface {
	Active(ctx context.Context, db bun.IDB) (int64, bool, error)
	Count(ctx context.Context, db bun.IDB) (int, error)
	MaxNumber(ctx context.Context, db bun.IDB) (int64, bool, error)
	CompleteActive(ctx context.Context, db bun.IDB) error
	Activate(ctx context.Context, db bun.IDB, number int64, at time.Time) error
	List(ctx context.Context) ([]*models.Round, error)
}

type roundRepository struct {
	*BaseRepository
}

func NewRoundRepository(db *bun.DB) RoundRepository {
	return &roundRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *roundRepository) Active(ctx context.Context, db bun.IDB) (int64, bool, error) {
	var number int64
	err := r.idb(db).NewSelect().
		Model((*models.Round)(nil)).
		Column("r.number").
		Where("r.status = ?", models.RoundActive).
		Limit(1).
		Scan(ctx, &number)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, r.HandleError("active", "round", err)
	}
	return number, true, nil
}

func (r *roundRepository) Count(ctx context.Context, db bun.IDB) (int, error) {
	count, err := r.idb(db).NewSelect().
		Model((*models.Round)(nil)).
		Count(ctx)
	if err != nil {
		return 0, r.HandleError("count", "round", err)
	}
	return count, nil
}

func (r *roundRepository) MaxNumber(ctx context.Context, db bun.IDB) (int64, bool, error) {
	var highest sql.NullInt64
	err := r.idb(db).NewSelect().
		Model((*models.Round)(nil)).
		ColumnExpr("MAX(r.number)").
		Scan(ctx, &highest)
	if err != nil {
		return 0, false, r.HandleError("max_number", "round", err)
	}
	return highest.Int64, highest.Valid, nil
}

func (r *roundRepository) CompleteActive(ctx context.Context, db bun.IDB) error {
	_, err := r.idb(db).NewUpdate().
		Model((*models.Round)(nil)).
		Set("status = ?", models.RoundCompleted).
		Where("status = ?", models.RoundActive).
		Exec(ctx)
	return r.HandleError("complete_active", "round", err)
}

// Activate creates round number as active, or reactivates it when the number
// was used before.
func (r *roundRepository) Activate(ctx context.Context, db bun.IDB, number int64, at time.Time) error {
	round := &models.Round{
		Number:   number,
		Status:   models.RoundActive,
		OpenedAt: at,
	}
	_, err := r.idb(db).NewInsert().
		Model(round).
		On("CONFLICT (number) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("opened_at = EXCLUDED.opened_at").
		Returning("NULL").
		Exec(ctx)
	return r.HandleErrorWithID("activate", "round", number, err)
}

func (r *roundRepository) List(ctx context.Context) ([]*models.Round, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rounds []*models.Round
	err := r.db.NewSelect().
		Model(&rounds).
		Order("r.number ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "round", err)
	}
	return rounds, nil
}
