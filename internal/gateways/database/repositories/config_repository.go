package repositories

import (
	"context"
	"time"

	"github.com/betakeys/keybot/internal/gateways/database/models"
	"github.com/uptrace/bun"
)

type ConfigRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

type configRepository struct {
	*BaseRepository
}

func NewConfigRepository(db *bun.DB) ConfigRepository {
	return &configRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *configRepository) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	entry := new(models.ConfigEntry)
	err := r.db.NewSelect().
		Model(entry).
		Where(`"key" = ?`, key).
		Scan(ctx)
	if err != nil {
		err = r.HandleErrorWithID("get", "config", key, err)
		if IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

func (r *configRepository) All(ctx context.Context) (map[string]string, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var entries []*models.ConfigEntry
	if err := r.db.NewSelect().
		Model(&entries).
		Scan(ctx); err != nil {
		return nil, r.HandleError("all", "config", err)
	}

	values := make(map[string]string, len(entries))
	for _, e := range entries {
		values[e.Key] = e.Value
	}
	return values, nil
}

func (r *configRepository) Set(ctx context.Context, key, value string) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	entry := &models.ConfigEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	_, err := r.db.NewInsert().
		Model(entry).
		On(`CONFLICT ("key") DO UPDATE`).
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("NULL").
		Exec(ctx)
	return r.HandleErrorWithID("set", "config", key, err)
}
