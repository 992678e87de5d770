package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/betakeys/keybot/internal/gateways/database/models"
	lru "github.com/hashicorp/golang-lru"
	"github.com/uptrace/bun"
)

const defaultUserCacheSize = 4096

type UserRepository interface {
	Ensure(ctx context.Context, db bun.IDB, name string) (int64, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
}

type userRepository struct {
	*BaseRepository
	ids *lru.Cache
}

func NewUserRepository(db *bun.DB) UserRepository {
	// Only fails on a non-positive size.
	cache, _ := lru.New(defaultUserCacheSize)
	return &userRepository{
		BaseRepository: NewBaseRepository(db),
		ids:            cache,
	}
}

// Ensure returns the id for name, creating the user on first sight. Users are
// never renamed or removed, so a cached id stays valid.
func (r *userRepository) Ensure(ctx context.Context, db bun.IDB, name string) (int64, error) {
	if id, ok := r.ids.Get(name); ok {
		return id.(int64), nil
	}

	db = r.idb(db)
	user := &models.User{Name: name, CreatedAt: time.Now()}
	if _, err := db.NewInsert().
		Model(user).
		Column("name", "created_at").
		On("CONFLICT (name) DO NOTHING").
		Returning("NULL").
		Exec(ctx); err != nil {
		slog.Error("Failed to ensure user",
			slog.String("type", "db"),
			slog.String("operation", "Ensure"),
			slog.String("user", name),
			slog.Any("error", err))
		return 0, r.HandleError("ensure", "user", err)
	}

	var id int64
	if err := db.NewSelect().
		Model((*models.User)(nil)).
		Column("u.id").
		Where("u.name = ?", name).
		Scan(ctx, &id); err != nil {
		return 0, r.HandleErrorWithID("ensure", "user", name, err)
	}

	r.ids.Add(name, id)
	return id, nil
}

func (r *userRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	user := new(models.User)
	if err := r.db.NewSelect().
		Model(user).
		Where("u.name = ?", name).
		Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("get", "user", name, err)
	}
	return user, nil
}
