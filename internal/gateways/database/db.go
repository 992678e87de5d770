package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/betakeys/keybot/internal/domain/logger"
	"github.com/betakeys/keybot/internal/gateways/database/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
	defaultPoolSize      = 4
	defaultBusyTimeout   = 5000
	defaultSQLitePath    = "beta_keys.db"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

type DBConfig struct {
	Driver       Driver `toml:"driver"`
	Path         string `toml:"path"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
	BusyTimeout  int    `toml:"busy_timeout"`
	LogQueries   bool   `toml:"log_queries"`
}

type DB struct {
	pool   *pgxpool.Pool
	bunDB  *bun.DB
	driver Driver
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaultPoolSize
	}

	var (
		db  *DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		db, err = newSQLite(ctx, cfg)
	case DriverPostgres:
		db, err = newPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.LogQueries {
		db.bunDB.AddQueryHook(logger.NewQueryHook())
	}
	return db, nil
}

func newSQLite(ctx context.Context, cfg DBConfig) (*DB, error) {
	path := cfg.Path
	if path == "" {
		path = defaultSQLitePath
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}

	// Immediate transactions take the write lock at BEGIN, so two claim
	// transactions can never interleave their select and bind.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_txlock=immediate",
		path, busy,
	)

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqldb.SetMaxOpenConns(cfg.PoolSize)
	sqldb.SetMaxIdleConns(cfg.PoolSize)
	if cfg.MaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := sqldb.PingContext(pingCtx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &DB{
		bunDB:  bun.NewDB(sqldb, sqlitedialect.New()),
		driver: DriverSQLite,
	}, nil
}

func newPostgres(ctx context.Context, cfg DBConfig) (*DB, error) {
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))

	var (
		conn net.Conn
		err  error
	)
	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = net.DialTimeout("tcp", addr, defaultConnTimeout)
		if err == nil {
			break
		}
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}
	conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.PoolSize)
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(buildBunDSN(cfg))))
	sqldb.SetMaxOpenConns(cfg.PoolSize)

	db := &DB{
		pool:   pool,
		bunDB:  bun.NewDB(sqldb, pgdialect.New()),
		driver: DriverPostgres,
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func buildBunDSN(cfg DBConfig) string {
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, sslMode,
	)
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) Driver() Driver {
	return db.driver
}

// TxOptions returns the isolation the claim and round transactions run with.
// SQLite already serialises writers through BEGIN IMMEDIATE.
func (db *DB) TxOptions() *sql.TxOptions {
	if db.driver == DriverPostgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

// RunInTx runs fn in a transaction, re-running it when the store reports a
// serialization conflict or a busy database, up to attempts times.
func (db *DB) RunInTx(ctx context.Context, attempts int, fn func(ctx context.Context, tx bun.Tx) error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = db.bunDB.RunInTx(ctx, db.TxOptions(), fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		slog.Debug("Transaction conflict, retrying",
			slog.String("type", "db"),
			slog.Int("attempt", i+1),
			slog.Any("error", err))
	}
	return err
}

func (db *DB) ExecWithLog(ctx context.Context, query string, args ...interface{}) (int64, error) {
	start := time.Now()

	var (
		affected int64
		err      error
	)
	if db.pool != nil {
		var tag pgconn.CommandTag
		tag, err = db.pool.Exec(ctx, query, args...)
		affected = tag.RowsAffected()
	} else {
		var res sql.Result
		res, err = db.bunDB.ExecContext(ctx, query, args...)
		if err == nil {
			affected, _ = res.RowsAffected()
		}
	}
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "exec"),
			slog.String("query", query),
			slog.Any("args", args),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return affected, err
	}

	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "exec"),
		slog.String("query", query),
		slog.Duration("took", duration),
		slog.Int64("affected_rows", affected),
	)
	return affected, nil
}

// Ping verifies both database connections are working
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()

	if db.pool != nil {
		if err := db.pool.Ping(ctx); err != nil {
			return fmt.Errorf("pgxpool ping failed: %w", err)
		}
	}
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}
	return nil
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// InitializeSchema creates the ledger tables and indexes. Safe to run on
// every start.
func (db *DB) InitializeSchema(ctx context.Context) error {
	// Referenced tables first.
	if _, err := db.bunDB.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	if _, err := db.bunDB.NewCreateTable().
		Model((*models.Round)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create rounds table: %w", err)
	}

	if _, err := db.bunDB.NewCreateTable().
		Model((*models.Key)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id")`).
		ForeignKey(`("round_number") REFERENCES "rounds" ("number")`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create keys table: %w", err)
	}

	if _, err := db.bunDB.NewCreateTable().
		Model((*models.ConfigEntry)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create config table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_keys_claimed ON keys(claimed);",
		"CREATE INDEX IF NOT EXISTS idx_keys_user_round ON keys(user_id, round_number);",
		// At most one active round, enforced by the store itself.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_rounds_single_active ON rounds(status) WHERE status = 'active';",
	}
	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
