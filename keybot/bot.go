package keybot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/betakeys/keybot/internal/domain/ingest"
	"github.com/betakeys/keybot/internal/domain/ledger"
	"github.com/betakeys/keybot/internal/domain/rounds"
	"github.com/betakeys/keybot/internal/domain/settings"
	"github.com/betakeys/keybot/internal/gateways/database"
	"github.com/betakeys/keybot/internal/gateways/database/repositories"
	"github.com/betakeys/keybot/internal/obs"
	"github.com/betakeys/keybot/keybot/logger"
	"github.com/betakeys/keybot/keybot/utils"
	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const syncProcess = "key-sync"

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Version   string
	Commit    string
	DB        *database.DB
	Keys      repositories.KeyRepository
	Ledger    ledger.Service
	Rounds    rounds.Service
	Settings  *settings.Store
	Syncer    *ingest.Syncer
	Metrics   *obs.Metrics
	Processes *utils.BackgroundProcessManager
}

// InitServices connects to the database and builds everything below the chat
// surface. Every CLI subcommand runs on top of it, with or without Discord.
func (b *Bot) InitServices(ctx context.Context, reg prometheus.Registerer) error {
	start := time.Now()
	db, err := database.New(ctx, b.Cfg.DB)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}
	slog.Info("Database ready",
		slog.String("type", "db"),
		slog.String("driver", string(db.Driver())),
		slog.Duration("took", time.Since(start)))

	b.DB = db
	b.Metrics = obs.NewMetrics(reg)
	b.Processes = utils.NewBackgroundProcessManager(context.Background())

	b.Keys = repositories.NewKeyRepository(db.BunDB())
	users := repositories.NewUserRepository(db.BunDB())
	roundRepo := repositories.NewRoundRepository(db.BunDB())

	b.Settings = settings.NewStore(repositories.NewConfigRepository(db.BunDB()), b.Cfg.Giveaway.Settings())
	if err := b.Settings.Load(ctx); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	b.Rounds = rounds.NewService(db, roundRepo, b.Settings, b.Metrics, b.Cfg.Rounds.Strict)
	b.Ledger = ledger.NewService(db, b.Keys, users, roundRepo, b.Metrics, b.Cfg.Ledger.MaxAttempts)
	b.Syncer = ingest.NewSyncer(b.Keys, b.Cfg.Ingest.Concurrency, b.Metrics)

	round, err := b.Rounds.EnsureStarted(ctx)
	if err != nil {
		return fmt.Errorf("failed to start first round: %w", err)
	}
	logger.LogSystem("Services initialized", slog.Int64("round", round))
	return nil
}

// Sources lists where new keys come from: the local drop file, and the
// Spaces object when configured.
func (b *Bot) Sources(ctx context.Context) ([]ingest.Source, error) {
	sources := []ingest.Source{ingest.NewFileSource(b.Cfg.Ingest.File)}
	if b.Cfg.Spaces.Enabled() {
		spaces, err := ingest.NewSpacesSource(ctx, b.Cfg.Spaces)
		if err != nil {
			return nil, err
		}
		sources = append(sources, spaces)
	}
	return sources, nil
}

// StartSync runs ingestion in the background until Close.
func (b *Bot) StartSync(ctx context.Context) error {
	sources, err := b.Sources(ctx)
	if err != nil {
		return err
	}

	scheduler := ingest.NewScheduler(b.Syncer, time.Duration(b.Cfg.Ingest.Interval), sources...)
	scheduler.OnSync(func(res ingest.Result) {
		if res.Inserted > 0 {
			slog.Info("New keys added",
				slog.String("type", "sys"),
				slog.Int("inserted", res.Inserted))
		}
		b.RefreshRemaining(b.Processes.Context())
	})
	b.Processes.StartProcess(syncProcess, "sync keys into the pool", scheduler.Run)
	return nil
}

// RefreshRemaining updates the remaining-keys gauge.
func (b *Bot) RefreshRemaining(ctx context.Context) {
	n, err := b.Ledger.Remaining(ctx)
	if err != nil {
		slog.Warn("Failed to count remaining keys",
			slog.String("type", "db"),
			slog.Any("error", err))
		return
	}
	b.Metrics.SetRemaining(n)
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds, cache.FlagRoles)),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("KeyBot is now ready",
		slog.String("type", "sys"),
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("the key pool"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		logger.LogError("Failed to set presence", err)
	}
}

// DeliverKey sends key to userID by direct message.
func (b *Bot) DeliverKey(userID snowflake.ID, key string) error {
	channel, err := b.Client.Rest().CreateDMChannel(userID)
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}
	if _, err := b.Client.Rest().CreateMessage(channel.ID(), discord.MessageCreate{
		Content: KeyMessage(key),
	}); err != nil {
		return fmt.Errorf("failed to send key: %w", err)
	}
	return nil
}

// KeyMessage is the direct message a user receives with their key.
func KeyMessage(key string) string {
	return fmt.Sprintf("Congratulations, you have been given a key!\nYou can claim your key by entering it into steam.\nYour key is: %s\n", key)
}

// Close stops background work and releases the client and database.
func (b *Bot) Close(timeout time.Duration) {
	if b.Processes != nil {
		_ = b.Processes.Shutdown(timeout)
	}
	if b.Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		b.Client.Close(ctx)
	}
	if b.DB != nil {
		b.DB.Close()
	}
}

// Status exposes the pool and round to the operator endpoints.
type Status struct {
	b *Bot
}

func (b *Bot) Status() *Status {
	return &Status{b: b}
}

func (s *Status) Ping(ctx context.Context) error {
	return s.b.DB.Ping(ctx)
}

func (s *Status) Remaining(ctx context.Context) (int, error) {
	return s.b.Ledger.Remaining(ctx)
}

func (s *Status) Active(ctx context.Context) (int64, bool, error) {
	return s.b.Rounds.Active(ctx)
}
