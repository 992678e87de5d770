package keybot

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/betakeys/keybot/internal/domain/ingest"
	"github.com/betakeys/keybot/internal/domain/settings"
	"github.com/betakeys/keybot/internal/gateways/database"
	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// LoadConfig decodes the TOML file at path over the defaults. A missing file
// is created with the defaults so an operator has something to edit.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := WriteConfig(path, cfg); err != nil {
			return nil, err
		}
		slog.Warn("Config file not found, wrote defaults",
			slog.String("type", "sys"),
			slog.String("path", path))
	} else if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	} else if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Bot.Token == "" {
		cfg.Bot.Token = tokenFromEnv()
	}
	return cfg, nil
}

func WriteConfig(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// tokenFromEnv reads TOKEN from the environment, falling back to a .env file
// in the working directory.
func tokenFromEnv() string {
	if token := os.Getenv("TOKEN"); token != "" {
		return token
	}
	env, err := godotenv.Read()
	if err != nil {
		return ""
	}
	return env["TOKEN"]
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  slog.LevelInfo,
			Format: "text",
		},
		DB: database.DBConfig{
			Driver:      database.DriverSQLite,
			Path:        "beta_keys.db",
			PoolSize:    4,
			BusyTimeout: 5000,
		},
		Giveaway: GiveawayConfig{
			AgeBoundDays: 5,
			Duration:     Duration(time.Hour),
		},
		Ingest: IngestConfig{
			File:        "fresh_keys.txt",
			Interval:    Duration(ingest.DefaultInterval),
			Concurrency: 4,
		},
		Ledger: LedgerConfig{
			MaxAttempts: 3,
		},
	}
}

type Config struct {
	Log      LogConfig           `toml:"log"`
	Bot      BotConfig           `toml:"bot"`
	DB       database.DBConfig   `toml:"db"`
	Giveaway GiveawayConfig      `toml:"giveaway"`
	Ingest   IngestConfig        `toml:"ingest"`
	Spaces   ingest.SpacesConfig `toml:"spaces"`
	Rounds   RoundsConfig        `toml:"rounds"`
	Ledger   LedgerConfig        `toml:"ledger"`
	Metrics  MetricsConfig       `toml:"metrics"`
}

type BotConfig struct {
	DevGuilds    []snowflake.ID `toml:"dev_guilds"`
	Token        string         `toml:"token"`
	SyncCommands bool           `toml:"sync_commands"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

// GiveawayConfig holds the defaults that runtime settings override.
type GiveawayConfig struct {
	AgeBoundDays int          `toml:"age_bound_days"`
	Duration     Duration     `toml:"duration"`
	RoleID       snowflake.ID `toml:"role_id"`
}

func (c GiveawayConfig) Settings() settings.Settings {
	return settings.Settings{
		RoleID:           c.RoleID,
		AgeBoundDays:     c.AgeBoundDays,
		GiveawayDuration: time.Duration(c.Duration),
	}
}

type IngestConfig struct {
	File        string   `toml:"file"`
	Interval    Duration `toml:"interval"`
	Concurrency int      `toml:"concurrency"`
}

type RoundsConfig struct {
	Strict bool `toml:"strict"`
}

type LedgerConfig struct {
	MaxAttempts int `toml:"max_attempts"`
}

type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as "30s" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := settings.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}
