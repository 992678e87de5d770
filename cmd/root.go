package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/betakeys/keybot/keybot"
	"github.com/betakeys/keybot/keybot/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "keybot",
	Short:         "Hands out beta keys on Discord, one per user per round",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to config")
	rootCmd.AddCommand(runCmd, syncCmd, roundCmd, grantCmd, settingsCmd, statsCmd)
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.LogError("Command failed", err)
		os.Exit(1)
	}
}

// loadConfig reads the config and installs the configured logger.
func loadConfig() (*keybot.Config, error) {
	cfg, err := keybot.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.Log.Format, cfg.Log.Level, cfg.Log.AddSource))
	return cfg, nil
}

// openBot loads config and brings up the services without connecting to
// Discord. reg may be nil for one-shot commands.
func openBot(ctx context.Context, reg prometheus.Registerer) (*keybot.Bot, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	b := keybot.New(*cfg, Version, Commit)
	initCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := b.InitServices(initCtx, reg); err != nil {
		b.Close(5 * time.Second)
		return nil, err
	}
	return b, nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
