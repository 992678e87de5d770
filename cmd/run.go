package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/betakeys/keybot/keybot/commands"
	"github.com/betakeys/keybot/keybot/logger"
	"github.com/betakeys/keybot/keybot/web"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var syncCommands bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and start handing out keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		b, err := openBot(ctx, reg)
		if err != nil {
			return err
		}
		defer b.Close(10 * time.Second)

		if b.Cfg.Bot.Token == "" {
			return fmt.Errorf("no bot token: set bot.token in %s or TOKEN in the environment", configPath)
		}

		h := handler.New()
		commands.Register(h, b)

		if err := b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
			return fmt.Errorf("failed to setup bot: %w", err)
		}

		if syncCommands || b.Cfg.Bot.SyncCommands {
			logger.LogSystem("Syncing commands", slog.Any("guild_ids", b.Cfg.Bot.DevGuilds))
			if err := handler.SyncCommands(b.Client, commands.Commands, b.Cfg.Bot.DevGuilds); err != nil {
				logger.LogError("Failed to sync commands", err)
			}
		}

		if err := b.StartSync(ctx); err != nil {
			return fmt.Errorf("failed to start key sync: %w", err)
		}

		if addr := b.Cfg.Metrics.Addr; addr != "" {
			server := web.New(addr, b.Version, b.Status(), reg)
			b.Processes.StartProcess("metrics-server", "serve /metrics, /health and /stats", server.Run)
		}

		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := b.Client.OpenGateway(openCtx); err != nil {
			return fmt.Errorf("failed to open gateway: %w", err)
		}

		logger.LogSystem("Bot is running. Press CTRL-C to exit.")
		<-ctx.Done()
		logger.LogSystem("Shutting down bot...")
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&syncCommands, "sync-commands", false, "sync slash commands to Discord before starting")
}
