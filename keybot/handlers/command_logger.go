package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
)

const (
	// Interactions must be answered well inside Discord's window, so anything
	// slower than this is reported even when it succeeds.
	slowThreshold  = 2 * time.Second
	defaultTimeout = 10 * time.Second
)

// WrapWithLogging wraps a command handler with start, completion and timeout
// logging.
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return track("cmd", name, e.User(), e.GuildID(), e.ChannelID(), func() error {
			return h(e)
		})
	}
}

// WrapComponentWithLogging is WrapWithLogging for button presses.
func WrapComponentWithLogging(name string, h handler.ComponentHandler) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		return track("component", name, e.User(), e.GuildID(), e.ChannelID(), func() error {
			return h(e)
		})
	}
}

func track(kind, name string, user discord.User, guildID *snowflake.ID, channelID snowflake.ID, run func() error) error {
	start := time.Now()
	base := []any{
		slog.String("type", kind),
		slog.String("name", name),
		slog.String("user_id", user.ID.String()),
		slog.String("user_name", user.Username),
	}

	guild := "dm"
	if guildID != nil {
		guild = guildID.String()
	}
	slog.Debug("Interaction started", append(base,
		slog.String("guild_id", guild),
		slog.String("channel_id", channelID.String()),
	)...)

	done := make(chan error, 1)
	go func() {
		done <- run()
	}()

	select {
	case err := <-done:
		took := time.Since(start)
		attrs := append(base, slog.Duration("took", took))
		switch {
		case err != nil:
			slog.Error("Interaction failed", append(attrs,
				slog.Any("error", err),
				slog.String("status", "failed"),
			)...)
		case took > slowThreshold:
			slog.Warn("Interaction executed slowly", append(attrs,
				slog.String("status", "slow"),
			)...)
		default:
			slog.Info("Interaction completed", append(attrs,
				slog.String("status", "success"),
			)...)
		}
		return err

	case <-time.After(defaultTimeout):
		slog.Error("Interaction timed out", append(base,
			slog.String("status", "timeout"),
			slog.Duration("timeout", defaultTimeout),
		)...)
		return fmt.Errorf("%s %s timed out after %s", kind, name, defaultTimeout)
	}
}
