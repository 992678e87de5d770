package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/betakeys/keybot/internal/domain/settings"
	"github.com/betakeys/keybot/keybot"
	"github.com/betakeys/keybot/keybot/commands/giveaway"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var CreateKeyPost = discord.SlashCommandCreate{
	Name:                     "create_key_post",
	Description:              "Post a button that hands out keys for a limited time",
	DefaultMemberPermissions: adminPermissions,
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "duration",
			Description: "How long the giveaway runs, in seconds or like 2h30m",
			Required:    false,
		},
		discord.ApplicationCommandOptionString{
			Name:        "message",
			Description: "Text to post above the button",
			Required:    false,
		},
	},
}

func CreateKeyPostHandler(b *keybot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		s := b.Settings.Snapshot()
		if !s.HasRole() {
			return e.CreateMessage(ephemeral(keybot.NoRoleMessage))
		}

		data := e.SlashCommandInteractionData()
		duration := s.GiveawayDuration
		if raw, ok := data.OptString("duration"); ok {
			d, err := settings.ParseDuration(strings.TrimSpace(raw))
			if err != nil {
				return e.CreateMessage(ephemeral(fmt.Sprintf("Invalid duration %q: %v", raw, err)))
			}
			duration = d
		}

		content := keybot.GiveawayMessage(s.RoleID)
		if msg, ok := data.OptString("message"); ok && strings.TrimSpace(msg) != "" {
			content = msg
		}

		expiry := time.Now().Add(duration)
		channelID := e.ChannelID()
		post, err := b.Client.Rest().CreateMessage(channelID, discord.NewMessageCreateBuilder().
			SetContent(content).
			AddContainerComponents(giveaway.Button(expiry)).
			Build())
		if err != nil {
			return e.CreateMessage(ephemeral(fmt.Sprintf("Could not post the giveaway\n\nError: %v", err)))
		}

		b.Processes.RunAfter(giveaway.ProcessName(post.ID), "close giveaway post", duration, func(context.Context) {
			giveaway.Expire(b, channelID, post.ID)
		})

		slog.Info("Giveaway posted",
			slog.String("type", "cmd"),
			slog.String("message_id", post.ID.String()),
			slog.Duration("duration", duration),
			slog.String("admin", e.User().Username))
		return e.CreateMessage(ephemeral(fmt.Sprintf("Giveaway posted, it ends <t:%d:R>", expiry.Unix())))
	}
}
