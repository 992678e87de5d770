package admin

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/betakeys/keybot/internal/domain/settings"
	"github.com/betakeys/keybot/keybot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var SetRound = discord.SlashCommandCreate{
	Name:                     "set_round",
	Description:              "Start a new key round",
	DefaultMemberPermissions: adminPermissions,
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "round",
			Description: "The round number",
			Required:    true,
			MinValue:    &[]int{1}[0],
		},
	},
}

var SetKeyRole = discord.SlashCommandCreate{
	Name:                     "set_key_role",
	Description:              "Set the role required to claim a key from a giveaway",
	DefaultMemberPermissions: adminPermissions,
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionRole{
			Name:        "role",
			Description: "The role",
			Required:    true,
		},
	},
}

var SetAgeBound = discord.SlashCommandCreate{
	Name:                     "set_age_bound",
	Description:              "Set how many days old an account must be to claim a key",
	DefaultMemberPermissions: adminPermissions,
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "days",
			Description: "Minimum account age in days",
			Required:    true,
			MinValue:    &[]int{0}[0],
		},
	},
}

func SetRoundHandler(b *keybot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		round := int64(e.SlashCommandInteractionData().Int("round"))

		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()

		if err := b.Rounds.Open(ctx, round); err != nil {
			return e.CreateMessage(ephemeral(keybot.RoundFailureMessage(round, err)))
		}

		slog.Info("Round set",
			slog.String("type", "cmd"),
			slog.Int64("round", round),
			slog.String("admin", e.User().Username))
		return e.CreateMessage(ephemeral(keybot.RoundSetMessage(round)))
	}
}

func SetKeyRoleHandler(b *keybot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		role := e.SlashCommandInteractionData().Role("role")
		if err := setSetting(b, settings.KeyRoleID, role.ID.String()); err != nil {
			return e.CreateMessage(ephemeral(keybot.SettingFailureMessage(err)))
		}
		return e.CreateMessage(ephemeral(keybot.RoleSetMessage(role.ID)))
	}
}

func SetAgeBoundHandler(b *keybot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		days := e.SlashCommandInteractionData().Int("days")
		if err := setSetting(b, settings.KeyAgeBound, strconv.Itoa(days)); err != nil {
			return e.CreateMessage(ephemeral(keybot.SettingFailureMessage(err)))
		}
		return e.CreateMessage(ephemeral(keybot.AgeBoundSetMessage(days)))
	}
}

func setSetting(b *keybot.Bot, key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Settings.Set(ctx, key, value); err != nil {
		return err
	}
	slog.Info("Setting changed",
		slog.String("type", "cmd"),
		slog.String("key", key),
		slog.String("value", value))
	return nil
}
