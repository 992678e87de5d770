package admin

import (
	"context"
	"log/slog"
	"time"

	"github.com/betakeys/keybot/internal/domain/ledger"
	"github.com/betakeys/keybot/keybot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var GiveKey = discord.SlashCommandCreate{
	Name:                     "give_key",
	Description:              "Give a key to a user",
	DefaultMemberPermissions: adminPermissions,
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "The user to give a key to",
			Required:    true,
		},
	},
}

var GiveKeyUnchecked = discord.SlashCommandCreate{
	Name:                     "give_key_unchecked",
	Description:              "Give a key to a user even if they already have one this round",
	DefaultMemberPermissions: adminPermissions,
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "The user to give a key to",
			Required:    true,
		},
	},
}

var GiveKeyMenu = discord.UserCommandCreate{
	Name:                     "Give Key",
	DefaultMemberPermissions: adminPermissions,
}

var GiveKeyUncheckedMenu = discord.UserCommandCreate{
	Name:                     "Give Key unchecked",
	DefaultMemberPermissions: adminPermissions,
}

func GiveKeyHandler(b *keybot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return giveKey(b, e, e.SlashCommandInteractionData().User("user"), false)
	}
}

func GiveKeyUncheckedHandler(b *keybot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return giveKey(b, e, e.SlashCommandInteractionData().User("user"), true)
	}
}

func GiveKeyMenuHandler(b *keybot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return giveKey(b, e, e.UserCommandInteractionData().TargetUser(), false)
	}
}

func GiveKeyUncheckedMenuHandler(b *keybot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return giveKey(b, e, e.UserCommandInteractionData().TargetUser(), true)
	}
}

func giveKey(b *keybot.Bot, e *handler.CommandEvent, target discord.User, unchecked bool) error {
	claimant := ledger.Claimant{Name: target.Username, Bot: target.Bot}
	if err := ledger.CheckEligibility(claimant, ledger.Requirements{}, time.Now()); err != nil {
		return e.CreateMessage(ephemeral(keybot.GrantFailureMessage(target.Username, err)))
	}

	if err := e.DeferCreateMessage(true); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	claim := b.Ledger.Claim
	if unchecked {
		claim = b.Ledger.ClaimUnchecked
	}
	key, err := claim(ctx, target.Username)
	if err != nil {
		return followup(e, keybot.GrantFailureMessage(target.Username, err))
	}
	defer b.RefreshRemaining(ctx)

	if err := b.DeliverKey(target.ID, key); err != nil {
		slog.Error("Failed to deliver key",
			slog.String("type", "cmd"),
			slog.String("user", target.Username),
			slog.Any("error", err))
		return followup(e, keybot.UndeliveredMessage(target.Username, key, err))
	}

	slog.Info("Key granted",
		slog.String("type", "cmd"),
		slog.String("user", target.Username),
		slog.String("admin", e.User().Username),
		slog.Bool("unchecked", unchecked))
	return followup(e, keybot.GrantedMessage(target.Username))
}

func followup(e *handler.CommandEvent, content string) error {
	_, err := e.CreateFollowupMessage(ephemeral(content))
	return err
}
