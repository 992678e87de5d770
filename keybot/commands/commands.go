package commands

import (
	"github.com/betakeys/keybot/keybot"
	"github.com/betakeys/keybot/keybot/commands/admin"
	"github.com/betakeys/keybot/keybot/commands/giveaway"
	"github.com/betakeys/keybot/keybot/commands/system"
	"github.com/betakeys/keybot/keybot/handlers"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Commands = []discord.ApplicationCommandCreate{}

func init() {
	Commands = append(Commands, admin.Commands...)
	Commands = append(Commands, system.Commands...)
}

// Register routes every command, button and autocomplete to its handler.
func Register(h handler.Router, b *keybot.Bot) {
	admins := func(name string, fn handler.CommandHandler) handler.CommandHandler {
		return handlers.WrapWithLogging(name, admin.RequireAdmin(fn))
	}

	h.Command("/give_key", admins("give_key", admin.GiveKeyHandler(b)))
	h.Command("/give_key_unchecked", admins("give_key_unchecked", admin.GiveKeyUncheckedHandler(b)))
	h.Command("/Give Key", admins("Give Key", admin.GiveKeyMenuHandler(b)))
	h.Command("/Give Key unchecked", admins("Give Key unchecked", admin.GiveKeyUncheckedMenuHandler(b)))
	h.Command("/set_round", admins("set_round", admin.SetRoundHandler(b)))
	h.Command("/set_key_role", admins("set_key_role", admin.SetKeyRoleHandler(b)))
	h.Command("/set_age_bound", admins("set_age_bound", admin.SetAgeBoundHandler(b)))
	h.Command("/create_key_post", admins("create_key_post", admin.CreateKeyPostHandler(b)))
	h.Command("/key_stats", admins("key_stats", admin.KeyStatsHandler(b)))

	h.Component(giveaway.Route, handlers.WrapComponentWithLogging("get-key", giveaway.GetKeyHandler(b)))

	catalog := system.NewCatalog(Commands)
	h.Command("/help", handlers.WrapWithLogging("help", system.HelpHandler(catalog)))
	h.Autocomplete("/help", system.HelpAutocomplete(catalog))
}
