package admin

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/json"
)

var Commands = []discord.ApplicationCommandCreate{
	GiveKey,
	GiveKeyUnchecked,
	GiveKeyMenu,
	GiveKeyUncheckedMenu,
	SetRound,
	SetKeyRole,
	SetAgeBound,
	CreateKeyPost,
	KeyStats,
}

// Discord hides these commands from anyone without Administrator; handlers
// check again in case a server overrides the default.
var adminPermissions = json.NewNullablePtr(discord.PermissionAdministrator)

const notAdminMessage = "You need the Administrator permission to use this command"

func isAdmin(e *handler.CommandEvent) bool {
	member := e.Member()
	return member != nil && member.Permissions.Has(discord.PermissionAdministrator)
}

func ephemeral(content string) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(true).
		Build()
}

// RequireAdmin wraps h so it only runs for administrators.
func RequireAdmin(h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !isAdmin(e) {
			return e.CreateMessage(ephemeral(notAdminMessage))
		}
		return h(e)
	}
}
