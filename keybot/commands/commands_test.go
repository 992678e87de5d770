package commands

import (
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/json"
	"github.com/stretchr/testify/assert"
)

func TestCommands_UniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, cmd := range Commands {
		name := cmd.CommandName()
		assert.False(t, seen[name], "duplicate command %s", name)
		seen[name] = true
	}

	for _, want := range []string{
		"give_key", "give_key_unchecked", "Give Key", "Give Key unchecked",
		"set_round", "set_key_role", "set_age_bound", "create_key_post",
		"key_stats", "help",
	} {
		assert.True(t, seen[want], "missing command %s", want)
	}
}

func TestCommands_AdminOnly(t *testing.T) {
	want := json.NewNullablePtr(discord.PermissionAdministrator)
	for _, cmd := range Commands {
		switch c := cmd.(type) {
		case discord.SlashCommandCreate:
			if c.Name == "help" {
				assert.Nil(t, c.DefaultMemberPermissions)
				continue
			}
			assert.Equal(t, want, c.DefaultMemberPermissions, c.Name)
		case discord.UserCommandCreate:
			assert.Equal(t, want, c.DefaultMemberPermissions, c.Name)
		}
	}
}
