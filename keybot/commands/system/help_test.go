package system

import (
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return NewCatalog([]discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:        "give_key",
			Description: "Give a key to a user",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{Name: "user", Description: "u", Required: true},
			},
		},
		discord.SlashCommandCreate{
			Name:        "create_key_post",
			Description: "Post a giveaway",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{Name: "duration", Description: "d"},
			},
		},
		discord.SlashCommandCreate{Name: "set_round", Description: "Start a round"},
		discord.UserCommandCreate{Name: "Give Key"},
	})
}

func TestCatalog_Lookup(t *testing.T) {
	c := testCatalog()

	info, ok := c.Lookup("GIVE_KEY")
	require.True(t, ok)
	assert.Equal(t, "/give_key <user>", info.Usage)

	info, ok = c.Lookup("create_key_post")
	require.True(t, ok)
	assert.Equal(t, "/create_key_post [duration]", info.Usage)

	_, ok = c.Lookup("nope")
	assert.False(t, ok)
}

func TestCatalog_Suggest(t *testing.T) {
	c := testCatalog()

	assert.Len(t, c.Suggest(""), 4)

	got := c.Suggest("gk")
	require.NotEmpty(t, got)
	assert.Contains(t, got, "give_key")
	assert.NotContains(t, got, "set_round")
}

func TestCatalog_Embed(t *testing.T) {
	c := testCatalog()

	embed, ok := c.Embed("")
	require.True(t, ok)
	assert.Contains(t, embed.Description, "`/give_key <user>` - Give a key to a user")

	embed, ok = c.Embed("set_round")
	require.True(t, ok)
	assert.Contains(t, embed.Description, "**set_round**")

	_, ok = c.Embed("missing")
	assert.False(t, ok)
}
