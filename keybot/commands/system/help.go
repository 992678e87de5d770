package system

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/sahilm/fuzzy"
)

var Help = discord.SlashCommandCreate{
	Name:        "help",
	Description: "List the bot's commands",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "command",
			Description:  "Show help for one command",
			Required:     false,
			Autocomplete: true,
		},
	},
}

var Commands = []discord.ApplicationCommandCreate{
	Help,
}

// maxChoices is Discord's cap on autocomplete results.
const maxChoices = 25

type CommandInfo struct {
	Name        string
	Description string
	Usage       string
}

// Catalog indexes registered commands by name for /help.
type Catalog struct {
	commands []CommandInfo
	names    []string
}

func NewCatalog(cmds []discord.ApplicationCommandCreate) *Catalog {
	c := &Catalog{}
	for _, cmd := range cmds {
		info := CommandInfo{Name: cmd.CommandName()}
		switch v := cmd.(type) {
		case discord.SlashCommandCreate:
			info.Description = v.Description
			info.Usage = usage(v)
		case discord.UserCommandCreate:
			info.Description = "Right click a user, then Apps > " + v.Name
			info.Usage = v.Name
		}
		c.commands = append(c.commands, info)
	}
	sort.Slice(c.commands, func(i, j int) bool {
		return c.commands[i].Name < c.commands[j].Name
	})
	for _, info := range c.commands {
		c.names = append(c.names, info.Name)
	}
	return c
}

func usage(cmd discord.SlashCommandCreate) string {
	parts := []string{"/" + cmd.Name}
	for _, opt := range cmd.Options {
		name := opt.OptionName()
		if required(opt) {
			parts = append(parts, "<"+name+">")
		} else {
			parts = append(parts, "["+name+"]")
		}
	}
	return strings.Join(parts, " ")
}

func required(opt discord.ApplicationCommandOption) bool {
	switch o := opt.(type) {
	case discord.ApplicationCommandOptionString:
		return o.Required
	case discord.ApplicationCommandOptionInt:
		return o.Required
	case discord.ApplicationCommandOptionUser:
		return o.Required
	case discord.ApplicationCommandOptionRole:
		return o.Required
	}
	return false
}

func (c *Catalog) Lookup(name string) (CommandInfo, bool) {
	for _, info := range c.commands {
		if strings.EqualFold(info.Name, name) {
			return info, true
		}
	}
	return CommandInfo{}, false
}

// Suggest ranks command names against query. An empty query lists them all.
func (c *Catalog) Suggest(query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return limit(c.names)
	}
	matches := fuzzy.Find(query, c.names)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return limit(out)
}

func limit(names []string) []string {
	if len(names) > maxChoices {
		return names[:maxChoices]
	}
	return names
}

func (c *Catalog) Embed(only string) (discord.Embed, bool) {
	builder := discord.NewEmbedBuilder().
		SetTitle("KeyBot - Command Help").
		SetColor(0x7289DA)

	if only != "" {
		info, ok := c.Lookup(only)
		if !ok {
			return discord.Embed{}, false
		}
		return builder.
			SetDescription(fmt.Sprintf("**%s**\n%s\n\nUsage: `%s`", info.Name, info.Description, info.Usage)).
			Build(), true
	}

	var sb strings.Builder
	for _, info := range c.commands {
		fmt.Fprintf(&sb, "`%s` - %s\n", info.Usage, info.Description)
	}
	return builder.
		SetDescription("Hands out beta keys, one per user per round.\n\n" + sb.String()).
		SetFooter("Use /help <command> for details", "").
		Build(), true
}

func HelpHandler(c *Catalog) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		only, _ := e.SlashCommandInteractionData().OptString("command")
		embed, ok := c.Embed(only)
		if !ok {
			return e.CreateMessage(discord.NewMessageCreateBuilder().
				SetContent(fmt.Sprintf("Unknown command %q", only)).
				SetEphemeral(true).
				Build())
		}
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetEmbeds(embed).
			SetEphemeral(true).
			Build())
	}
}

func HelpAutocomplete(c *Catalog) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		focused := e.Data.Focused()
		if focused.Name != "command" {
			return nil
		}

		var query string
		if focused.Value != nil {
			if err := json.Unmarshal(focused.Value, &query); err != nil {
				slog.Error("Failed to unmarshal focused value",
					slog.String("type", "cmd"),
					slog.Any("error", err))
				return e.AutocompleteResult([]discord.AutocompleteChoice{})
			}
		}

		names := c.Suggest(query)
		choices := make([]discord.AutocompleteChoice, 0, len(names))
		for _, name := range names {
			choices = append(choices, discord.AutocompleteChoiceString{
				Name:  name,
				Value: name,
			})
		}
		return e.AutocompleteResult(choices)
	}
}
