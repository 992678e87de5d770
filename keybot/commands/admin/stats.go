package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/betakeys/keybot/keybot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var KeyStats = discord.SlashCommandCreate{
	Name:                     "key_stats",
	Description:              "Show how many keys are left and which round is running",
	DefaultMemberPermissions: adminPermissions,
}

func KeyStatsHandler(b *keybot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		remaining, err := b.Ledger.Remaining(ctx)
		if err != nil {
			return e.CreateMessage(ephemeral(fmt.Sprintf("Could not count keys\n\nError: %v", err)))
		}
		b.Metrics.SetRemaining(remaining)

		round := "none"
		if n, ok, err := b.Rounds.Active(ctx); err != nil {
			return e.CreateMessage(ephemeral(fmt.Sprintf("Could not read the active round\n\nError: %v", err)))
		} else if ok {
			round = fmt.Sprintf("%d", n)
		}

		s := b.Settings.Snapshot()
		role := "not set"
		if s.HasRole() {
			role = keybot.RoleMention(s.RoleID)
		}

		embed := discord.NewEmbedBuilder().
			SetTitle("Key Stats").
			SetColor(0x5865F2).
			AddField("Keys remaining", fmt.Sprintf("%d", remaining), true).
			AddField("Active round", round, true).
			AddField("Key role", role, true).
			AddField("Minimum account age", fmt.Sprintf("%d days", s.AgeBoundDays), true).
			AddField("Giveaway duration", s.GiveawayDuration.String(), true).
			SetTimestamp(time.Now()).
			Build()

		return e.CreateMessage(discord.NewMessageCreateBuilder().
			SetEmbeds(embed).
			SetEphemeral(true).
			Build())
	}
}
