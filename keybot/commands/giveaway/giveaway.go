package giveaway

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/betakeys/keybot/internal/domain/ledger"
	"github.com/betakeys/keybot/internal/domain/settings"
	"github.com/betakeys/keybot/keybot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
)

// Route is the component route of the "Get key" button. The expiry travels in
// the custom id so posts keep working across restarts.
const Route = "/get-key/{expiry}"

func CustomID(expiry time.Time) string {
	return fmt.Sprintf("/get-key/%d", expiry.Unix())
}

func ParseExpiry(raw string) (time.Time, error) {
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid giveaway expiry %q: %w", raw, err)
	}
	return time.Unix(secs, 0), nil
}

func Button(expiry time.Time) discord.ContainerComponent {
	return discord.NewActionRow(discord.NewPrimaryButton("Get key", CustomID(expiry)))
}

// ProcessName names the timer that closes the post with messageID.
func ProcessName(messageID snowflake.ID) string {
	return "giveaway:" + messageID.String()
}

// Requirements are the rules a button press is held to.
func Requirements(s settings.Settings) ledger.Requirements {
	return ledger.Requirements{
		RequireRole: true,
		CheckAge:    true,
		MinAgeDays:  s.AgeBoundDays,
	}
}

// Claimant describes whoever pressed the button.
func Claimant(user discord.User, roles []snowflake.ID, s settings.Settings) ledger.Claimant {
	return ledger.Claimant{
		Name:      user.Username,
		Bot:       user.Bot,
		HasRole:   s.HasRole() && slices.Contains(roles, s.RoleID),
		CreatedAt: user.CreatedAt(),
	}
}

// Expire closes a giveaway post by replacing it with the over notice.
func Expire(b *keybot.Bot, channelID, messageID snowflake.ID) {
	content := keybot.GiveawayOverMessage
	if _, err := b.Client.Rest().UpdateMessage(channelID, messageID, discord.MessageUpdate{
		Content:    &content,
		Components: &[]discord.ContainerComponent{},
	}); err != nil {
		slog.Error("Failed to close giveaway post",
			slog.String("type", "error"),
			slog.String("message_id", messageID.String()),
			slog.Any("error", err))
		return
	}
	slog.Info("Giveaway closed",
		slog.String("type", "sys"),
		slog.String("message_id", messageID.String()))
}

func GetKeyHandler(b *keybot.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		expiry, err := ParseExpiry(e.Vars["expiry"])
		if err != nil {
			return err
		}
		if time.Now().After(expiry) {
			return e.CreateMessage(ephemeral(keybot.GiveawayOverMessage))
		}

		s := b.Settings.Snapshot()
		if !s.HasRole() {
			return e.CreateMessage(ephemeral(keybot.NoRoleMessage))
		}

		var roles []snowflake.ID
		if member := e.Member(); member != nil {
			roles = member.RoleIDs
		}
		user := e.User()
		if err := ledger.CheckEligibility(Claimant(user, roles, s), Requirements(s), time.Now()); err != nil {
			slog.Info("Giveaway press refused",
				slog.String("type", "cmd"),
				slog.String("user", user.Username),
				slog.Any("reason", err))
			return e.CreateMessage(ephemeral(keybot.ClaimFailureMessage(err, s.AgeBoundDays)))
		}

		if err := e.DeferCreateMessage(true); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()

		key, err := b.Ledger.Claim(ctx, user.Username)
		if err != nil {
			return followup(e, keybot.ClaimFailureMessage(err, s.AgeBoundDays))
		}
		defer b.RefreshRemaining(ctx)

		if err := b.DeliverKey(user.ID, key); err != nil {
			slog.Error("Failed to deliver key",
				slog.String("type", "cmd"),
				slog.String("user", user.Username),
				slog.Any("error", err))
			// The key is already bound, so hand it over here instead.
			return followup(e, keybot.KeyMessage(key))
		}
		return followup(e, keybot.CheckDMsMessage)
	}
}

func ephemeral(content string) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(true).
		Build()
}

func followup(e *handler.ComponentEvent, content string) error {
	_, err := e.CreateFollowupMessage(ephemeral(content))
	return err
}
