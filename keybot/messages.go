package keybot

import (
	"errors"
	"fmt"

	"github.com/betakeys/keybot/internal/domain/ledger"
	"github.com/betakeys/keybot/internal/domain/rounds"
	"github.com/betakeys/keybot/internal/domain/settings"
	"github.com/disgoorg/snowflake/v2"
)

const (
	GiveawayOverMessage = "This key giveaway is over!"
	NoRoleMessage       = "No role set, please set a role using /set_key_role"
	BotRecipientMessage = "You can't give a key to a bot!"
	MissingRoleMessage  = "You do not have permission to claim a key, please contact an admin if you think this is a mistake"
	CheckDMsMessage     = "Your key has been sent to you in a direct message!"
)

// GrantFailureMessage renders a failed admin grant for the admin who asked.
func GrantFailureMessage(name string, err error) string {
	switch {
	case errors.Is(err, ledger.ErrBotAccount):
		return BotRecipientMessage
	case errors.Is(err, ledger.ErrAlreadyClaimedThisRound):
		return fmt.Sprintf("%s has already claimed a key this round", name)
	case errors.Is(err, ledger.ErrPoolExhausted):
		return "There are no keys left to give"
	case errors.Is(err, ledger.ErrNoActiveRound):
		return "No round is active, start one using /set_round"
	}
	return fmt.Sprintf("Could not get key, please try again later\n\nError: %v", err)
}

// ClaimFailureMessage renders a failed button press for the user who pressed.
func ClaimFailureMessage(err error, ageBoundDays int) string {
	switch {
	case errors.Is(err, ledger.ErrAccountTooNew):
		return fmt.Sprintf("Your account is too new to claim a key. Your account must be at least %d days old", ageBoundDays)
	case errors.Is(err, ledger.ErrMissingRole):
		return MissingRoleMessage
	case errors.Is(err, ledger.ErrBotAccount):
		return "Bots can't claim keys"
	case errors.Is(err, ledger.ErrAlreadyClaimedThisRound):
		return "You have already claimed a key this round"
	case errors.Is(err, ledger.ErrPoolExhausted):
		return "Sorry, all keys have been claimed"
	case errors.Is(err, ledger.ErrNoActiveRound):
		return "No key round is running right now"
	}
	return fmt.Sprintf("Could not claim key\nreason: %v", err)
}

func GrantedMessage(name string) string {
	return fmt.Sprintf("Key sent to %s", name)
}

// UndeliveredMessage is shown to the admin when the key was bound but the DM
// could not be sent, so the key is not lost.
func UndeliveredMessage(name, key string, err error) string {
	return fmt.Sprintf("Key `%s` was claimed for %s but the direct message failed: %v\nPlease pass it on manually.", key, name, err)
}

func RoundSetMessage(n int64) string {
	return fmt.Sprintf("Round set to %d", n)
}

func RoundFailureMessage(n int64, err error) string {
	switch {
	case errors.Is(err, rounds.ErrInvalidRound):
		return "Round must be a positive number"
	case errors.Is(err, rounds.ErrRoundNotIncreasing):
		return fmt.Sprintf("Round %d is not greater than every previous round", n)
	}
	return fmt.Sprintf("Could not set round, please try again later\n\nError: %v", err)
}

func RoleSetMessage(roleID snowflake.ID) string {
	return fmt.Sprintf("Key role set to %s", RoleMention(roleID))
}

func AgeBoundSetMessage(days int) string {
	return fmt.Sprintf("Accounts must now be more than %d days old to claim a key", days)
}

func SettingFailureMessage(err error) string {
	if errors.Is(err, settings.ErrInvalidValue) {
		return err.Error()
	}
	return fmt.Sprintf("Could not save setting, please try again later\n\nError: %v", err)
}

// GiveawayMessage is the default text of a giveaway post.
func GiveawayMessage(roleID snowflake.ID) string {
	return fmt.Sprintf("If you have the role %s\n\nClick the button below to get a beta key", RoleMention(roleID))
}

func RoleMention(id snowflake.ID) string {
	return fmt.Sprintf("<@&%s>", id)
}
