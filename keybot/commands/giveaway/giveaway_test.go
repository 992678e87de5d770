package giveaway

import (
	"testing"
	"time"

	"github.com/betakeys/keybot/internal/domain/ledger"
	"github.com/betakeys/keybot/internal/domain/settings"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomIDRoundTrip(t *testing.T) {
	expiry := time.Unix(1_700_000_000, 0)

	id := CustomID(expiry)
	assert.Equal(t, "/get-key/1700000000", id)

	parsed, err := ParseExpiry("1700000000")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(expiry))

	_, err = ParseExpiry("soon")
	assert.Error(t, err)
}

func TestProcessName(t *testing.T) {
	assert.Equal(t, "giveaway:99", ProcessName(snowflake.ID(99)))
}

func TestEligibility(t *testing.T) {
	role := snowflake.ID(500)
	s := settings.Settings{RoleID: role, AgeBoundDays: 5}
	now := time.Now()

	// Snowflakes encode creation time, so build ids from explicit ages.
	old := discord.User{ID: snowflake.New(now.Add(-30 * 24 * time.Hour)), Username: "alice"}
	young := discord.User{ID: snowflake.New(now.Add(-2 * 24 * time.Hour)), Username: "bob"}
	bot := discord.User{ID: snowflake.New(now.Add(-30 * 24 * time.Hour)), Username: "robot", Bot: true}

	tests := []struct {
		name  string
		user  discord.User
		roles []snowflake.ID
		want  error
	}{
		{"eligible", old, []snowflake.ID{1, role}, nil},
		{"missing role", old, []snowflake.ID{1}, ledger.ErrMissingRole},
		{"too new", young, []snowflake.ID{role}, ledger.ErrAccountTooNew},
		{"bot", bot, []snowflake.ID{role}, ledger.ErrBotAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.CheckEligibility(Claimant(tt.user, tt.roles, s), Requirements(s), now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ledger.ErrIneligible)
		})
	}
}

func TestClaimant_NoRoleConfigured(t *testing.T) {
	c := Claimant(discord.User{Username: "alice"}, []snowflake.ID{0}, settings.Settings{})
	assert.False(t, c.HasRole)
}
