package ledger

import (
	"errors"
	"time"
)

var (
	ErrBotAccount    = errors.New("bot accounts cannot claim keys")
	ErrMissingRole   = errors.New("missing the key role")
	ErrAccountTooNew = errors.New("account is too new")
)

// Claimant is what the chat platform tells us about whoever asked for a key.
type Claimant struct {
	Name      string
	Bot       bool
	HasRole   bool
	CreatedAt time.Time
}

// Requirements left at their zero value only refuse bot accounts.
type Requirements struct {
	RequireRole bool
	CheckAge    bool
	MinAgeDays  int
}

// CheckEligibility returns an ErrIneligible claim error wrapping the first
// rule the claimant breaks. An account must be strictly older than
// MinAgeDays whole days.
func CheckEligibility(c Claimant, req Requirements, now time.Time) error {
	if c.Bot {
		return newClaimError(ReasonIneligible, ErrBotAccount)
	}
	if req.RequireRole && !c.HasRole {
		return newClaimError(ReasonIneligible, ErrMissingRole)
	}
	if req.CheckAge && AccountAgeDays(c.CreatedAt, now) <= req.MinAgeDays {
		return newClaimError(ReasonIneligible, ErrAccountTooNew)
	}
	return nil
}

func AccountAgeDays(createdAt, now time.Time) int {
	return int(now.Sub(createdAt) / (24 * time.Hour))
}
