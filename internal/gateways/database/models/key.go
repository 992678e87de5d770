package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Key is a single-use token. Claim columns are written once, together, by
// the claim transaction and never cleared.
type Key struct {
	bun.BaseModel `bun:"table:keys,alias:k"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Value       string    `bun:"value,notnull,unique"`
	Claimed     bool      `bun:"claimed,notnull,default:false"`
	UserID      *int64    `bun:"user_id"`
	ClaimedAt   time.Time `bun:"claimed_at,nullzero"`
	AddedAt     time.Time `bun:"added_at,notnull,default:current_timestamp"`
	RoundNumber *int64    `bun:"round_number"`

	// Relations
	User  *User  `bun:"rel:belongs-to,join:user_id=id"`
	Round *Round `bun:"rel:belongs-to,join:round_number=number"`
}
