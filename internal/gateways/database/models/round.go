package models

import (
	"time"

	"github.com/uptrace/bun"
)

type RoundStatus string

const (
	RoundActive    RoundStatus = "active"
	RoundCompleted RoundStatus = "completed"
)

// Round numbers are chosen by an administrator, not generated.
type Round struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	Number   int64       `bun:"number,pk"`
	Status   RoundStatus `bun:"status,notnull"`
	OpenedAt time.Time   `bun:"opened_at,notnull,default:current_timestamp"`
}
