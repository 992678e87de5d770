package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ConfigEntry struct {
	bun.BaseModel `bun:"table:config"`

	Key       string    `bun:"key,pk,type:varchar(255)"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
