package types

import (
	"errors"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

var ErrGuildNotFound = errors.New("guild not found")

// Guild records a guild the application has joined. Rows survive the
// application leaving so that history is kept across re-joins; LeftAt is
// nil while the guild is currently joined.
type Guild struct {
	ID       snowflake.ID `bun:",pk"`
	JoinedAt time.Time    `bun:",notnull"`
	LeftAt   *time.Time   `bun:",nullzero"`
}

// IsActive reports whether the application is currently in the guild.
func (g *Guild) IsActive() bool {
	return g.LeftAt == nil
}

// GuildSettings holds the per-guild configuration document. There is at
// most one row per guild, created lazily with an empty document on first
// read.
type GuildSettings struct {
	GuildID snowflake.ID `bun:",pk"`
	Config  SettingsDoc  `bun:"type:jsonb,notnull"`
}
