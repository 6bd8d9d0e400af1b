package types

import (
	"errors"
	"time"
)

var ErrCommandNotFound = errors.New("command not found")

// CommandInfo is the global (not per-guild) record of a registered
// application command: when it was added, whether it is currently enabled,
// and its usage statistics. UseCount only ever grows; LastUsedAt is bumped
// on every invocation.
type CommandInfo struct {
	Name       string     `bun:",pk"`
	AddedAt    time.Time  `bun:",notnull"`
	Enabled    bool       `bun:",notnull,default:true"`
	UseCount   int64      `bun:",notnull,default:0"`
	LastUsedAt *time.Time `bun:",nullzero"`
}
