package types

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

var (
	ErrStrikeNotFound  = errors.New("strike not found")
	ErrStrikeExists    = errors.New("strike already exists")
	ErrInvalidPoints   = errors.New("strike points must be positive")
	ErrEmptyReason     = errors.New("strike reason must not be empty")
	ErrInvalidStrikeID = errors.New("invalid strike ID")
	ErrConfigNotFound  = errors.New("strike config not found")
	ErrInvalidAction   = errors.New("invalid threshold action")
)

// Strike config keys understood by the ledger. Other keys may be stored
// freely; their interpretation belongs to the caller.
const (
	ConfigKeyDecayDays = "decay_days"
	ConfigKeyThreshold = "threshold"
)

// StrikeEntry is a single moderation strike issued to a user in a guild.
// Entries are immutable once written; the only lifecycle transition is
// deletion, either explicit or through decay.
type StrikeEntry struct {
	GuildID     snowflake.ID `bun:",pk"`        // Guild the strike was issued in
	UserID      snowflake.ID `bun:",pk"`        // Struck user
	StrikeID    string       `bun:",pk"`        // Short ID, unique within (guild, user)
	ModeratorID snowflake.ID `bun:",notnull"`   // Moderator who issued the strike
	Reason      string       `bun:",notnull"`   // Why the strike was issued
	Points      int          `bun:",notnull"`   // Point value, always positive
	IssuedAt    time.Time    `bun:",notnull"`   // When the strike was issued
	MessageRef  string       `bun:",nullzero"`  // Optional link to the offending message
}

// StrikeConfig is a per-guild named configuration row with up to two
// free-form parameters whose meaning depends on the key.
type StrikeConfig struct {
	GuildID snowflake.ID `bun:",pk"`
	Key     string       `bun:",pk"`
	P1      *string      `bun:",nullzero"`
	P2      *string      `bun:",nullzero"`
}

// ActionKind is the kind of enforcement action a threshold triggers.
type ActionKind string

const (
	ActionWarn    ActionKind = "warn"
	ActionTimeout ActionKind = "timeout"
	ActionKick    ActionKind = "kick"
	ActionBan     ActionKind = "ban"
)

// ThresholdAction is the parsed form of a threshold config row's action
// parameter: an action kind plus an optional duration for timeouts.
type ThresholdAction struct {
	Kind     ActionKind
	Duration time.Duration
}

// ParseThresholdAction parses an action string of the form
// "warn", "kick", "ban" or "timeout <seconds>".
func ParseThresholdAction(raw string) (*ThresholdAction, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, ErrInvalidAction
	}

	kind := ActionKind(fields[0])
	switch kind {
	case ActionWarn, ActionKick, ActionBan:
		if len(fields) != 1 {
			return nil, ErrInvalidAction
		}
		return &ThresholdAction{Kind: kind}, nil
	case ActionTimeout:
		if len(fields) != 2 {
			return nil, ErrInvalidAction
		}
		secs, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || secs <= 0 {
			return nil, ErrInvalidAction
		}
		return &ThresholdAction{Kind: kind, Duration: time.Duration(secs) * time.Second}, nil
	default:
		return nil, ErrInvalidAction
	}
}

// String formats the action back into its stored form.
func (a *ThresholdAction) String() string {
	if a.Kind == ActionTimeout {
		return string(a.Kind) + " " + strconv.FormatInt(int64(a.Duration/time.Second), 10)
	}
	return string(a.Kind)
}
