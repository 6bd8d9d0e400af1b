package service

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// pairLock serializes work per (guild, user) pair. Different pairs proceed
// in parallel; the same pair is mutually exclusive. Entries are never
// evicted, which is acceptable because the set of recently moderated pairs
// is small relative to process lifetime.
type pairLock struct {
	locks sync.Map
}

type pairKey struct {
	guildID snowflake.ID
	userID  snowflake.ID
}

// Lock acquires the mutex for the pair and returns its unlock function.
func (l *pairLock) Lock(guildID, userID snowflake.ID) func() {
	v, _ := l.locks.LoadOrStore(pairKey{guildID, userID}, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
