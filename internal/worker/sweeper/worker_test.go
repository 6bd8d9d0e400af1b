package sweeper_test

import (
	"context"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kiyoko-project/kiyoko/internal/database"
	"github.com/kiyoko-project/kiyoko/internal/database/dbtest"
	"github.com/kiyoko-project/kiyoko/internal/database/types"
	"github.com/kiyoko-project/kiyoko/internal/setup/config"
	"github.com/kiyoko-project/kiyoko/internal/worker/sweeper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testGuild = snowflake.ID(100)
	testUser  = snowflake.ID(200)
	testMod   = snowflake.ID(1)
)

func addStrike(t *testing.T, db database.Client, guildID snowflake.ID, strikeID string, issuedAt time.Time) {
	t.Helper()
	require.NoError(t, db.Model().Strike().Add(t.Context(), &types.StrikeEntry{
		GuildID:     guildID,
		UserID:      testUser,
		StrikeID:    strikeID,
		ModeratorID: testMod,
		Reason:      "spam",
		Points:      1,
		IssuedAt:    issuedAt,
	}))
}

func TestWorkerSweepDecay(t *testing.T) {
	t.Parallel()
	db := dbtest.NewClient(t, nil)
	ctx := t.Context()

	now := time.Now()
	require.NoError(t, db.Service().Strike().SetDecay(ctx, testGuild, 30))

	addStrike(t, db, testGuild, "old1", now.AddDate(0, 0, -60))
	addStrike(t, db, testGuild, "old2", now.AddDate(0, 0, -31))
	addStrike(t, db, testGuild, "new1", now.AddDate(0, 0, -1))

	// A guild without a decay config keeps everything
	addStrike(t, db, testGuild+1, "keep", now.AddDate(0, 0, -365))

	worker := sweeper.New(db, &config.Sweeper{}, zap.NewNop())
	worker.Sweep(ctx)

	entries, err := db.Model().Strike().List(ctx, testGuild, testUser)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new1", entries[0].StrikeID)

	entries, err = db.Model().Strike().List(ctx, testGuild+1, testUser)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWorkerSweepSkipsMalformedDecay(t *testing.T) {
	t.Parallel()
	db := dbtest.NewClient(t, nil)
	ctx := t.Context()

	now := time.Now()
	bad := "soon"
	require.NoError(t, db.Model().StrikeConfig().Set(
		ctx, testGuild, types.ConfigKeyDecayDays, &bad, nil))

	addStrike(t, db, testGuild, "old1", now.AddDate(0, 0, -365))

	worker := sweeper.New(db, &config.Sweeper{}, zap.NewNop())
	worker.Sweep(ctx)

	entries, err := db.Model().Strike().List(ctx, testGuild, testUser)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWorkerSweepPurgesDepartedGuilds(t *testing.T) {
	t.Parallel()
	db := dbtest.NewClient(t, nil)
	ctx := t.Context()

	now := time.Now()
	joined := now.AddDate(0, -6, 0)

	require.NoError(t, db.Model().Guild().Upsert(ctx, testGuild, joined))
	addStrike(t, db, testGuild, "ab12", now)
	require.NoError(t, db.Model().Guild().MarkLeft(ctx, testGuild, now.AddDate(0, 0, -90)))

	// Left recently; retained
	require.NoError(t, db.Model().Guild().Upsert(ctx, testGuild+1, joined))
	require.NoError(t, db.Model().Guild().MarkLeft(ctx, testGuild+1, now.AddDate(0, 0, -2)))

	worker := sweeper.New(db, &config.Sweeper{GuildRetentionDays: 30}, zap.NewNop())
	worker.Sweep(ctx)

	_, err := db.Model().Guild().Get(ctx, testGuild)
	require.ErrorIs(t, err, types.ErrGuildNotFound)

	entries, err := db.Model().Strike().List(ctx, testGuild, testUser)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = db.Model().Guild().Get(ctx, testGuild+1)
	require.NoError(t, err)
}

func TestWorkerStartStops(t *testing.T) {
	t.Parallel()
	db := dbtest.NewClient(t, nil)

	ctx, cancel := context.WithCancel(t.Context())

	worker := sweeper.New(db, &config.Sweeper{Interval: 1}, zap.NewNop())

	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
