package models_test

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kiyoko-project/kiyoko/internal/database/dbtest"
	"github.com/kiyoko-project/kiyoko/internal/database/models"
	"github.com/kiyoko-project/kiyoko/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strptr(s string) *string { return &s }

func TestStrikeConfigModel_SetUpsert(t *testing.T) {
	t.Parallel()
	model := models.NewStrikeConfig(dbtest.New(t), zap.NewNop())
	ctx := t.Context()

	require.NoError(t, model.Set(ctx, testGuild, types.ConfigKeyThreshold, strptr("5"), strptr("kick")))
	require.NoError(t, model.Set(ctx, testGuild, types.ConfigKeyThreshold, strptr("10"), strptr("ban")))

	// Setting twice leaves exactly one row holding the second write
	cfg, err := model.Get(ctx, testGuild, types.ConfigKeyThreshold)
	require.NoError(t, err)
	require.NotNil(t, cfg.P1)
	require.NotNil(t, cfg.P2)
	assert.Equal(t, "10", *cfg.P1)
	assert.Equal(t, "ban", *cfg.P2)

	configs, err := model.List(ctx, testGuild)
	require.NoError(t, err)
	assert.Len(t, configs, 1)
}

func TestStrikeConfigModel_GetNotFound(t *testing.T) {
	t.Parallel()
	model := models.NewStrikeConfig(dbtest.New(t), zap.NewNop())

	_, err := model.Get(t.Context(), testGuild, types.ConfigKeyDecayDays)
	require.ErrorIs(t, err, types.ErrConfigNotFound)
}

func TestStrikeConfigModel_List(t *testing.T) {
	t.Parallel()
	model := models.NewStrikeConfig(dbtest.New(t), zap.NewNop())
	ctx := t.Context()

	require.NoError(t, model.Set(ctx, testGuild, types.ConfigKeyDecayDays, strptr("30"), nil))
	require.NoError(t, model.Set(ctx, testGuild, types.ConfigKeyThreshold, strptr("5"), nil))
	require.NoError(t, model.Set(ctx, testGuild+1, types.ConfigKeyDecayDays, strptr("7"), nil))

	configs, err := model.List(ctx, testGuild)
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Contains(t, configs, types.ConfigKeyDecayDays)
	assert.Contains(t, configs, types.ConfigKeyThreshold)
	assert.Equal(t, "30", *configs[types.ConfigKeyDecayDays].P1)
}

func TestStrikeConfigModel_Delete(t *testing.T) {
	t.Parallel()
	model := models.NewStrikeConfig(dbtest.New(t), zap.NewNop())
	ctx := t.Context()

	require.NoError(t, model.Set(ctx, testGuild, types.ConfigKeyDecayDays, strptr("30"), nil))
	require.NoError(t, model.Delete(ctx, testGuild, types.ConfigKeyDecayDays))

	_, err := model.Get(ctx, testGuild, types.ConfigKeyDecayDays)
	require.ErrorIs(t, err, types.ErrConfigNotFound)

	// Deleting an absent row is not an error
	require.NoError(t, model.Delete(ctx, testGuild, types.ConfigKeyDecayDays))
}

func TestStrikeConfigModel_ListDecay(t *testing.T) {
	t.Parallel()
	model := models.NewStrikeConfig(dbtest.New(t), zap.NewNop())
	ctx := t.Context()

	require.NoError(t, model.Set(ctx, testGuild, types.ConfigKeyDecayDays, strptr("30"), nil))
	require.NoError(t, model.Set(ctx, testGuild, types.ConfigKeyThreshold, strptr("5"), nil))
	require.NoError(t, model.Set(ctx, testGuild+1, types.ConfigKeyDecayDays, strptr("7"), nil))

	rows, err := model.ListDecay(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	guilds := make(map[snowflake.ID]string, len(rows))
	for _, row := range rows {
		assert.Equal(t, types.ConfigKeyDecayDays, row.Key)
		guilds[row.GuildID] = *row.P1
	}
	assert.Equal(t, map[snowflake.ID]string{testGuild: "30", testGuild + 1: "7"}, guilds)
}
