package models_test

import (
	"testing"
	"time"

	"github.com/kiyoko-project/kiyoko/internal/database/dbtest"
	"github.com/kiyoko-project/kiyoko/internal/database/models"
	"github.com/kiyoko-project/kiyoko/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCommandModel_Register(t *testing.T) {
	t.Parallel()
	model := models.NewCommand(dbtest.New(t), zap.NewNop())
	ctx := t.Context()

	added := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, model.Register(ctx, "mod strike add", added))

	info, err := model.Get(ctx, "mod strike add")
	require.NoError(t, err)
	assert.True(t, info.Enabled)
	assert.Zero(t, info.UseCount)
	assert.Nil(t, info.LastUsedAt)
	assert.Equal(t, added, info.AddedAt.UTC())

	// Re-registering keeps the original added_at and enabled state
	require.NoError(t, model.SetEnabled(ctx, "mod strike add", false))
	require.NoError(t, model.Register(ctx, "mod strike add", added.Add(time.Hour)))

	info, err = model.Get(ctx, "mod strike add")
	require.NoError(t, err)
	assert.False(t, info.Enabled)
	assert.Equal(t, added, info.AddedAt.UTC())
}

func TestCommandModel_RecordUse(t *testing.T) {
	t.Parallel()
	model := models.NewCommand(dbtest.New(t), zap.NewNop())
	ctx := t.Context()

	added := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, model.Register(ctx, "profile", added))

	for i := range 3 {
		require.NoError(t, model.RecordUse(ctx, "profile", added.Add(time.Duration(i+1)*time.Minute)))
	}

	info, err := model.Get(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.UseCount)
	require.NotNil(t, info.LastUsedAt)
	assert.Equal(t, added.Add(3*time.Minute), info.LastUsedAt.UTC())
}

func TestCommandModel_NotFound(t *testing.T) {
	t.Parallel()
	model := models.NewCommand(dbtest.New(t), zap.NewNop())
	ctx := t.Context()

	_, err := model.Get(ctx, "missing")
	require.ErrorIs(t, err, types.ErrCommandNotFound)

	require.ErrorIs(t, model.RecordUse(ctx, "missing", time.Now()), types.ErrCommandNotFound)
	require.ErrorIs(t, model.SetEnabled(ctx, "missing", true), types.ErrCommandNotFound)
}

func TestCommandModel_List(t *testing.T) {
	t.Parallel()
	model := models.NewCommand(dbtest.New(t), zap.NewNop())
	ctx := t.Context()

	added := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, model.Register(ctx, "profile", added))
	require.NoError(t, model.Register(ctx, "mod strike add", added))

	infos, err := model.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "mod strike add", infos[0].Name)
	assert.Equal(t, "profile", infos[1].Name)
}
