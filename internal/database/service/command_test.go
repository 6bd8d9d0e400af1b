package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandService_TouchRegistersOnFirstUse(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := t.Context()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	enabled, err := db.Service().Command().Touch(ctx, "profile", at)
	require.NoError(t, err)
	assert.True(t, enabled)

	info, err := db.Model().Command().Get(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.UseCount)
	require.NotNil(t, info.LastUsedAt)
	assert.Equal(t, at, info.LastUsedAt.UTC())
}

func TestCommandService_TouchCounts(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := t.Context()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		_, err := db.Service().Command().Touch(ctx, "profile", at.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	info, err := db.Model().Command().Get(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.UseCount)
	assert.Equal(t, at.Add(4*time.Minute), info.LastUsedAt.UTC())
}

func TestCommandService_TouchDisabled(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := t.Context()

	at := time.Now()
	_, err := db.Service().Command().Touch(ctx, "profile", at)
	require.NoError(t, err)

	require.NoError(t, db.Model().Command().SetEnabled(ctx, "profile", false))

	// Disabled commands still count uses, the caller decides what to do
	enabled, err := db.Service().Command().Touch(ctx, "profile", at.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, enabled)

	info, err := db.Model().Command().Get(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.UseCount)
}
