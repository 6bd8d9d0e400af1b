package types_test

import (
	"testing"
	"time"

	"github.com/kiyoko-project/kiyoko/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThresholdAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    *types.ThresholdAction
		wantErr bool
	}{
		{
			name: "warn",
			raw:  "warn",
			want: &types.ThresholdAction{Kind: types.ActionWarn},
		},
		{
			name: "kick",
			raw:  "kick",
			want: &types.ThresholdAction{Kind: types.ActionKick},
		},
		{
			name: "ban",
			raw:  "ban",
			want: &types.ThresholdAction{Kind: types.ActionBan},
		},
		{
			name: "timeout with seconds",
			raw:  "timeout 3600",
			want: &types.ThresholdAction{Kind: types.ActionTimeout, Duration: time.Hour},
		},
		{
			name: "extra whitespace",
			raw:  "  timeout   60  ",
			want: &types.ThresholdAction{Kind: types.ActionTimeout, Duration: time.Minute},
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "unknown action",
			raw:     "mute",
			wantErr: true,
		},
		{
			name:    "timeout without duration",
			raw:     "timeout",
			wantErr: true,
		},
		{
			name:    "timeout with junk duration",
			raw:     "timeout soon",
			wantErr: true,
		},
		{
			name:    "timeout with zero duration",
			raw:     "timeout 0",
			wantErr: true,
		},
		{
			name:    "warn with trailing argument",
			raw:     "warn 5",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := types.ParseThresholdAction(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, types.ErrInvalidAction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThresholdActionString(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"warn", "kick", "ban", "timeout 3600"} {
		action, err := types.ParseThresholdAction(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, action.String())
	}
}
