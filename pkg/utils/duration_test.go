package utils_test

import (
	"testing"
	"time"

	"github.com/kiyoko-project/kiyoko/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{
			name:  "hours",
			input: "12h",
			want:  12 * time.Hour,
		},
		{
			name:  "days",
			input: "30d",
			want:  30 * 24 * time.Hour,
		},
		{
			name:  "combined units",
			input: "1w2d",
			want:  9 * 24 * time.Hour,
		},
		{
			name:  "repeated units accumulate",
			input: "1d1d",
			want:  2 * 24 * time.Hour,
		},
		{
			name:  "month is four weeks",
			input: "1m",
			want:  28 * 24 * time.Hour,
		},
		{
			name:  "year is twelve months",
			input: "1y",
			want:  12 * 28 * 24 * time.Hour,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "missing unit",
			input:   "30",
			wantErr: true,
		},
		{
			name:    "unknown unit",
			input:   "10s",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := utils.ParseDuration(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, utils.ErrInvalidDuration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationDays(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 30, utils.DurationDays(30*24*time.Hour))
	assert.Equal(t, 0, utils.DurationDays(23*time.Hour))
	assert.Equal(t, 1, utils.DurationDays(36*time.Hour))
}

func TestGenerateStrikeID(t *testing.T) {
	t.Parallel()
	for range 100 {
		id := utils.GenerateStrikeID()
		assert.Len(t, id, utils.StrikeIDLength)
		for _, c := range id {
			assert.Contains(t, "0123456789abcdef", string(c))
		}
	}
}
