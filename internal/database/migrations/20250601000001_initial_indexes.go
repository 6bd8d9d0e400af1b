package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Strike listing and point aggregation per user
			CREATE INDEX IF NOT EXISTS idx_strike_entries_user_time
			ON strike_entries (guild_id, user_id, issued_at ASC);

			-- Decay sweeping per guild
			CREATE INDEX IF NOT EXISTS idx_strike_entries_guild_time
			ON strike_entries (guild_id, issued_at ASC);

			-- Sweeper lookup of decay rows across guilds
			CREATE INDEX IF NOT EXISTS idx_strike_configs_key
			ON strike_configs (key);

			-- Departed guild purging
			CREATE INDEX IF NOT EXISTS idx_guilds_left_at
			ON guilds (left_at)
			WHERE left_at IS NOT NULL;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create initial indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_strike_entries_user_time;
			DROP INDEX IF EXISTS idx_strike_entries_guild_time;
			DROP INDEX IF EXISTS idx_strike_configs_key;
			DROP INDEX IF EXISTS idx_guilds_left_at;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop initial indexes: %w", err)
		}

		return nil
	})
}
