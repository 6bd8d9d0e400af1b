package migrations

import (
	"context"
	"fmt"

	"github.com/kiyoko-project/kiyoko/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		// Uniqueness of (guild_id, user_id, strike_id) on strike entries and
		// (guild_id, key) on strike configs is carried by the composite
		// primary keys. Referential integrity is deliberately not enforced
		// by the engine; cascades are explicit model-layer deletes.
		models := []any{
			(*types.Guild)(nil),
			(*types.GuildSettings)(nil),
			(*types.CommandInfo)(nil),
			(*types.StrikeEntry)(nil),
			(*types.StrikeConfig)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.StrikeConfig)(nil),
			(*types.StrikeEntry)(nil),
			(*types.CommandInfo)(nil),
			(*types.GuildSettings)(nil),
			(*types.Guild)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table for %T: %w", model, err)
			}
		}

		return nil
	})
}
