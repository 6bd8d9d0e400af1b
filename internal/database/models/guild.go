package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kiyoko-project/kiyoko/internal/database/dbretry"
	"github.com/kiyoko-project/kiyoko/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// GuildModel handles database operations for guild membership bookkeeping.
type GuildModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewGuild creates a GuildModel with database access.
func NewGuild(db *bun.DB, logger *zap.Logger) *GuildModel {
	return &GuildModel{
		db:     db,
		logger: logger.Named("db_guild"),
	}
}

// Upsert records that the application joined a guild. A first join inserts
// the row; a re-join clears left_at and keeps the original joined_at so
// history survives.
func (m *GuildModel) Upsert(ctx context.Context, guildID snowflake.ID, joinedAt time.Time) error {
	guild := &types.Guild{
		ID:       guildID,
		JoinedAt: joinedAt,
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(guild).
			On("CONFLICT (id) DO UPDATE").
			Set("left_at = NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert guild: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Upserted guild", zap.Uint64("guildID", uint64(guildID)))

	return nil
}

// MarkLeft records that the application left a guild. The row is kept so a
// later re-join does not lose history.
func (m *GuildModel) MarkLeft(ctx context.Context, guildID snowflake.ID, leftAt time.Time) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		res, err := m.db.NewUpdate().
			Model((*types.Guild)(nil)).
			Set("left_at = ?", leftAt).
			Where("id = ?", guildID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark guild as left: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 0 {
			return types.ErrGuildNotFound
		}
		return nil
	})
}

// Get retrieves a guild by its ID.
func (m *GuildModel) Get(ctx context.Context, guildID snowflake.ID) (*types.Guild, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Guild, error) {
		guild := new(types.Guild)
		err := m.db.NewSelect().
			Model(guild).
			Where("id = ?", guildID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrGuildNotFound
			}
			return nil, fmt.Errorf("failed to get guild: %w", err)
		}
		return guild, nil
	})
}

// ListActive retrieves all guilds the application is currently in.
func (m *GuildModel) ListActive(ctx context.Context) ([]*types.Guild, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Guild, error) {
		guilds := make([]*types.Guild, 0)
		err := m.db.NewSelect().
			Model(&guilds).
			Where("left_at IS NULL").
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active guilds: %w", err)
		}
		return guilds, nil
	})
}

// PurgeDeparted deletes guilds that were left before the cutoff, together
// with their settings and strike data. Foreign-key enforcement is disabled
// at the engine level, so the cascade is explicit and runs in one
// transaction.
func (m *GuildModel) PurgeDeparted(ctx context.Context, olderThan time.Time) (int64, error) {
	var purged int64

	err := dbretry.Transaction(ctx, m.db, func(ctx context.Context, tx bun.Tx) error {
		var ids []snowflake.ID
		err := tx.NewSelect().
			Model((*types.Guild)(nil)).
			Column("id").
			Where("left_at IS NOT NULL").
			Where("left_at < ?", olderThan).
			Scan(ctx, &ids)
		if err != nil {
			return fmt.Errorf("failed to find departed guilds: %w", err)
		}

		if len(ids) == 0 {
			return nil
		}

		cascade := []any{
			(*types.GuildSettings)(nil),
			(*types.StrikeEntry)(nil),
			(*types.StrikeConfig)(nil),
		}
		for _, model := range cascade {
			if _, err := tx.NewDelete().
				Model(model).
				Where("guild_id IN (?)", bun.In(ids)).
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to purge guild data: %w", err)
			}
		}

		res, err := tx.NewDelete().
			Model((*types.Guild)(nil)).
			Where("id IN (?)", bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to purge guilds: %w", err)
		}

		purged, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if purged > 0 {
		m.logger.Info("Purged departed guilds", zap.Int64("count", purged))
	}

	return purged, nil
}
