package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kiyoko-project/kiyoko/internal/database/dbretry"
	"github.com/kiyoko-project/kiyoko/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// StrikeConfigModel handles database operations for per-guild strike
// configuration rows. At most one row exists per (guild, key); Set has
// upsert semantics.
type StrikeConfigModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewStrikeConfig creates a StrikeConfigModel with database access.
func NewStrikeConfig(db *bun.DB, logger *zap.Logger) *StrikeConfigModel {
	return &StrikeConfigModel{
		db:     db,
		logger: logger.Named("db_strike_config"),
	}
}

// Set inserts or replaces the config row for (guild, key).
func (m *StrikeConfigModel) Set(
	ctx context.Context, guildID snowflake.ID, key string, p1, p2 *string,
) error {
	cfg := &types.StrikeConfig{
		GuildID: guildID,
		Key:     key,
		P1:      p1,
		P2:      p2,
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(cfg).
			On("CONFLICT (guild_id, key) DO UPDATE").
			Set("p1 = EXCLUDED.p1").
			Set("p2 = EXCLUDED.p2").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to set strike config: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Set strike config",
		zap.Uint64("guildID", uint64(guildID)),
		zap.String("key", key))

	return nil
}

// Get retrieves the config row for (guild, key).
func (m *StrikeConfigModel) Get(
	ctx context.Context, guildID snowflake.ID, key string,
) (*types.StrikeConfig, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.StrikeConfig, error) {
		return GetStrikeConfig(ctx, m.db, guildID, key)
	})
}

// GetStrikeConfig runs the config lookup against the given database or
// transaction handle.
func GetStrikeConfig(
	ctx context.Context, idb bun.IDB, guildID snowflake.ID, key string,
) (*types.StrikeConfig, error) {
	cfg := new(types.StrikeConfig)
	err := idb.NewSelect().
		Model(cfg).
		Where("guild_id = ?", guildID).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get strike config: %w", err)
	}
	return cfg, nil
}

// List retrieves all config rows for a guild keyed by config key.
func (m *StrikeConfigModel) List(
	ctx context.Context, guildID snowflake.ID,
) (map[string]*types.StrikeConfig, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (map[string]*types.StrikeConfig, error) {
		var rows []*types.StrikeConfig
		err := m.db.NewSelect().
			Model(&rows).
			Where("guild_id = ?", guildID).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list strike configs: %w", err)
		}

		configs := make(map[string]*types.StrikeConfig, len(rows))
		for _, cfg := range rows {
			configs[cfg.Key] = cfg
		}
		return configs, nil
	})
}

// Delete removes the config row for (guild, key). Deleting an absent row is
// not an error.
func (m *StrikeConfigModel) Delete(ctx context.Context, guildID snowflake.ID, key string) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewDelete().
			Model((*types.StrikeConfig)(nil)).
			Where("guild_id = ?", guildID).
			Where("key = ?", key).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete strike config: %w", err)
		}
		return nil
	})
}

// ListDecay retrieves the decay config rows of all guilds that have one.
// Used by the decay sweeper to find guilds with expiring strikes.
func (m *StrikeConfigModel) ListDecay(ctx context.Context) ([]*types.StrikeConfig, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.StrikeConfig, error) {
		var rows []*types.StrikeConfig
		err := m.db.NewSelect().
			Model(&rows).
			Where("key = ?", types.ConfigKeyDecayDays).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list decay configs: %w", err)
		}
		return rows, nil
	})
}
