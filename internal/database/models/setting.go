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

// SettingModel handles database operations for per-guild settings documents.
type SettingModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSetting creates a SettingModel with database access.
func NewSetting(db *bun.DB, logger *zap.Logger) *SettingModel {
	return &SettingModel{
		db:     db,
		logger: logger.Named("db_setting"),
	}
}

// Get retrieves the settings document for a guild, creating an empty one on
// first access.
func (m *SettingModel) Get(ctx context.Context, guildID snowflake.ID) (*types.GuildSettings, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.GuildSettings, error) {
		settings := &types.GuildSettings{
			GuildID: guildID,
			Config:  types.NewSettingsDoc(),
		}

		err := m.db.NewSelect().Model(settings).
			WherePK().
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Create the empty document if none exists
				_, err = m.db.NewInsert().Model(settings).Exec(ctx)
				if err != nil && !IsUniqueViolation(err) {
					return nil, fmt.Errorf("failed to create guild settings: %w (guildID=%d)", err, guildID)
				}
			} else {
				return nil, fmt.Errorf("failed to get guild settings: %w (guildID=%d)", err, guildID)
			}
		}

		if settings.Config == nil {
			settings.Config = types.NewSettingsDoc()
		}

		return settings, nil
	})
}

// Save updates or creates the settings document for a guild.
func (m *SettingModel) Save(ctx context.Context, settings *types.GuildSettings) error {
	if settings.Config == nil {
		settings.Config = types.NewSettingsDoc()
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(settings).
			On("CONFLICT (guild_id) DO UPDATE").
			Set("config = EXCLUDED.config").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save guild settings: %w (guildID=%d)", err, settings.GuildID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Saved guild settings", zap.Uint64("guildID", uint64(settings.GuildID)))

	return nil
}
