package database

import (
	"github.com/kiyoko-project/kiyoko/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	guild        *models.GuildModel
	setting      *models.SettingModel
	command      *models.CommandModel
	strike       *models.StrikeModel
	strikeConfig *models.StrikeConfigModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		guild:        models.NewGuild(db, logger),
		setting:      models.NewSetting(db, logger),
		command:      models.NewCommand(db, logger),
		strike:       models.NewStrike(db, logger),
		strikeConfig: models.NewStrikeConfig(db, logger),
	}
}

// Guild returns the guild model repository.
func (r *Repository) Guild() *models.GuildModel {
	return r.guild
}

// Setting returns the guild settings model repository.
func (r *Repository) Setting() *models.SettingModel {
	return r.setting
}

// Command returns the command info model repository.
func (r *Repository) Command() *models.CommandModel {
	return r.command
}

// Strike returns the strike entry model repository.
func (r *Repository) Strike() *models.StrikeModel {
	return r.strike
}

// StrikeConfig returns the strike config model repository.
func (r *Repository) StrikeConfig() *models.StrikeConfigModel {
	return r.strikeConfig
}
