package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kiyoko-project/kiyoko/internal/database/dbretry"
	"github.com/kiyoko-project/kiyoko/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// CommandModel handles database operations for global command metadata and
// usage statistics. The store may be shared by several processes, so the
// usage counter is bumped with a single atomic UPDATE rather than a
// read-modify-write.
type CommandModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewCommand creates a CommandModel with database access.
func NewCommand(db *bun.DB, logger *zap.Logger) *CommandModel {
	return &CommandModel{
		db:     db,
		logger: logger.Named("db_command"),
	}
}

// Register records a command. Registering an already known command keeps the
// original added_at and enabled state.
func (m *CommandModel) Register(ctx context.Context, name string, addedAt time.Time) error {
	info := &types.CommandInfo{
		Name:    name,
		AddedAt: addedAt,
		Enabled: true,
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(info).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to register command: %w (name=%s)", err, name)
		}
		return nil
	})
}

// Get retrieves a command's metadata by its fully qualified name.
func (m *CommandModel) Get(ctx context.Context, name string) (*types.CommandInfo, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.CommandInfo, error) {
		info := new(types.CommandInfo)
		err := m.db.NewSelect().
			Model(info).
			Where("name = ?", name).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrCommandNotFound
			}
			return nil, fmt.Errorf("failed to get command: %w (name=%s)", err, name)
		}
		return info, nil
	})
}

// SetEnabled toggles a command on or off.
func (m *CommandModel) SetEnabled(ctx context.Context, name string, enabled bool) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		res, err := m.db.NewUpdate().
			Model((*types.CommandInfo)(nil)).
			Set("enabled = ?", enabled).
			Where("name = ?", name).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to set command enabled: %w (name=%s)", err, name)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 0 {
			return types.ErrCommandNotFound
		}
		return nil
	})
}

// RecordUse bumps the usage counter and last-used timestamp of a command in
// one atomic statement.
func (m *CommandModel) RecordUse(ctx context.Context, name string, at time.Time) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		res, err := m.db.NewUpdate().
			Model((*types.CommandInfo)(nil)).
			Set("use_count = use_count + 1").
			Set("last_used_at = ?", at).
			Where("name = ?", name).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to record command use: %w (name=%s)", err, name)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 0 {
			return types.ErrCommandNotFound
		}
		return nil
	})
}

// List retrieves all registered commands ordered by name.
func (m *CommandModel) List(ctx context.Context) ([]*types.CommandInfo, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.CommandInfo, error) {
		infos := make([]*types.CommandInfo, 0)
		err := m.db.NewSelect().
			Model(&infos).
			Order("name ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list commands: %w", err)
		}
		return infos, nil
	})
}
