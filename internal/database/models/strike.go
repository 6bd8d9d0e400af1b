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

// StrikeModel handles database operations for strike entries.
type StrikeModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewStrike creates a StrikeModel with database access.
func NewStrike(db *bun.DB, logger *zap.Logger) *StrikeModel {
	return &StrikeModel{
		db:     db,
		logger: logger.Named("db_strike"),
	}
}

// ValidateStrike checks the invariants every new strike entry must satisfy.
func ValidateStrike(entry *types.StrikeEntry) error {
	if entry.Points < 1 {
		return types.ErrInvalidPoints
	}
	if entry.Reason == "" {
		return types.ErrEmptyReason
	}
	if entry.StrikeID == "" {
		return types.ErrInvalidStrikeID
	}
	return nil
}

// Add persists a new strike entry. The (guild, user, strike ID) triple must
// be unused; a duplicate surfaces as types.ErrStrikeExists and leaves the
// existing entry untouched.
func (m *StrikeModel) Add(ctx context.Context, entry *types.StrikeEntry) error {
	if err := ValidateStrike(entry); err != nil {
		return err
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		return InsertStrike(ctx, m.db, entry)
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Added strike",
		zap.Uint64("guildID", uint64(entry.GuildID)),
		zap.Uint64("userID", uint64(entry.UserID)),
		zap.String("strikeID", entry.StrikeID),
		zap.Int("points", entry.Points))

	return nil
}

// InsertStrike runs the single optimistic insert for a strike entry against
// the given database or transaction handle.
func InsertStrike(ctx context.Context, idb bun.IDB, entry *types.StrikeEntry) error {
	_, err := idb.NewInsert().Model(entry).Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			return types.ErrStrikeExists
		}
		return fmt.Errorf("failed to insert strike: %w", err)
	}
	return nil
}

// List retrieves all strikes for a user in a guild, oldest first. An empty
// slice is returned when the user has no strikes.
func (m *StrikeModel) List(
	ctx context.Context, guildID, userID snowflake.ID,
) ([]*types.StrikeEntry, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.StrikeEntry, error) {
		entries := make([]*types.StrikeEntry, 0)
		err := m.db.NewSelect().
			Model(&entries).
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Order("issued_at ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list strikes: %w", err)
		}
		return entries, nil
	})
}

// Get retrieves a single strike by its ID within a (guild, user) pair.
func (m *StrikeModel) Get(
	ctx context.Context, guildID, userID snowflake.ID, strikeID string,
) (*types.StrikeEntry, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.StrikeEntry, error) {
		entry := new(types.StrikeEntry)
		err := m.db.NewSelect().
			Model(entry).
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Where("strike_id = ?", strikeID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrStrikeNotFound
			}
			return nil, fmt.Errorf("failed to get strike: %w", err)
		}
		return entry, nil
	})
}

// Remove deletes a single strike by its ID. Removing an absent strike
// returns types.ErrStrikeNotFound; callers that want idempotent semantics
// may treat that as success.
func (m *StrikeModel) Remove(
	ctx context.Context, guildID, userID snowflake.ID, strikeID string,
) error {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		res, err := m.db.NewDelete().
			Model((*types.StrikeEntry)(nil)).
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Where("strike_id = ?", strikeID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to remove strike: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 0 {
			return types.ErrStrikeNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Removed strike",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)),
		zap.String("strikeID", strikeID))

	return nil
}

// Clear deletes all strikes for a user in a guild and returns how many were
// removed. Clearing a user without strikes is not an error.
func (m *StrikeModel) Clear(
	ctx context.Context, guildID, userID snowflake.ID,
) (int64, error) {
	affected, err := dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		res, err := m.db.NewDelete().
			Model((*types.StrikeEntry)(nil)).
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to clear strikes: %w", err)
		}
		return res.RowsAffected()
	})
	if err != nil {
		return 0, err
	}

	m.logger.Debug("Cleared strikes",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)),
		zap.Int64("removed", affected))

	return affected, nil
}

// SumPoints returns the total points of all strikes for a user issued at or
// after since. A zero since counts every strike.
func (m *StrikeModel) SumPoints(
	ctx context.Context, guildID, userID snowflake.ID, since time.Time,
) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		return SumStrikePoints(ctx, m.db, guildID, userID, since)
	})
}

// SumStrikePoints runs the point aggregation against the given database or
// transaction handle.
func SumStrikePoints(
	ctx context.Context, idb bun.IDB, guildID, userID snowflake.ID, since time.Time,
) (int64, error) {
	query := idb.NewSelect().
		Model((*types.StrikeEntry)(nil)).
		ColumnExpr("COALESCE(SUM(points), 0)").
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID)
	if !since.IsZero() {
		query = query.Where("issued_at >= ?", since)
	}

	var total int64
	if err := query.Scan(ctx, &total); err != nil {
		return 0, fmt.Errorf("failed to sum strike points: %w", err)
	}
	return total, nil
}

// DeleteExpired removes all strikes in a guild issued before the cutoff.
// Used by the decay sweeper.
func (m *StrikeModel) DeleteExpired(
	ctx context.Context, guildID snowflake.ID, cutoff time.Time,
) (int64, error) {
	affected, err := dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		res, err := m.db.NewDelete().
			Model((*types.StrikeEntry)(nil)).
			Where("guild_id = ?", guildID).
			Where("issued_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to delete expired strikes: %w", err)
		}
		return res.RowsAffected()
	})
	if err != nil {
		return 0, err
	}

	if affected > 0 {
		m.logger.Debug("Deleted expired strikes",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Int64("removed", affected))
	}

	return affected, nil
}
