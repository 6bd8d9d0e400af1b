package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kiyoko-project/kiyoko/internal/database/dbretry"
	"github.com/kiyoko-project/kiyoko/internal/database/models"
	"github.com/kiyoko-project/kiyoko/internal/database/types"
	"github.com/kiyoko-project/kiyoko/pkg/utils"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// StrikeService is the strike ledger: it composes the strike entry and
// strike config stores to answer point totals and threshold state, and to
// apply new strikes atomically. It owns no storage of its own.
type StrikeService struct {
	db     *bun.DB
	model  *models.StrikeModel
	config *models.StrikeConfigModel
	locks  pairLock
	logger *zap.Logger
}

// NewStrike creates a new strike ledger service.
func NewStrike(
	db *bun.DB, model *models.StrikeModel, config *models.StrikeConfigModel, logger *zap.Logger,
) *StrikeService {
	return &StrikeService{
		db:     db,
		model:  model,
		config: config,
		logger: logger.Named("strike_service"),
	}
}

// TotalPoints returns the sum of points over all non-expired strikes for a
// user in a guild. Without a decay config every strike counts permanently.
func (s *StrikeService) TotalPoints(
	ctx context.Context, guildID, userID snowflake.ID,
) (int64, error) {
	since, err := s.decayCutoff(ctx, guildID, time.Now())
	if err != nil {
		return 0, err
	}

	return s.model.SumPoints(ctx, guildID, userID, since)
}

// IsOverThreshold reports whether the user's current total meets the guild's
// configured threshold. An unconfigured threshold means no enforcement and
// always reports false.
func (s *StrikeService) IsOverThreshold(
	ctx context.Context, guildID, userID snowflake.ID,
) (bool, error) {
	threshold, ok, err := s.thresholdPoints(ctx, guildID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	total, err := s.TotalPoints(ctx, guildID, userID)
	if err != nil {
		return false, err
	}

	return total >= threshold, nil
}

// ApplyStrike issues a new strike and returns the created entry together
// with the recomputed point total and threshold state. The insert and the
// recomputation run in one transaction, serialized per (guild, user) pair,
// so concurrent strikes on the same user never produce lost updates or torn
// totals. The generated strike ID is tried exactly once; an ID collision
// surfaces as types.ErrStrikeExists for the caller to retry.
func (s *StrikeService) ApplyStrike(
	ctx context.Context, guildID, userID, moderatorID snowflake.ID,
	reason string, points int, issuedAt time.Time, messageRef string,
) (*types.StrikeEntry, int64, bool, error) {
	entry := &types.StrikeEntry{
		GuildID:     guildID,
		UserID:      userID,
		StrikeID:    utils.GenerateStrikeID(),
		ModeratorID: moderatorID,
		Reason:      reason,
		Points:      points,
		IssuedAt:    issuedAt,
		MessageRef:  messageRef,
	}
	if err := models.ValidateStrike(entry); err != nil {
		return nil, 0, false, err
	}

	unlock := s.locks.Lock(guildID, userID)
	defer unlock()

	var (
		total int64
		over  bool
	)

	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		if err := models.InsertStrike(ctx, tx, entry); err != nil {
			return err
		}

		since, err := s.decayCutoffTx(ctx, tx, guildID, issuedAt)
		if err != nil {
			return err
		}

		total, err = models.SumStrikePoints(ctx, tx, guildID, userID, since)
		if err != nil {
			return err
		}

		threshold, ok, err := s.thresholdPointsTx(ctx, tx, guildID)
		if err != nil {
			return err
		}
		over = ok && total >= threshold

		return nil
	})
	if err != nil {
		return nil, 0, false, err
	}

	s.logger.Debug("Applied strike",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)),
		zap.String("strikeID", entry.StrikeID),
		zap.Int64("total", total),
		zap.Bool("overThreshold", over))

	return entry, total, over, nil
}

// PendingAction returns the enforcement action configured for the user's
// current point total, or nil when no threshold is configured or the total
// is still below it. A threshold row without an action parameter defaults
// to a plain warning.
func (s *StrikeService) PendingAction(
	ctx context.Context, guildID, userID snowflake.ID,
) (*types.ThresholdAction, error) {
	cfg, err := s.config.Get(ctx, guildID, types.ConfigKeyThreshold)
	if err != nil {
		if errors.Is(err, types.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, err
	}

	threshold, ok := parseConfigInt(cfg.P1)
	if !ok {
		s.logger.Warn("Ignoring malformed threshold config",
			zap.Uint64("guildID", uint64(guildID)))
		return nil, nil
	}

	total, err := s.TotalPoints(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if total < threshold {
		return nil, nil
	}

	if cfg.P2 == nil || *cfg.P2 == "" {
		return &types.ThresholdAction{Kind: types.ActionWarn}, nil
	}

	action, err := types.ParseThresholdAction(*cfg.P2)
	if err != nil {
		return nil, fmt.Errorf("threshold config for guild %d: %w", guildID, err)
	}
	return action, nil
}

// SetDecay configures strike decay for a guild in whole days.
func (s *StrikeService) SetDecay(ctx context.Context, guildID snowflake.ID, days int) error {
	if days < 1 {
		return fmt.Errorf("%w: decay days must be positive", types.ErrInvalidAction)
	}
	p1 := strconv.Itoa(days)
	return s.config.Set(ctx, guildID, types.ConfigKeyDecayDays, &p1, nil)
}

// SetThreshold configures the enforcement threshold for a guild. A nil
// action stores a plain warning.
func (s *StrikeService) SetThreshold(
	ctx context.Context, guildID snowflake.ID, points int64, action *types.ThresholdAction,
) error {
	if points < 1 {
		return types.ErrInvalidPoints
	}
	if action == nil {
		action = &types.ThresholdAction{Kind: types.ActionWarn}
	}

	p1 := strconv.FormatInt(points, 10)
	p2 := action.String()
	return s.config.Set(ctx, guildID, types.ConfigKeyThreshold, &p1, &p2)
}

// ClearPolicy removes the guild's decay and threshold configuration.
func (s *StrikeService) ClearPolicy(ctx context.Context, guildID snowflake.ID) error {
	if err := s.config.Delete(ctx, guildID, types.ConfigKeyDecayDays); err != nil {
		return err
	}
	return s.config.Delete(ctx, guildID, types.ConfigKeyThreshold)
}

// decayCutoff computes the oldest issuance time that still counts toward
// totals. A zero time means no decay is configured.
func (s *StrikeService) decayCutoff(
	ctx context.Context, guildID snowflake.ID, now time.Time,
) (time.Time, error) {
	cfg, err := s.config.Get(ctx, guildID, types.ConfigKeyDecayDays)
	if err != nil {
		if errors.Is(err, types.ErrConfigNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return s.cutoffFromConfig(cfg, guildID, now), nil
}

func (s *StrikeService) decayCutoffTx(
	ctx context.Context, tx bun.Tx, guildID snowflake.ID, now time.Time,
) (time.Time, error) {
	cfg, err := models.GetStrikeConfig(ctx, tx, guildID, types.ConfigKeyDecayDays)
	if err != nil {
		if errors.Is(err, types.ErrConfigNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return s.cutoffFromConfig(cfg, guildID, now), nil
}

func (s *StrikeService) cutoffFromConfig(
	cfg *types.StrikeConfig, guildID snowflake.ID, now time.Time,
) time.Time {
	days, ok := parseConfigInt(cfg.P1)
	if !ok || days < 1 {
		// Malformed decay config behaves like no decay at all
		s.logger.Warn("Ignoring malformed decay config",
			zap.Uint64("guildID", uint64(guildID)))
		return time.Time{}
	}
	return now.AddDate(0, 0, -int(days))
}

// thresholdPoints reads the guild's threshold. ok is false when none is
// configured or the stored value is malformed.
func (s *StrikeService) thresholdPoints(
	ctx context.Context, guildID snowflake.ID,
) (int64, bool, error) {
	cfg, err := s.config.Get(ctx, guildID, types.ConfigKeyThreshold)
	if err != nil {
		if errors.Is(err, types.ErrConfigNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}

	points, ok := parseConfigInt(cfg.P1)
	if !ok {
		s.logger.Warn("Ignoring malformed threshold config",
			zap.Uint64("guildID", uint64(guildID)))
		return 0, false, nil
	}
	return points, true, nil
}

func (s *StrikeService) thresholdPointsTx(
	ctx context.Context, tx bun.Tx, guildID snowflake.ID,
) (int64, bool, error) {
	cfg, err := models.GetStrikeConfig(ctx, tx, guildID, types.ConfigKeyThreshold)
	if err != nil {
		if errors.Is(err, types.ErrConfigNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}

	points, ok := parseConfigInt(cfg.P1)
	if !ok {
		return 0, false, nil
	}
	return points, true, nil
}

func parseConfigInt(p *string) (int64, bool) {
	if p == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(*p, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
