package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/kiyoko-project/kiyoko/internal/database/models"
	"github.com/kiyoko-project/kiyoko/internal/database/types"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// settingsCacheTTL bounds staleness if an invalidation is lost.
const settingsCacheTTL = 10 * time.Minute

// GuildService handles guild membership bookkeeping and settings access.
// Settings documents are read on nearly every gateway event, so reads go
// through a Redis cache with singleflight protecting the database on cold
// keys; writes go through to the database and invalidate the cache.
type GuildService struct {
	model    *models.GuildModel
	settings *models.SettingModel
	redis    rueidis.Client
	group    singleflight.Group
	logger   *zap.Logger
}

// NewGuild creates a new guild service.
func NewGuild(
	model *models.GuildModel, settings *models.SettingModel, redis rueidis.Client, logger *zap.Logger,
) *GuildService {
	return &GuildService{
		model:    model,
		settings: settings,
		redis:    redis,
		logger:   logger.Named("guild_service"),
	}
}

func settingsCacheKey(guildID snowflake.ID) string {
	return fmt.Sprintf("kiyoko:settings:%d", guildID)
}

// HandleJoin records that the application joined a guild and makes sure a
// settings document exists for it.
func (s *GuildService) HandleJoin(ctx context.Context, guildID snowflake.ID, joinedAt time.Time) error {
	if err := s.model.Upsert(ctx, guildID, joinedAt); err != nil {
		return err
	}

	// Lazily creates the empty document
	if _, err := s.settings.Get(ctx, guildID); err != nil {
		return err
	}

	s.logger.Info("Guild joined", zap.Uint64("guildID", uint64(guildID)))

	return nil
}

// HandleLeave records that the application left a guild. Settings and
// strike history are kept until PurgeDeparted reaps them.
func (s *GuildService) HandleLeave(ctx context.Context, guildID snowflake.ID, leftAt time.Time) error {
	if err := s.model.MarkLeft(ctx, guildID, leftAt); err != nil {
		return err
	}

	s.invalidate(ctx, guildID)
	s.logger.Info("Guild left", zap.Uint64("guildID", uint64(guildID)))

	return nil
}

// Settings returns the guild's settings document, served from cache when
// possible.
func (s *GuildService) Settings(ctx context.Context, guildID snowflake.ID) (*types.GuildSettings, error) {
	key := settingsCacheKey(guildID)

	// Cache hit path
	raw, err := s.redis.Do(ctx, s.redis.B().Get().Key(key).Build()).AsBytes()
	if err == nil {
		doc := types.NewSettingsDoc()
		if err := sonic.Unmarshal(raw, &doc); err == nil {
			return &types.GuildSettings{GuildID: guildID, Config: doc}, nil
		}
		// Corrupt cache entry, fall through to the database
		s.invalidate(ctx, guildID)
	} else if !rueidis.IsRedisNil(err) {
		s.logger.Warn("Settings cache read failed",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Error(err))
	}

	// Collapse concurrent cold reads into one database query
	v, err, _ := s.group.Do(key, func() (any, error) {
		settings, err := s.settings.Get(ctx, guildID)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, settings)
		return settings, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*types.GuildSettings), nil
}

// SaveSettings writes the settings document through to the database and
// refreshes the cache.
func (s *GuildService) SaveSettings(ctx context.Context, settings *types.GuildSettings) error {
	if err := s.settings.Save(ctx, settings); err != nil {
		return err
	}

	s.fill(ctx, settings)

	return nil
}

// PurgeDeparted deletes guilds that left before the cutoff along with their
// settings and strike data.
func (s *GuildService) PurgeDeparted(ctx context.Context, olderThan time.Time) (int64, error) {
	return s.model.PurgeDeparted(ctx, olderThan)
}

func (s *GuildService) fill(ctx context.Context, settings *types.GuildSettings) {
	raw, err := sonic.Marshal(settings.Config)
	if err != nil {
		s.logger.Warn("Failed to encode settings for cache",
			zap.Uint64("guildID", uint64(settings.GuildID)),
			zap.Error(err))
		return
	}

	err = s.redis.Do(ctx, s.redis.B().Set().
		Key(settingsCacheKey(settings.GuildID)).
		Value(rueidis.BinaryString(raw)).
		Ex(settingsCacheTTL).
		Build()).Error()
	if err != nil {
		s.logger.Warn("Settings cache write failed",
			zap.Uint64("guildID", uint64(settings.GuildID)),
			zap.Error(err))
	}
}

func (s *GuildService) invalidate(ctx context.Context, guildID snowflake.ID) {
	err := s.redis.Do(ctx, s.redis.B().Del().Key(settingsCacheKey(guildID)).Build()).Error()
	if err != nil {
		s.logger.Warn("Settings cache invalidation failed",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Error(err))
	}
}
