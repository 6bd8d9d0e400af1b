package database

import (
	"github.com/kiyoko-project/kiyoko/internal/database/service"
	"github.com/redis/rueidis"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	strike  *service.StrikeService
	guild   *service.GuildService
	command *service.CommandService
}

// NewService creates a new service instance with all services.
func NewService(db *bun.DB, repository *Repository, redisClient rueidis.Client, logger *zap.Logger) *Service {
	return &Service{
		strike:  service.NewStrike(db, repository.Strike(), repository.StrikeConfig(), logger),
		guild:   service.NewGuild(repository.Guild(), repository.Setting(), redisClient, logger),
		command: service.NewCommand(repository.Command(), logger),
	}
}

// Strike returns the strike ledger service.
func (s *Service) Strike() *service.StrikeService {
	return s.strike
}

// Guild returns the guild service.
func (s *Service) Guild() *service.GuildService {
	return s.guild
}

// Command returns the command service.
func (s *Service) Command() *service.CommandService {
	return s.command
}
