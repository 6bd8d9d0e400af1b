package service

import (
	"context"
	"errors"
	"time"

	"github.com/kiyoko-project/kiyoko/internal/database/models"
	"github.com/kiyoko-project/kiyoko/internal/database/types"
	"go.uber.org/zap"
)

// CommandService handles command registration and usage accounting.
type CommandService struct {
	model  *models.CommandModel
	logger *zap.Logger
}

// NewCommand creates a new command service.
func NewCommand(model *models.CommandModel, logger *zap.Logger) *CommandService {
	return &CommandService{
		model:  model,
		logger: logger.Named("command_service"),
	}
}

// Touch records one invocation of a command and reports whether it is
// enabled. Unknown commands are registered on first use so deploys never
// have to pre-seed the table.
func (s *CommandService) Touch(ctx context.Context, name string, at time.Time) (bool, error) {
	err := s.model.RecordUse(ctx, name, at)
	if errors.Is(err, types.ErrCommandNotFound) {
		if err := s.model.Register(ctx, name, at); err != nil {
			return false, err
		}
		err = s.model.RecordUse(ctx, name, at)
	}
	if err != nil {
		return false, err
	}

	info, err := s.model.Get(ctx, name)
	if err != nil {
		return false, err
	}

	return info.Enabled, nil
}
