package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"ai-coach-chat/internal/domain"
	"ai-coach-chat/internal/domain/model"
	"ai-coach-chat/internal/domain/ports/repository"
	"ai-coach-chat/internal/domain/ports/usecase"
	"ai-coach-chat/internal/infra/logging"
)

// Compile-time check
var _ usecase.HealthProfileProvider = (*userUC)(nil)

type userUC struct {
	profiles repository.HealthProfileRepository
	log      *zerolog.Logger
}

func NewUserUseCase(profiles repository.HealthProfileRepository, logger *zerolog.Logger) *userUC {
	return &userUC{profiles: profiles, log: logger}
}

// HealthProfile returns the user's profile, or nil when none was saved yet.
func (u *userUC) HealthProfile(ctx context.Context, userID string) (*model.HealthProfile, error) {
	defer logging.TraceDuration(u.log, "UserUC.HealthProfile")()

	p, err := u.profiles.FindByUserID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}
