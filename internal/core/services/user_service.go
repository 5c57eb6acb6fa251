package services

import (
	"context"
	"fmt"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

type UserService struct {
	repo domain.UserRepository
}

func NewUserService(repo domain.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *UserService) Update(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.Apply(patch); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("user service: update failed: %w", err)
	}

	return user, nil
}

func (s *UserService) Preferences(ctx context.Context, userID string) (map[string]any, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Preferences == nil {
		return map[string]any{}, nil
	}
	return user.Preferences, nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID string, prefs map[string]any) (map[string]any, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.MergePreferences(prefs)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("user service: preferences update failed: %w", err)
	}

	return user.Preferences, nil
}

// CompleteOnboarding persists the accumulated profile and flips the
// onboarding flag. It is the only durable effect of the funnel's end.
func (s *UserService) CompleteOnboarding(ctx context.Context, userID string, profile domain.UserProfile) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.CompleteOnboarding(profile)

	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("user service: complete onboarding failed: %w", err)
	}

	return nil
}
