package usecase

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mealsignal/backend/internal/domain"
)

// ProfileService reads and validates user profiles
type ProfileService struct {
	profiles domain.ProfileRepository
	validate *validator.Validate
}

// NewProfileService creates a new profile service
func NewProfileService(profiles domain.ProfileRepository) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		validate: validator.New(),
	}
}

// Get returns the user's profile or ErrNotFound
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.profiles.GetProfile(ctx, userID)
}

// Save validates and stores a profile, filling in defaults for goal and units
func (s *ProfileService) Save(ctx context.Context, userID string, p domain.UserProfile) (*domain.UserProfile, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := s.validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	p.UserID = userID
	if p.GoalDirection == "" {
		p.GoalDirection = domain.GoalMaintain
	}
	if p.Units == "" {
		p.Units = domain.UnitsMetric
	}
	if err := s.profiles.SaveProfile(ctx, &p); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return &p, nil
}
