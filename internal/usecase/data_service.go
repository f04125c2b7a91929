package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/mealsignal/backend/internal/domain"
)

// DataService exports and clears everything stored for a user
type DataService struct {
	users  domain.UserDataRepository
	logger *zap.Logger
}

// NewDataService creates a new data service
func NewDataService(users domain.UserDataRepository, logger *zap.Logger) *DataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataService{users: users, logger: logger.Named("data")}
}

// Export returns the user's full data set
func (s *DataService) Export(ctx context.Context, userID string) (*domain.UserExport, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.users.ExportUser(ctx, userID)
}

// Clear deletes the user's meals, workouts, nudges and profile
func (s *DataService) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	if err := s.users.ClearUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user data cleared", zap.String("user_id", userID))
	return nil
}
