package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mealsignal/backend/internal/domain"
)

// WorkoutService starts, ends and lists workout sessions
type WorkoutService struct {
	workouts domain.WorkoutRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewWorkoutService creates a new workout service
func NewWorkoutService(workouts domain.WorkoutRepository, logger *zap.Logger) *WorkoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkoutService{
		workouts: workouts,
		logger:   logger.Named("workout"),
		now:      time.Now,
	}
}

// EndWorkoutRequest describes how a session finished
type EndWorkoutRequest struct {
	EndTs        time.Time
	WorkoutTypes []string
	Intensity    domain.Intensity
}

// DurationMinutes is the whole minutes between start and end, rounded up and never negative
func DurationMinutes(start, end time.Time) int {
	minutes := math.Ceil(float64(end.Sub(start).Milliseconds()) / 60000)
	return int(math.Max(0, minutes))
}

// Start opens a new active session
func (s *WorkoutService) Start(ctx context.Context, userID string, startTs time.Time) (*domain.WorkoutSession, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if startTs.IsZero() {
		startTs = s.now()
	}
	session := &domain.WorkoutSession{
		ID:      uuid.NewString(),
		UserID:  userID,
		StartTs: startTs,
	}
	if err := s.workouts.SaveWorkout(ctx, session); err != nil {
		return nil, fmt.Errorf("saving workout: %w", err)
	}
	s.logger.Info("workout started", zap.String("user_id", userID), zap.String("workout_id", session.ID))
	return session, nil
}

// End closes every active session and returns the most recently started one
func (s *WorkoutService) End(ctx context.Context, userID string, req EndWorkoutRequest) (*domain.WorkoutSession, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	switch req.Intensity {
	case "", domain.IntensityLow, domain.IntensityMedium, domain.IntensityHigh:
	default:
		return nil, fmt.Errorf("%w: unknown intensity %q", domain.ErrInvalidRequest, req.Intensity)
	}

	active, err := s.workouts.ActiveWorkouts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, domain.ErrNoActiveWorkout
	}

	endTs := req.EndTs
	if endTs.IsZero() {
		endTs = s.now()
	}

	var latest *domain.WorkoutSession
	for i := range active {
		w := active[i]
		end := endTs
		duration := DurationMinutes(w.StartTs, end)
		w.EndTs = &end
		w.DurationMin = &duration
		w.WorkoutTypes = append([]string(nil), req.WorkoutTypes...)
		w.Intensity = req.Intensity
		if err := s.workouts.SaveWorkout(ctx, &w); err != nil {
			return nil, fmt.Errorf("saving workout: %w", err)
		}
		if latest == nil || w.StartTs.After(latest.StartTs) {
			closed := w
			latest = &closed
		}
	}

	s.logger.Info("workout ended",
		zap.String("user_id", userID),
		zap.String("workout_id", latest.ID),
		zap.Int("duration_min", *latest.DurationMin),
		zap.Int("closed", len(active)))
	return latest, nil
}

// Active returns the current session, or ErrNoActiveWorkout
func (s *WorkoutService) Active(ctx context.Context, userID string) (*domain.WorkoutSession, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	active, err := s.workouts.ActiveWorkouts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, domain.ErrNoActiveWorkout
	}
	return &active[0], nil
}

// List returns sessions newest first
func (s *WorkoutService) List(ctx context.Context, userID string, limit int) ([]domain.WorkoutSession, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.workouts.ListWorkouts(ctx, userID, limit)
}

// Delete removes a session
func (s *WorkoutService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	return s.workouts.DeleteWorkout(ctx, userID, id)
}
