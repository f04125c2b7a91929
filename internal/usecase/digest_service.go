package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mealsignal/backend/internal/domain"
)

// History load limits
const (
	mealHistoryLimit    = 500
	workoutHistoryLimit = 200
	nudgeHistoryLimit   = 50
	nudgeDedupeWindow   = 24 * time.Hour
)

// DigestService loads a user's history and computes markers and nudges over it
type DigestService struct {
	store    domain.Store
	location *time.Location
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// NewDigestService creates a new digest service. Day boundaries use loc.
func NewDigestService(store domain.Store, loc *time.Location, logger *zap.Logger, recorder Recorder) *DigestService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = NopRecorder()
	}
	return &DigestService{
		store:    store,
		location: loc,
		logger:   logger.Named("digest"),
		recorder: recorder,
		now:      time.Now,
	}
}

// LoadHistory fetches profile, meals and workouts concurrently into one snapshot
func (s *DigestService) LoadHistory(ctx context.Context, userID string) (History, error) {
	if userID == "" {
		return History{}, domain.ErrUnauthorized
	}

	h := History{Now: s.now().In(s.location)}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.store.GetProfile(gctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		h.Profile = p
		return nil
	})
	g.Go(func() error {
		meals, err := s.store.ListMeals(gctx, userID, mealHistoryLimit)
		if err != nil {
			return fmt.Errorf("loading meals: %w", err)
		}
		h.Meals = meals
		return nil
	})
	g.Go(func() error {
		workouts, err := s.store.ListWorkouts(gctx, userID, workoutHistoryLimit)
		if err != nil {
			return fmt.Errorf("loading workouts: %w", err)
		}
		h.Workouts = workouts
		return nil
	})

	if err := g.Wait(); err != nil {
		return History{}, err
	}
	return h, nil
}

// Home computes the home screen markers
func (s *DigestService) Home(ctx context.Context, userID string) (HomeMarkers, error) {
	h, err := s.LoadHistory(ctx, userID)
	if err != nil {
		return HomeMarkers{}, err
	}
	return ComputeHomeMarkers(h), nil
}

// Summary computes the weekly summary markers
func (s *DigestService) Summary(ctx context.Context, userID string) (SummaryMarkers, error) {
	h, err := s.LoadHistory(ctx, userID)
	if err != nil {
		return SummaryMarkers{}, err
	}
	return ComputeSummaryMarkers(h), nil
}

// Insights computes the pattern insights view
func (s *DigestService) Insights(ctx context.Context, userID string) (Insights, error) {
	h, err := s.LoadHistory(ctx, userID)
	if err != nil {
		return Insights{}, err
	}
	return ComputeInsights(h), nil
}

// Nudges computes the current nudges without storing them
func (s *DigestService) Nudges(ctx context.Context, userID string) ([]ScoredNudge, error) {
	h, err := s.LoadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ComputeNudges(h), nil
}

// RefreshNudges computes nudges and records the ones not already stored in the
// last 24 hours. It returns the newly stored nudges.
func (s *DigestService) RefreshNudges(ctx context.Context, userID string) ([]domain.Nudge, error) {
	h, err := s.LoadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	current := ComputeNudges(h)

	previous, err := s.store.ListNudges(ctx, userID, nudgeHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("loading nudges: %w", err)
	}
	recent := make(map[string]bool, len(previous))
	for _, n := range previous {
		if h.Now.Sub(n.CreatedAt) < nudgeDedupeWindow {
			recent[n.Message] = true
		}
	}

	stored := []domain.Nudge{}
	for _, c := range current {
		if recent[c.Message] {
			continue
		}
		n := domain.Nudge{
			ID:        uuid.NewString(),
			UserID:    userID,
			Type:      c.Type,
			Message:   c.Message,
			Priority:  c.Priority,
			CreatedAt: h.Now,
		}
		if err := s.store.SaveNudge(ctx, &n); err != nil {
			return nil, fmt.Errorf("saving nudge: %w", err)
		}
		stored = append(stored, n)
	}

	s.recorder.NudgesEmitted(len(stored))
	s.logger.Info("nudges refreshed",
		zap.String("user_id", userID),
		zap.Int("computed", len(current)),
		zap.Int("stored", len(stored)))
	return stored, nil
}

// NudgeHistory lists stored nudges newest first
func (s *DigestService) NudgeHistory(ctx context.Context, userID string, limit int) ([]domain.Nudge, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.store.ListNudges(ctx, userID, limit)
}
