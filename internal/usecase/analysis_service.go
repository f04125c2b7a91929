package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mealsignal/backend/internal/domain"
)

// precisionHint is sent with a label or packaging scan
const precisionHint = "Packaging or nutrition label included. Read brand, product and per-serving nutrition from it."

// Analysis outcomes for metrics
const (
	AnalysisOK       = "ok"
	AnalysisFallback = "fallback"
)

// AnalyzeRequest is a new meal capture
type AnalyzeRequest struct {
	Image          string
	SecondaryImage string
	Hint           string
	Thumbnail      string
	Timestamp      time.Time
}

// RefineRequest re-analyzes an existing meal with a clarification or precision scan
type RefineRequest struct {
	Image           string
	SecondaryImage  string
	Hint            string
	CorrectionLabel string
	Precision       bool
}

// AnalysisConfig holds configuration for the analysis service
type AnalysisConfig struct {
	VisionTimeout time.Duration
}

// AnalysisService runs the photo to estimate pipeline and stores the result
type AnalysisService struct {
	vision        domain.VisionEstimator
	lookup        *ProductLookupService
	meals         domain.MealRepository
	visionTimeout time.Duration
	logger        *zap.Logger
	recorder      Recorder
	now           func() time.Time
}

// NewAnalysisService creates a new analysis service with dependencies
func NewAnalysisService(
	vision domain.VisionEstimator,
	lookup *ProductLookupService,
	meals domain.MealRepository,
	config AnalysisConfig,
	logger *zap.Logger,
	recorder Recorder,
) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = NopRecorder()
	}
	timeout := config.VisionTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnalysisService{
		vision:        vision,
		lookup:        lookup,
		meals:         meals,
		visionTimeout: timeout,
		logger:        logger.Named("analysis"),
		recorder:      recorder,
		now:           time.Now,
	}
}

// Estimate turns images into a reconciled estimate. The second return value
// reports whether the vision call failed and the fallback was used.
func (s *AnalysisService) Estimate(ctx context.Context, req domain.VisionRequest) (domain.NutritionEstimate, bool) {
	if strings.TrimSpace(req.Image) == "" {
		s.recorder.AnalysisCompleted(AnalysisFallback)
		return FallbackEstimate(), false
	}

	raw, err := s.callVision(ctx, req)
	if err != nil {
		s.logger.Warn("vision estimate failed, using fallback", zap.Error(err))
		s.recorder.AnalysisCompleted(AnalysisFallback)
		return FallbackEstimate(), true
	}

	est := Normalize(raw)

	if s.lookup != nil {
		est, _ = s.lookup.Enrich(ctx, est)
	}

	widened := WidenIfLowConfidence(est)
	if widened.Ranges != est.Ranges {
		s.recorder.EstimateWidened()
	}

	s.recorder.AnalysisCompleted(AnalysisOK)
	return widened, false
}

func (s *AnalysisService) callVision(ctx context.Context, req domain.VisionRequest) (any, error) {
	if s.vision == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.visionTimeout)
	defer cancel()

	start := time.Now()
	raw, err := s.vision.Estimate(ctx, req)
	s.recorder.VisionDuration(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVisionFailure, err)
	}
	return raw, nil
}

// Analyze estimates a new meal and stores it
func (s *AnalysisService) Analyze(ctx context.Context, userID string, req AnalyzeRequest) (*domain.MealLogEntry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	est, degraded := s.Estimate(ctx, domain.VisionRequest{
		Image:          req.Image,
		SecondaryImage: req.SecondaryImage,
		Hint:           req.Hint,
	})

	ts := req.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	meal := &domain.MealLogEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Timestamp: ts,
		Estimate:  est,
		Thumbnail: req.Thumbnail,
		Degraded:  degraded,
	}
	if err := s.meals.SaveMeal(ctx, meal); err != nil {
		return nil, fmt.Errorf("saving meal: %w", err)
	}

	s.logger.Info("meal analyzed",
		zap.String("user_id", userID),
		zap.String("meal_id", meal.ID),
		zap.String("dish", meal.Estimate.DetectedItems[0].Name),
		zap.Float64("confidence", meal.Estimate.OverallConfidence),
		zap.Bool("degraded", degraded))
	return meal, nil
}

// Refine replaces a meal's estimate with a fresh analysis and records the correction
func (s *AnalysisService) Refine(ctx context.Context, userID, mealID string, req RefineRequest) (*domain.MealLogEntry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	meal, err := s.meals.GetMeal(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}

	image := req.Image
	if image == "" {
		image = meal.Thumbnail
	}
	if image == "" {
		return nil, fmt.Errorf("%w: an image is required to refine a meal", domain.ErrInvalidRequest)
	}

	hint := strings.TrimSpace(req.Hint)
	if hint == "" {
		hint = strings.TrimSpace(req.CorrectionLabel)
	}
	if req.Precision {
		hint = strings.TrimSpace(precisionHint + " " + hint)
	}

	est, degraded := s.Estimate(ctx, domain.VisionRequest{
		Image:          image,
		SecondaryImage: req.SecondaryImage,
		Hint:           hint,
	})
	if degraded {
		// keep the last good estimate rather than replacing it with the fallback
		meal.Degraded = true
		return meal, nil
	}

	updated := *meal
	updated.Estimate = est
	updated.AppendCorrection(req.CorrectionLabel)
	if err := s.meals.SaveMeal(ctx, &updated); err != nil {
		return nil, fmt.Errorf("saving meal: %w", err)
	}
	return &updated, nil
}

// ListMeals returns the newest meals first
func (s *AnalysisService) ListMeals(ctx context.Context, userID string, limit int) ([]domain.MealLogEntry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.meals.ListMeals(ctx, userID, limit)
}

// DeleteMeal removes a meal
func (s *AnalysisService) DeleteMeal(ctx context.Context, userID, mealID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	return s.meals.DeleteMeal(ctx, userID, mealID)
}
