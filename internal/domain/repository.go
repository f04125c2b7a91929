package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProductSearcher searches the external food product database
type ProductSearcher interface {
	SearchProducts(ctx context.Context, query string) ([]ExternalProductRecord, error)
}

// VisionRequest carries the images and optional clarification for one estimate
type VisionRequest struct {
	Image          string
	SecondaryImage string
	Hint           string
}

// VisionEstimator asks a vision model for a raw nutrition estimate.
// The result is untrusted and must go through normalization.
type VisionEstimator interface {
	Estimate(ctx context.Context, req VisionRequest) (any, error)
}

// MealRepository persists meal log entries. Lists are newest first.
type MealRepository interface {
	SaveMeal(ctx context.Context, meal *MealLogEntry) error
	GetMeal(ctx context.Context, userID, id string) (*MealLogEntry, error)
	ListMeals(ctx context.Context, userID string, limit int) ([]MealLogEntry, error)
	DeleteMeal(ctx context.Context, userID, id string) error
}

// WorkoutRepository persists workout sessions. Lists are newest first by start time.
type WorkoutRepository interface {
	SaveWorkout(ctx context.Context, w *WorkoutSession) error
	ListWorkouts(ctx context.Context, userID string, limit int) ([]WorkoutSession, error)
	ActiveWorkouts(ctx context.Context, userID string) ([]WorkoutSession, error)
	DeleteWorkout(ctx context.Context, userID, id string) error
}

// ProfileRepository persists user profiles
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)
	SaveProfile(ctx context.Context, p *UserProfile) error
}

// NudgeRepository keeps emitted nudges for history and de-duplication
type NudgeRepository interface {
	SaveNudge(ctx context.Context, n *Nudge) error
	ListNudges(ctx context.Context, userID string, limit int) ([]Nudge, error)
}

// UserDataRepository exports or removes everything stored for a user
type UserDataRepository interface {
	ExportUser(ctx context.Context, userID string) (*UserExport, error)
	ClearUser(ctx context.Context, userID string) error
}

// Store is the full persistence surface
type Store interface {
	MealRepository
	WorkoutRepository
	ProfileRepository
	NudgeRepository
	UserDataRepository
}

// FeedbackSink delivers user feedback to the team
type FeedbackSink interface {
	Send(ctx context.Context, fb Feedback) error
}
