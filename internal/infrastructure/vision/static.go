package vision

import (
	"context"

	"github.com/mealsignal/backend/internal/domain"
)

// StaticEstimator never calls a model; every estimate normalizes to the fallback
type StaticEstimator struct{}

// NewStaticEstimator creates an estimator for deployments without a vision provider
func NewStaticEstimator() *StaticEstimator {
	return &StaticEstimator{}
}

// Estimate always returns nil
func (StaticEstimator) Estimate(ctx context.Context, req domain.VisionRequest) (any, error) {
	return nil, ctx.Err()
}
