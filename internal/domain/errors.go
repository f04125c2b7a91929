package domain

import "errors"

var (
	// ErrProductNotFound is returned when no product search candidate qualifies
	ErrProductNotFound = errors.New("product not found in food database")

	// ErrFoodDBFailure is returned when the product search request fails
	ErrFoodDBFailure = errors.New("food database request failed")

	// ErrVisionFailure is returned when the vision estimation request fails
	ErrVisionFailure = errors.New("vision estimation failed")

	// ErrNotFound is returned when a stored record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrNoActiveWorkout is returned when ending a workout with none in progress
	ErrNoActiveWorkout = errors.New("no active workout")

	// ErrFeedbackUnavailable is returned when no feedback channel is configured
	ErrFeedbackUnavailable = errors.New("feedback channel unavailable")

	// ErrUnauthorized is returned when a request carries no user identity
	ErrUnauthorized = errors.New("missing user identity")
)
