package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mealsignal/backend/internal/domain"
	"github.com/mealsignal/backend/internal/usecase"
)

const (
	serviceName      = "mealsignal-backend"
	serviceVersion   = "1.0.0"
	defaultListLimit = 50
	maxListLimit     = 500
)

// Services are the use cases the handlers call; a nil service answers 501
type Services struct {
	Analysis *usecase.AnalysisService
	Workouts *usecase.WorkoutService
	Profiles *usecase.ProfileService
	Digest   *usecase.DigestService
	Data     *usecase.DataService
	Feedback *usecase.FeedbackService
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	svc    Services
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("handler")}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// respondError maps domain errors to status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrInvalidRequest):
		status, message = http.StatusBadRequest, err.Error()
	case errors.As(err, &maxBytes):
		status, message = http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrNoActiveWorkout):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		status, message = http.StatusTooManyRequests, err.Error()
	case errors.Is(err, domain.ErrVisionFailure), errors.Is(err, domain.ErrFoodDBFailure):
		status, message = http.StatusBadGateway, "upstream service failed"
	case errors.Is(err, domain.ErrFeedbackUnavailable), errors.Is(err, domain.ErrCacheUnavailable):
		status, message = http.StatusServiceUnavailable, err.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("user_id", c.GetString(userIDKey)),
			zap.Error(err))
	}
	c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// bindJSON binds an optional JSON body; an empty body leaves req untouched
func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.respondError(c, err)
			return false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

func notConfigured(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{
		"error": what + " not configured",
	})
}

// listLimit reads ?limit=, defaulting to 50 and capping at 500
func listLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return min(limit, maxListLimit), true
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
