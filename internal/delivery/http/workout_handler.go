package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mealsignal/backend/internal/domain"
	"github.com/mealsignal/backend/internal/usecase"
)

// StartWorkoutRequest is the optional body of POST /workouts/start
type StartWorkoutRequest struct {
	StartTs *time.Time `json:"start_ts"`
}

// EndWorkoutRequest is the optional body of POST /workouts/end
type EndWorkoutRequest struct {
	EndTs        *time.Time `json:"end_ts"`
	WorkoutTypes []string   `json:"workout_types" binding:"max=10,dive,max=40"`
	Intensity    string     `json:"intensity" binding:"omitempty,oneof=low medium high"`
}

// StartWorkout opens a workout session
func (h *Handler) StartWorkout(c *gin.Context) {
	if h.svc.Workouts == nil {
		notConfigured(c, "workout tracking")
		return
	}
	var req StartWorkoutRequest
	if !h.bindJSON(c, &req) {
		return
	}
	w, err := h.svc.Workouts.Start(c.Request.Context(), userID(c), timeOrZero(req.StartTs))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"workout": w})
}

// EndWorkout closes the active sessions
func (h *Handler) EndWorkout(c *gin.Context) {
	if h.svc.Workouts == nil {
		notConfigured(c, "workout tracking")
		return
	}
	var req EndWorkoutRequest
	if !h.bindJSON(c, &req) {
		return
	}
	w, err := h.svc.Workouts.End(c.Request.Context(), userID(c), usecase.EndWorkoutRequest{
		EndTs:        timeOrZero(req.EndTs),
		WorkoutTypes: req.WorkoutTypes,
		Intensity:    domain.Intensity(req.Intensity),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workout": w})
}

// ActiveWorkout returns the running session or null
func (h *Handler) ActiveWorkout(c *gin.Context) {
	if h.svc.Workouts == nil {
		notConfigured(c, "workout tracking")
		return
	}
	w, err := h.svc.Workouts.Active(c.Request.Context(), userID(c))
	if errors.Is(err, domain.ErrNoActiveWorkout) {
		c.JSON(http.StatusOK, gin.H{"workout": nil})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workout": w})
}

// ListWorkouts returns sessions newest first
func (h *Handler) ListWorkouts(c *gin.Context) {
	if h.svc.Workouts == nil {
		notConfigured(c, "workout tracking")
		return
	}
	limit, ok := listLimit(c)
	if !ok {
		return
	}
	workouts, err := h.svc.Workouts.List(c.Request.Context(), userID(c), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workouts": workouts})
}

// DeleteWorkout removes a session
func (h *Handler) DeleteWorkout(c *gin.Context) {
	if h.svc.Workouts == nil {
		notConfigured(c, "workout tracking")
		return
	}
	if err := h.svc.Workouts.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
