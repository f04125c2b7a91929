package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mealsignal/backend/internal/usecase"
)

const degradedNotice = "Photo analysis is unavailable right now. Showing a rough placeholder estimate."

// AnalyzeMealRequest is the body of POST /meals/analyze
type AnalyzeMealRequest struct {
	Image          string     `json:"image"`
	PackagingImage string     `json:"packaging_image"`
	Hint           string     `json:"hint" binding:"max=500"`
	Thumbnail      string     `json:"thumbnail"`
	Timestamp      *time.Time `json:"timestamp"`
}

// RefineMealRequest is the body of POST /meals/:id/refine
type RefineMealRequest struct {
	Image          string `json:"image"`
	PackagingImage string `json:"packaging_image"`
	Hint           string `json:"hint" binding:"max=500"`
	Correction     string `json:"correction" binding:"max=200"`
	Precision      bool   `json:"precision"`
}

// AnalyzeMeal estimates a photographed meal and logs it
func (h *Handler) AnalyzeMeal(c *gin.Context) {
	if h.svc.Analysis == nil {
		notConfigured(c, "meal analysis")
		return
	}
	var req AnalyzeMealRequest
	if !h.bindJSON(c, &req) {
		return
	}

	meal, err := h.svc.Analysis.Analyze(c.Request.Context(), userID(c), usecase.AnalyzeRequest{
		Image:          req.Image,
		SecondaryImage: req.PackagingImage,
		Hint:           req.Hint,
		Thumbnail:      req.Thumbnail,
		Timestamp:      timeOrZero(req.Timestamp),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{"meal": meal}
	if meal.Degraded {
		resp["notice"] = degradedNotice
	}
	c.JSON(http.StatusCreated, resp)
}

// RefineMeal re-analyzes a logged meal with a clarification or label scan
func (h *Handler) RefineMeal(c *gin.Context) {
	if h.svc.Analysis == nil {
		notConfigured(c, "meal analysis")
		return
	}
	var req RefineMealRequest
	if !h.bindJSON(c, &req) {
		return
	}

	meal, err := h.svc.Analysis.Refine(c.Request.Context(), userID(c), c.Param("id"), usecase.RefineRequest{
		Image:           req.Image,
		SecondaryImage:  req.PackagingImage,
		Hint:            req.Hint,
		CorrectionLabel: req.Correction,
		Precision:       req.Precision,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{"meal": meal}
	if meal.Degraded {
		resp["notice"] = degradedNotice
	}
	c.JSON(http.StatusOK, resp)
}

// ListMeals returns the newest meals first
func (h *Handler) ListMeals(c *gin.Context) {
	if h.svc.Analysis == nil {
		notConfigured(c, "meal analysis")
		return
	}
	limit, ok := listLimit(c)
	if !ok {
		return
	}
	meals, err := h.svc.Analysis.ListMeals(c.Request.Context(), userID(c), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

// DeleteMeal removes a logged meal
func (h *Handler) DeleteMeal(c *gin.Context) {
	if h.svc.Analysis == nil {
		notConfigured(c, "meal analysis")
		return
	}
	if err := h.svc.Analysis.DeleteMeal(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
