package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"github.com/mealsignal/backend/internal/domain"
)

// ExportData returns everything stored for the caller as JSON, or YAML with ?format=yaml
func (h *Handler) ExportData(c *gin.Context) {
	if h.svc.Data == nil {
		notConfigured(c, "data export")
		return
	}
	export, err := h.svc.Data.Export(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "json":
		c.Header("Content-Disposition", `attachment; filename="mealsignal-export.json"`)
		c.JSON(http.StatusOK, export)
	case "yaml", "yml":
		out, err := yaml.Marshal(export)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="mealsignal-export.yaml"`)
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", out)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "format must be json or yaml"})
	}
}

// DeleteData removes all of the caller's meals, workouts, nudges and profile
func (h *Handler) DeleteData(c *gin.Context) {
	if h.svc.Data == nil {
		notConfigured(c, "data export")
		return
	}
	if err := h.svc.Data.Clear(c.Request.Context(), userID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitFeedback forwards a message to the team; the sender header is optional
func (h *Handler) SubmitFeedback(c *gin.Context) {
	if h.svc.Feedback == nil {
		notConfigured(c, "feedback")
		return
	}
	var req domain.Feedback
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}
	if sender := strings.TrimSpace(c.GetHeader(userIDHeader)); sender != "" {
		req.UserID = sender
	}
	if err := h.svc.Feedback.Submit(c.Request.Context(), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
