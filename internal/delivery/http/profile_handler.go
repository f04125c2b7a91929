package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealsignal/backend/internal/domain"
)

// GetProfile returns the caller's profile
func (h *Handler) GetProfile(c *gin.Context) {
	if h.svc.Profiles == nil {
		notConfigured(c, "profiles")
		return
	}
	profile, err := h.svc.Profiles.Get(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateProfile validates and replaces the caller's profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	if h.svc.Profiles == nil {
		notConfigured(c, "profiles")
		return
	}
	var req domain.UserProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}
	profile, err := h.svc.Profiles.Save(c.Request.Context(), userID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
