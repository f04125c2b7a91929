package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HomeDigest returns today's markers, gentle targets and the recent feed
func (h *Handler) HomeDigest(c *gin.Context) {
	if h.svc.Digest == nil {
		notConfigured(c, "digest")
		return
	}
	markers, err := h.svc.Digest.Home(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, markers)
}

// SummaryDigest returns the weekly summary markers
func (h *Handler) SummaryDigest(c *gin.Context) {
	if h.svc.Digest == nil {
		notConfigured(c, "digest")
		return
	}
	markers, err := h.svc.Digest.Summary(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, markers)
}

// InsightsDigest returns weekly averages and micronutrient patterns
func (h *Handler) InsightsDigest(c *gin.Context) {
	if h.svc.Digest == nil {
		notConfigured(c, "digest")
		return
	}
	insights, err := h.svc.Digest.Insights(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, insights)
}

// Nudges returns the current nudges without recording them
func (h *Handler) Nudges(c *gin.Context) {
	if h.svc.Digest == nil {
		notConfigured(c, "digest")
		return
	}
	nudges, err := h.svc.Digest.Nudges(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nudges": nudges})
}

// RefreshNudges records nudges not already sent in the last day
func (h *Handler) RefreshNudges(c *gin.Context) {
	if h.svc.Digest == nil {
		notConfigured(c, "digest")
		return
	}
	stored, err := h.svc.Digest.RefreshNudges(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nudges": stored})
}

// NudgeHistory lists recorded nudges newest first
func (h *Handler) NudgeHistory(c *gin.Context) {
	if h.svc.Digest == nil {
		notConfigured(c, "digest")
		return
	}
	limit, ok := listLimit(c)
	if !ok {
		return
	}
	history, err := h.svc.Digest.NudgeHistory(c.Request.Context(), userID(c), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nudges": history})
}
