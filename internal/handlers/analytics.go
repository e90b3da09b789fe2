package handlers

import (
	"net/http"
	"strconv"

	"mindpulse-be/internal/models"
	"mindpulse-be/internal/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func parseDays(c *gin.Context, fallback int) int {
	if raw := c.Query("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// GetTeamAnalytics godoc
// @Summary Team wellbeing dashboard
// @Description Team overview, anonymized per-user analytics with trends, channel rollups, and derived alerts over a trailing window
// @Tags analytics
// @Param days query int false "Trailing window in days" default(30)
// @Success 200 {object} models.TeamAnalyticsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /analytics/team-dashboard [get]
func (h *AnalyticsHandler) GetTeamAnalytics(c *gin.Context) {
	resp, err := h.analytics.GetTeamAnalytics(c.Request.Context(), parseDays(c, 30))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetUserWellbeing godoc
// @Summary One user's wellbeing metrics
// @Tags analytics
// @Param user_hash query string true "User hash"
// @Param days query int false "Trailing window in days" default(30)
// @Success 200 {object} models.UserWellbeingResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /analytics/user-wellbeing [get]
func (h *AnalyticsHandler) GetUserWellbeing(c *gin.Context) {
	userHash := c.Query("user_hash")
	if userHash == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "user_hash parameter is required"})
		return
	}

	resp, err := h.analytics.GetUserWellbeing(c.Request.Context(), userHash, parseDays(c, 30))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetChannelComparison godoc
// @Summary Compare wellbeing across channel types
// @Tags analytics
// @Param days query int false "Trailing window in days" default(7)
// @Success 200 {object} models.ChannelComparisonResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /analytics/channel-comparison [get]
func (h *AnalyticsHandler) GetChannelComparison(c *gin.Context) {
	resp, err := h.analytics.GetChannelComparison(c.Request.Context(), parseDays(c, 7))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTrends godoc
// @Summary Team wellbeing trends over time
// @Tags analytics
// @Param period query string false "week, month, or quarter" default(month)
// @Success 200 {object} models.TrendsResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /analytics/trends [get]
func (h *AnalyticsHandler) GetTrends(c *gin.Context) {
	resp, err := h.analytics.GetTrends(c.Request.Context(), c.DefaultQuery("period", "month"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAlerts godoc
// @Summary Current wellbeing alerts
// @Tags analytics
// @Success 200 {object} models.AlertsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /analytics/alerts [get]
func (h *AnalyticsHandler) GetAlerts(c *gin.Context) {
	resp, err := h.analytics.GetAlerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
