package handlers

import (
	"net/http"

	"mindpulse-be/internal/models"
	"mindpulse-be/internal/repository"

	"github.com/gin-gonic/gin"
)

type ChannelHandler struct {
	channels *repository.ChannelRepository
}

func NewChannelHandler(channels *repository.ChannelRepository) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

type registerChannelRequest struct {
	Name       string `json:"name" binding:"required"`
	Type       string `json:"type" binding:"required"`
	ExternalID string `json:"external_id" binding:"required"`
}

// ListChannels godoc
// @Summary List or search active channels
// @Description Without q, returns all active channels sorted by name. With q, ranks them by fuzzy match against the channel name.
// @Tags channels
// @Param q query string false "Fuzzy search query"
// @Success 200 {object} models.ChannelListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /channels [get]
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	query := c.Query("q")
	channels, err := h.channels.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ChannelListResponse{
		Channels: channels,
		Total:    len(channels),
		Query:    query,
	})
}

// RegisterChannel godoc
// @Summary Register a communication channel
// @Description Idempotent on (type, external_id); re-registering refreshes the channel name.
// @Tags channels
// @Accept json
// @Param channel body registerChannelRequest true "Channel to register"
// @Success 201 {object} models.Channel
// @Failure 400 {object} models.ErrorResponse
// @Router /channels [post]
func (h *ChannelHandler) RegisterChannel(c *gin.Context) {
	var req registerChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if !models.IsChannelType(req.Type) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid channel type, use one of: jira, chat, meeting, discord"})
		return
	}

	channel, err := h.channels.GetOrCreate(c.Request.Context(), req.Name, req.Type, req.ExternalID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, channel)
}
