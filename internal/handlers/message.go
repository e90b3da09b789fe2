package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mindpulse-be/internal/models"
	"mindpulse-be/internal/repository"
	"mindpulse-be/internal/services"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	ingestion *services.IngestionService
	messages  *repository.MessageRepository
}

func NewMessageHandler(ingestion *services.IngestionService, messages *repository.MessageRepository) *MessageHandler {
	return &MessageHandler{ingestion: ingestion, messages: messages}
}

// IngestMessages godoc
// @Summary Ingest messages for wellbeing analysis
// @Description Accepts a single message or a batch. Messages are persisted immediately and classified asynchronously. Duplicate (channel_id, external_ref) submissions return the original message id.
// @Tags messages
// @Accept json
// @Param payload body models.IngestRequest true "Single message or {\"messages\": [...]}"
// @Success 201 {object} models.IngestResponse
// @Success 207 {object} models.IngestResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /messages [post]
func (h *MessageHandler) IngestMessages(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read request body"})
		return
	}

	requests, err := parseIngestPayload(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	response := models.IngestResponse{
		ProcessedMessages: make([]models.IngestResult, 0, len(requests)),
		Summary:           models.IngestSummary{Total: len(requests)},
	}

	for _, req := range requests {
		result := models.IngestResult{ExternalRef: req.ExternalRef}

		if missing := missingField(req); missing != "" {
			result.Status = "failed"
			result.Error = missing + " is required"
			response.Summary.Failed++
			response.ProcessedMessages = append(response.ProcessedMessages, result)
			continue
		}

		id, err := h.ingestion.Ingest(ctx, req)
		if err != nil {
			result.Status = "failed"
			result.Error = err.Error()
			response.Summary.Failed++
		} else {
			result.MessageID = id
			result.Status = "queued"
			response.Summary.Successful++
		}
		response.ProcessedMessages = append(response.ProcessedMessages, result)
	}

	status := http.StatusCreated
	switch {
	case response.Summary.Successful == 0:
		status = http.StatusBadRequest
	case response.Summary.Failed > 0:
		status = http.StatusMultiStatus
	}
	c.JSON(status, response)
}

// parseIngestPayload accepts either one message object or a batch envelope.
func parseIngestPayload(body []byte) ([]models.IngestRequest, error) {
	var envelope struct {
		Messages []models.IngestRequest `json:"messages"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Messages) > 0 {
		return envelope.Messages, nil
	}

	var single models.IngestRequest
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	if single == (models.IngestRequest{}) {
		return nil, errors.New("empty payload, expected a message object or {\"messages\": [...]}")
	}
	return []models.IngestRequest{single}, nil
}

func missingField(req models.IngestRequest) string {
	switch {
	case req.ChannelID == "":
		return "channel_id"
	case req.UserHash == "":
		return "user_hash"
	case req.Message == "":
		return "message"
	}
	return ""
}

// GetMessage godoc
// @Summary Get one message and its processing status
// @Tags messages
// @Param id path string true "Message id"
// @Success 200 {object} models.Message
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/{id} [get]
func (h *MessageHandler) GetMessage(c *gin.Context) {
	msg, err := h.messages.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}
