package services

import (
	"context"
	"errors"
	"unicode/utf8"

	"mindpulse-be/internal/apperrors"
	"mindpulse-be/internal/models"
	"mindpulse-be/internal/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxMessageLength bounds inbound text, in characters.
const MaxMessageLength = 10000

type channelResolver interface {
	GetActiveByID(ctx context.Context, id string) (*models.Channel, error)
}

type messageStore interface {
	Insert(ctx context.Context, msg *models.Message) (string, error)
	FindByExternalRef(ctx context.Context, channelID, externalRef string) (*models.Message, error)
}

type activityToucher interface {
	TouchActivity(ctx context.Context, userHash string) error
}

// analysisEnqueuer hands a message id to the background classification queue.
// Enqueue must not block; a false return means the queue is full and the
// message stays pending until resynced.
type analysisEnqueuer interface {
	Enqueue(messageID string) bool
}

// IngestionService validates and records inbound messages. Classification is
// decoupled: ingestion acknowledges as soon as the message is persisted.
type IngestionService struct {
	channels channelResolver
	messages messageStore
	users    activityToucher
	queue    analysisEnqueuer
}

func NewIngestionService(channels channelResolver, messages messageStore, users activityToucher, queue analysisEnqueuer) *IngestionService {
	return &IngestionService{
		channels: channels,
		messages: messages,
		users:    users,
		queue:    queue,
	}
}

// Ingest validates one raw message, persists it with status pending, and
// schedules classification. A duplicate (channel, external_ref) submission is
// an idempotent no-op returning the existing message id.
func (s *IngestionService) Ingest(ctx context.Context, req models.IngestRequest) (string, error) {
	text := utils.CleanMessageText(req.Message)
	if text == "" {
		return "", apperrors.NewValidationError("message", "message content cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return "", apperrors.NewValidationError("message", "message content too long (max 10,000 characters)")
	}
	if _, err := uuid.Parse(req.UserHash); err != nil {
		return "", apperrors.NewValidationError("user_hash", "invalid user_hash format")
	}

	channel, err := s.channels.GetActiveByID(ctx, req.ChannelID)
	if err != nil {
		return "", err
	}

	msg := &models.Message{
		ChannelID:        channel.ID,
		ChannelType:      channel.Type,
		UserHash:         req.UserHash,
		Text:             text,
		Length:           utf8.RuneCountInString(text),
		ExternalRef:      req.ExternalRef,
		ProcessingStatus: models.StatusPending,
	}

	id, err := s.messages.Insert(ctx, msg)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateMessage) {
			// Replayed delivery: return the original id without touching
			// counters or re-enqueueing, so retries stay side-effect free.
			existing, ferr := s.messages.FindByExternalRef(ctx, channel.ID, req.ExternalRef)
			if ferr != nil {
				return "", ferr
			}
			log.Debug().
				Str("channel_id", channel.ID).
				Str("external_ref", req.ExternalRef).
				Msg("Duplicate message submission, returning existing id")
			return existing.ID.Hex(), nil
		}
		return "", err
	}

	// Best effort: a failed counter update must not fail ingestion.
	if err := s.users.TouchActivity(ctx, req.UserHash); err != nil {
		log.Warn().Err(err).Str("user_hash", req.UserHash).Msg("Failed to update user activity")
	}

	if !s.queue.Enqueue(id) {
		log.Error().Str("message_id", id).Msg("Analysis queue full, message left pending for resync")
	}

	return id, nil
}
