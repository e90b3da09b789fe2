package services

import (
	"context"
	"errors"
	"time"

	"mindpulse-be/internal/apperrors"
	"mindpulse-be/internal/models"

	"github.com/rs/zerolog/log"
)

// failMarkTimeout bounds the processing -> failed write issued after a
// classifier error.
const failMarkTimeout = 5 * time.Second

var errAlreadyProcessing = errors.New("message is already being processed")

type analysisMessageStore interface {
	FindByID(ctx context.Context, id string) (*models.Message, error)
	UpdateStatus(ctx context.Context, id string, from, to models.ProcessingStatus) error
	SetAnalysis(ctx context.Context, id string, analysis *models.MessageAnalysis) error
}

// AnalysisService bridges ingestion and aggregation: it runs the classifier
// gateway over one message and finalizes its processing status.
type AnalysisService struct {
	messages   analysisMessageStore
	classifier ClassifierGateway
}

func NewAnalysisService(messages analysisMessageStore, classifier ClassifierGateway) *AnalysisService {
	return &AnalysisService{
		messages:   messages,
		classifier: classifier,
	}
}

// ClassifyAndFinalize moves a message pending -> processing, runs all three
// classification axes, and stores the result with status completed. Any
// classifier failure marks the message failed and returns a retryable
// ClassificationError; no neutral defaults are ever synthesized, so failed
// messages stay out of the aggregates until reprocessed.
func (s *AnalysisService) ClassifyAndFinalize(ctx context.Context, messageID string) error {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}

	switch msg.ProcessingStatus {
	case models.StatusCompleted:
		return nil
	case models.StatusProcessing:
		// Another attempt may still own the message. Report retryable so the
		// worker comes back after the status settles; a crashed owner leaves
		// the message for the resync pass.
		log.Debug().Str("message_id", messageID).Msg("Message already being processed")
		return &apperrors.ClassificationError{MessageID: messageID, Err: errAlreadyProcessing}
	case models.StatusFailed:
		// Retry path: terminal states only leave via an explicit reset.
		if err := s.messages.UpdateStatus(ctx, messageID, models.StatusFailed, models.StatusPending); err != nil {
			return err
		}
	}

	if err := s.messages.UpdateStatus(ctx, messageID, models.StatusPending, models.StatusProcessing); err != nil {
		return err
	}

	sentiment, sentimentScore, err := s.classifier.ClassifySentiment(ctx, msg.Text)
	if err != nil {
		return s.fail(ctx, messageID, err)
	}
	emotion, emotionScore, err := s.classifier.ClassifyEmotion(ctx, msg.Text)
	if err != nil {
		return s.fail(ctx, messageID, err)
	}
	stress, stressScore, err := s.classifier.ClassifyStress(ctx, msg.Text)
	if err != nil {
		return s.fail(ctx, messageID, err)
	}

	analysis := &models.MessageAnalysis{
		Sentiment:      sentiment,
		SentimentScore: sentimentScore,
		Emotion:        emotion,
		EmotionScore:   emotionScore,
		Stress:         stress,
		StressScore:    stressScore,
		AnalyzedAt:     time.Now().UTC(),
	}

	if err := s.messages.SetAnalysis(ctx, messageID, analysis); err != nil {
		return s.fail(ctx, messageID, err)
	}

	log.Debug().
		Str("message_id", messageID).
		Str("sentiment", string(sentiment)).
		Str("emotion", string(emotion)).
		Bool("stress", stress).
		Msg("Message classified")
	return nil
}

// fail marks the message failed on a context detached from the attempt. The
// attempt context is usually already expired when the classifier timed out,
// and reusing it would abort the write and strand the message in processing.
func (s *AnalysisService) fail(ctx context.Context, messageID string, cause error) error {
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failMarkTimeout)
	defer cancel()
	if err := s.messages.UpdateStatus(markCtx, messageID, models.StatusProcessing, models.StatusFailed); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to mark message failed")
	}
	log.Error().Err(cause).Str("message_id", messageID).Msg("Message classification failed")
	return &apperrors.ClassificationError{MessageID: messageID, Err: cause}
}
