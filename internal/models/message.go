package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// ValidTransition reports whether a message may move from one processing
// status to another. Terminal states only leave via explicit reprocessing,
// which resets to pending.
func ValidTransition(from, to ProcessingStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	case StatusCompleted, StatusFailed:
		return to == StatusPending
	}
	return false
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

type Emotion string

const (
	EmotionSadness  Emotion = "sadness"
	EmotionJoy      Emotion = "joy"
	EmotionLove     Emotion = "love"
	EmotionAnger    Emotion = "anger"
	EmotionFear     Emotion = "fear"
	EmotionSurprise Emotion = "surprise"
	EmotionUnknown  Emotion = "unknown"
)

// Emotions lists the six scored emotions in aggregate field order.
var Emotions = []Emotion{
	EmotionSadness, EmotionJoy, EmotionLove,
	EmotionAnger, EmotionFear, EmotionSurprise,
}

type Message struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ChannelID   string             `json:"channelId" bson:"channelId"`
	ChannelType string             `json:"channelType" bson:"channelType"` // denormalized at ingest for the aggregation fold
	UserHash    string             `json:"userHash" bson:"userHash"`
	Text        string             `json:"text" bson:"text"`
	Length      int                `json:"length" bson:"length"`
	ExternalRef string             `json:"externalRef,omitempty" bson:"externalRef,omitempty"`

	ProcessingStatus ProcessingStatus `json:"processingStatus" bson:"processingStatus"`
	Analysis         *MessageAnalysis `json:"analysis,omitempty" bson:"analysis,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// MessageAnalysis holds the classifier outputs for a message, stored verbatim.
type MessageAnalysis struct {
	Sentiment      Sentiment `json:"sentiment" bson:"sentiment"`
	SentimentScore float64   `json:"sentimentScore" bson:"sentimentScore"`
	Emotion        Emotion   `json:"emotion" bson:"emotion"`
	EmotionScore   float64   `json:"emotionScore" bson:"emotionScore"`
	Stress         bool      `json:"stress" bson:"stress"`
	StressScore    float64   `json:"stressScore" bson:"stressScore"`
	AnalyzedAt     time.Time `json:"analyzedAt" bson:"analyzedAt"`
}

// IngestRequest is one inbound message from an external collector.
type IngestRequest struct {
	ChannelID   string `json:"channel_id" binding:"required"`
	UserHash    string `json:"user_hash" binding:"required"`
	Message     string `json:"message" binding:"required"`
	ExternalRef string `json:"external_ref,omitempty"`
}

// IngestResult reports the outcome for one message of a batch.
type IngestResult struct {
	MessageID   string `json:"message_id,omitempty"`
	ExternalRef string `json:"external_ref,omitempty"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

type IngestSummary struct {
	Total      int `json:"total_messages"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type IngestResponse struct {
	ProcessedMessages []IngestResult `json:"processed_messages"`
	Summary           IngestSummary  `json:"summary"`
}
