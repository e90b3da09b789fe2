package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mindpulse-be/config"
	"mindpulse-be/internal/models"

	"github.com/rs/zerolog/log"
)

// ClassifierGateway runs the three classification axes over message text.
// Implementations must already be loaded and reusable across calls; the core
// never manages model lifecycle.
type ClassifierGateway interface {
	ClassifySentiment(ctx context.Context, text string) (models.Sentiment, float64, error)
	ClassifyEmotion(ctx context.Context, text string) (models.Emotion, float64, error)
	ClassifyStress(ctx context.Context, text string) (bool, float64, error)
}

// Label mappings from raw model output to the analysis vocabulary. Unmapped
// labels fall through to a documented default with a logged warning, never a
// silent drop.
var sentimentMapping = map[string]models.Sentiment{
	"positive": models.SentimentPositive,
	"negative": models.SentimentNegative,
	"neutral":  models.SentimentNeutral,
	"label_0":  models.SentimentNegative,
	"label_1":  models.SentimentPositive,
}

var emotionMapping = map[string]models.Emotion{
	"sadness":  models.EmotionSadness,
	"joy":      models.EmotionJoy,
	"love":     models.EmotionLove,
	"anger":    models.EmotionAnger,
	"fear":     models.EmotionFear,
	"surprise": models.EmotionSurprise,
	"label_0":  models.EmotionSadness,
	"label_1":  models.EmotionJoy,
	"label_2":  models.EmotionLove,
	"label_3":  models.EmotionAnger,
	"label_4":  models.EmotionFear,
	"label_5":  models.EmotionSurprise,
}

var stressMapping = map[string]bool{
	"stress":     true,
	"not stress": false,
	"no stress":  false,
	"label_0":    false,
	"label_1":    true,
}

// HTTPClassifier calls a text-classification inference server with one model
// endpoint per axis.
type HTTPClassifier struct {
	baseURL        string
	apiKey         string
	sentimentModel string
	emotionModel   string
	stressModel    string
	client         *http.Client
}

func NewHTTPClassifier(cfg *config.Config) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL:        strings.TrimRight(cfg.ClassifierBaseURL, "/"),
		apiKey:         cfg.ClassifierAPIKey,
		sentimentModel: cfg.ClassifierSentimentModel,
		emotionModel:   cfg.ClassifierEmotionModel,
		stressModel:    cfg.ClassifierStressModel,
		client:         &http.Client{Timeout: cfg.ClassifierTimeout},
	}
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// classify posts text to one model endpoint and returns the top-ranked label.
func (c *HTTPClassifier) classify(ctx context.Context, model, text string) (labelScore, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return labelScore{}, errors.New("empty text for classification")
	}

	reqBody := map[string]interface{}{
		"inputs": text,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return labelScore{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return labelScore{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return labelScore{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return labelScore{}, fmt.Errorf("classifier error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	// Response is [[{label, score}, ...]] ranked by score
	var result [][]labelScore
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return labelScore{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result) == 0 || len(result[0]) == 0 {
		return labelScore{}, errors.New("no classification data in response")
	}

	return result[0][0], nil
}

func (c *HTTPClassifier) ClassifySentiment(ctx context.Context, text string) (models.Sentiment, float64, error) {
	top, err := c.classify(ctx, c.sentimentModel, text)
	if err != nil {
		return "", 0, fmt.Errorf("sentiment detection failed: %w", err)
	}

	mapped, ok := sentimentMapping[strings.ToLower(top.Label)]
	if !ok {
		log.Warn().Str("label", top.Label).Msg("Unknown sentiment label, defaulting to neutral")
		mapped = models.SentimentNeutral
	}
	return mapped, top.Score, nil
}

func (c *HTTPClassifier) ClassifyEmotion(ctx context.Context, text string) (models.Emotion, float64, error) {
	top, err := c.classify(ctx, c.emotionModel, text)
	if err != nil {
		return "", 0, fmt.Errorf("emotion detection failed: %w", err)
	}

	mapped, ok := emotionMapping[strings.ToLower(top.Label)]
	if !ok {
		log.Warn().Str("label", top.Label).Msg("Unknown emotion label, defaulting to unknown")
		mapped = models.EmotionUnknown
	}
	return mapped, top.Score, nil
}

func (c *HTTPClassifier) ClassifyStress(ctx context.Context, text string) (bool, float64, error) {
	top, err := c.classify(ctx, c.stressModel, text)
	if err != nil {
		return false, 0, fmt.Errorf("stress detection failed: %w", err)
	}

	mapped, ok := stressMapping[strings.ToLower(top.Label)]
	if !ok {
		log.Warn().Str("label", top.Label).Msg("Unknown stress label, defaulting to false")
		mapped = false
	}
	return mapped, top.Score, nil
}
