package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"mindpulse-be/internal/apperrors"
	"mindpulse-be/internal/models"

	"github.com/rs/zerolog/log"
)

type completedLister interface {
	ListCompletedInRange(ctx context.Context, start, end time.Time) ([]*models.Message, error)
}

type aggregateUpserter interface {
	Upsert(ctx context.Context, agg *models.WellbeingAggregate) error
}

// AggregationReport summarizes one recompute run.
type AggregationReport struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Messages    int       `json:"messages"`
	Groups      int       `json:"groups"`
	Upserted    int       `json:"upserted"`
	Failed      int       `json:"failed"`
}

// AggregationService folds classified messages into wellbeing aggregate rows.
// Each run fully recomputes every bucket in the window from raw completed
// messages, so re-execution is drift-free and at-least-once scheduling is
// safe.
type AggregationService struct {
	messages   completedLister
	aggregates aggregateUpserter

	mu sync.Mutex // single-writer discipline across concurrent recomputes
}

func NewAggregationService(messages completedLister, aggregates aggregateUpserter) *AggregationService {
	return &AggregationService{
		messages:   messages,
		aggregates: aggregates,
	}
}

// bucketKey identifies one accumulator group during the fold.
type bucketKey struct {
	scope    models.EntityScope
	userHash string
	source   string
}

type bucketAccumulator struct {
	positiveSentimentSum float64
	negativeSentimentSum float64
	stressSum            float64
	noStressSum          float64
	emotionSums          map[models.Emotion]float64
	emotionCounts        map[models.Emotion]int
	count                int
	users                map[string]struct{}
}

func newBucketAccumulator() *bucketAccumulator {
	return &bucketAccumulator{
		emotionSums:   make(map[models.Emotion]float64),
		emotionCounts: make(map[models.Emotion]int),
		users:         make(map[string]struct{}),
	}
}

func (b *bucketAccumulator) add(msg *models.Message) {
	a := msg.Analysis

	switch a.Sentiment {
	case models.SentimentPositive:
		b.positiveSentimentSum += a.SentimentScore
	case models.SentimentNegative:
		b.negativeSentimentSum += a.SentimentScore
	}

	if a.Stress {
		b.stressSum += a.StressScore
	} else {
		b.noStressSum += a.StressScore
	}

	b.emotionSums[a.Emotion] += a.EmotionScore
	b.emotionCounts[a.Emotion]++

	b.count++
	b.users[msg.UserHash] = struct{}{}
}

func (b *bucketAccumulator) emotionAvg(e models.Emotion) float64 {
	// Each emotion is normalized by its own count, not the group total; a
	// group with no messages of emotion e reports 0.0.
	if b.emotionCounts[e] == 0 {
		return 0.0
	}
	return b.emotionSums[e] / float64(b.emotionCounts[e])
}

// RecomputePeriod rebuilds every aggregate bucket for [periodStart, periodEnd).
// A failing group is logged, counted, and skipped; the run errors only when
// every group fails. Zero-message buckets are never written.
func (s *AggregationService) RecomputePeriod(ctx context.Context, periodStart, periodEnd time.Time, periodType models.PeriodType) (*AggregationReport, error) {
	if !periodStart.Before(periodEnd) {
		return nil, apperrors.NewValidationError("period", "period_start must be before period_end")
	}
	if !models.IsPeriodType(string(periodType)) {
		return nil, apperrors.NewValidationError("period_type", "invalid period type")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.messages.ListCompletedInRange(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("listing completed messages: %w", err)
	}

	report := &AggregationReport{PeriodStart: periodStart, PeriodEnd: periodEnd, Messages: len(messages)}
	if len(messages) == 0 {
		log.Info().
			Time("period_start", periodStart).
			Time("period_end", periodEnd).
			Msg("No completed messages in period, nothing to aggregate")
		return report, nil
	}

	buckets := make(map[bucketKey]*bucketAccumulator)
	fold := func(key bucketKey, msg *models.Message) {
		acc, ok := buckets[key]
		if !ok {
			acc = newBucketAccumulator()
			buckets[key] = acc
		}
		acc.add(msg)
	}

	for _, msg := range messages {
		if msg.Analysis == nil {
			log.Warn().Str("message_id", msg.ID.Hex()).Msg("Completed message without analysis, skipping")
			continue
		}
		fold(bucketKey{scope: models.ScopeTeam, source: models.SourceOverall}, msg)
		fold(bucketKey{scope: models.ScopeUser, userHash: msg.UserHash, source: models.SourceOverall}, msg)
		fold(bucketKey{scope: models.ScopeUserChannel, userHash: msg.UserHash, source: msg.ChannelType}, msg)
	}

	report.Groups = len(buckets)
	for key, acc := range buckets {
		agg, err := finalizeBucket(key, acc, periodStart, periodEnd, periodType)
		if err == nil {
			err = s.aggregates.Upsert(ctx, agg)
		}
		if err != nil {
			report.Failed++
			aggErr := &apperrors.AggregationError{
				Bucket: fmt.Sprintf("%s/%s/%s", key.scope, key.userHash, key.source),
				Err:    err,
			}
			log.Error().Err(aggErr).Msg("Bucket aggregation failed, skipping")
			continue
		}
		report.Upserted++
	}

	if report.Failed > 0 && report.Failed == report.Groups {
		return report, &apperrors.AggregationError{Bucket: "all", Err: fmt.Errorf("all %d groups failed", report.Groups)}
	}

	log.Info().
		Time("period_start", periodStart).
		Int("messages", report.Messages).
		Int("groups", report.Groups).
		Int("upserted", report.Upserted).
		Int("failed", report.Failed).
		Msg("Wellbeing aggregation completed")
	return report, nil
}

func finalizeBucket(key bucketKey, acc *bucketAccumulator, periodStart, periodEnd time.Time, periodType models.PeriodType) (*models.WellbeingAggregate, error) {
	if acc.count == 0 {
		return nil, fmt.Errorf("empty bucket")
	}

	n := float64(acc.count)
	agg := &models.WellbeingAggregate{
		Scope:       key.scope,
		UserHash:    key.userHash,
		Source:      key.source,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		PeriodType:  periodType,

		SentimentWeightedAvg: (acc.positiveSentimentSum - acc.negativeSentimentSum) / n,
		StressWeightedAvg:    (acc.stressSum - acc.noStressSum) / n,

		EmotionSadnessAvg:  acc.emotionAvg(models.EmotionSadness),
		EmotionJoyAvg:      acc.emotionAvg(models.EmotionJoy),
		EmotionLoveAvg:     acc.emotionAvg(models.EmotionLove),
		EmotionAngerAvg:    acc.emotionAvg(models.EmotionAnger),
		EmotionFearAvg:     acc.emotionAvg(models.EmotionFear),
		EmotionSurpriseAvg: acc.emotionAvg(models.EmotionSurprise),

		MessageCount: acc.count,
	}
	if key.scope != models.ScopeUser && key.scope != models.ScopeUserChannel {
		agg.ActiveUsers = len(acc.users)
	}

	if err := validateAggregate(agg); err != nil {
		return nil, err
	}
	return agg, nil
}

func validateAggregate(agg *models.WellbeingAggregate) error {
	if !inRange(agg.SentimentWeightedAvg, -1, 1) {
		return fmt.Errorf("sentiment_weighted_avg out of range: %v", agg.SentimentWeightedAvg)
	}
	if !inRange(agg.StressWeightedAvg, -1, 1) {
		return fmt.Errorf("stress_weighted_avg out of range: %v", agg.StressWeightedAvg)
	}
	for emotion, avg := range agg.Emotions() {
		if !inRange(avg, 0, 1) {
			return fmt.Errorf("emotion_%s_avg out of range: %v", emotion, avg)
		}
	}
	return nil
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= lo && v <= hi
}
