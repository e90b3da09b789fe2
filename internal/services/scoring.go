package services

import (
	"math"

	"mindpulse-be/internal/models"
)

// Wellbeing score weights. Sentiment and stress dominate; individual emotions
// nudge the score within the 0..10 band.
const (
	scoreBase = 5.0

	sentimentWeight = 2.0
	stressWeight    = 1.5

	joyWeight      = 1.0
	loveWeight     = 0.8
	surpriseWeight = 0.3
	sadnessWeight  = 1.2
	angerWeight    = 1.5
	fearWeight     = 1.0
)

// ComputeWellbeingScore maps averaged metrics to a 0..10 score, rounded to one
// decimal place.
func ComputeWellbeingScore(sentimentAvg, stressAvg float64, emotions models.EmotionSet) float64 {
	score := scoreBase
	score += sentimentAvg * sentimentWeight
	score -= stressAvg * stressWeight
	score += emotions.Joy * joyWeight
	score += emotions.Love * loveWeight
	score += emotions.Surprise * surpriseWeight
	score -= emotions.Sadness * sadnessWeight
	score -= emotions.Anger * angerWeight
	score -= emotions.Fear * fearWeight

	score = math.Round(score*10) / 10
	return math.Min(10, math.Max(0, score))
}

// AlertLevelFor classifies a score and stress average. Rules are checked most
// severe first, so a low score with high stress still reads critical.
func AlertLevelFor(score, stressAvg float64) models.AlertLevel {
	switch {
	case score < 3 || stressAvg > 0.7:
		return models.AlertCritical
	case score < 5 || stressAvg > 0.5:
		return models.AlertWarning
	case score > 7 && stressAvg < 0.2:
		return models.AlertExcellent
	default:
		return models.AlertNormal
	}
}

// TrendFor compares a current score against the previous period's. Anything
// within a 5% band reads stable; a zero previous score means there is no
// history to compare against.
func TrendFor(current, previous float64) models.Trend {
	if previous == 0 {
		return models.TrendNew
	}
	change := (current - previous) / previous * 100
	switch {
	case change > 5:
		return models.TrendImproving
	case change < -5:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}
