package models

import "time"

// EntityScope tags which population a wellbeing aggregate row covers.
type EntityScope string

const (
	ScopeTeam        EntityScope = "team"         // all messages in the window, no user filter
	ScopeUser        EntityScope = "user"         // one user across all channels
	ScopeUserChannel EntityScope = "user_channel" // one user in one channel type
)

type PeriodType string

const (
	PeriodHourly  PeriodType = "hourly"
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

func IsPeriodType(p string) bool {
	switch PeriodType(p) {
	case PeriodHourly, PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// SourceOverall marks rows not restricted to a single channel type.
const SourceOverall = "overall"

// WellbeingAggregate is one numeric summary for a (scope, source, period)
// bucket. The tuple (scope, userHash, source, periodStart, periodType) is
// unique; recomputation replaces the row instead of appending.
type WellbeingAggregate struct {
	Scope    EntityScope `json:"scope" bson:"scope"`
	UserHash string      `json:"userHash,omitempty" bson:"userHash,omitempty"` // empty for team rows
	Source   string      `json:"source" bson:"source"`

	PeriodStart time.Time  `json:"periodStart" bson:"periodStart"`
	PeriodEnd   time.Time  `json:"periodEnd" bson:"periodEnd"`
	PeriodType  PeriodType `json:"periodType" bson:"periodType"`

	SentimentWeightedAvg float64 `json:"sentimentWeightedAvg" bson:"sentimentWeightedAvg"`
	StressWeightedAvg    float64 `json:"stressWeightedAvg" bson:"stressWeightedAvg"`

	EmotionSadnessAvg  float64 `json:"emotionSadnessAvg" bson:"emotionSadnessAvg"`
	EmotionJoyAvg      float64 `json:"emotionJoyAvg" bson:"emotionJoyAvg"`
	EmotionLoveAvg     float64 `json:"emotionLoveAvg" bson:"emotionLoveAvg"`
	EmotionAngerAvg    float64 `json:"emotionAngerAvg" bson:"emotionAngerAvg"`
	EmotionFearAvg     float64 `json:"emotionFearAvg" bson:"emotionFearAvg"`
	EmotionSurpriseAvg float64 `json:"emotionSurpriseAvg" bson:"emotionSurpriseAvg"`

	MessageCount int `json:"messageCount" bson:"messageCount"`
	ActiveUsers  int `json:"activeUsers" bson:"activeUsers"` // meaningful for non-user-scoped rows only

	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Emotions returns the per-emotion averages keyed by emotion name.
func (a *WellbeingAggregate) Emotions() map[Emotion]float64 {
	return map[Emotion]float64{
		EmotionSadness:  a.EmotionSadnessAvg,
		EmotionJoy:      a.EmotionJoyAvg,
		EmotionLove:     a.EmotionLoveAvg,
		EmotionAnger:    a.EmotionAngerAvg,
		EmotionFear:     a.EmotionFearAvg,
		EmotionSurprise: a.EmotionSurpriseAvg,
	}
}

type AlertLevel string

const (
	AlertCritical  AlertLevel = "critical"
	AlertWarning   AlertLevel = "warning"
	AlertNormal    AlertLevel = "normal"
	AlertExcellent AlertLevel = "excellent"
)

type Trend string

const (
	TrendNew       Trend = "new"
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// WellbeingScore is derived from an aggregate on read; it is never persisted.
type WellbeingScore struct {
	Value      float64    `json:"value"`
	AlertLevel AlertLevel `json:"alert_level"`
	Trend      Trend      `json:"trend"`
}
