package models

import "time"

// MetricsSummary is the read-side rollup of aggregate rows over a date range.
// Averages are arithmetic means across bucket rows; messages are summed.
type MetricsSummary struct {
	SentimentAvg  float64 `bson:"sentimentAvg"`
	StressAvg     float64 `bson:"stressAvg"`
	SadnessAvg    float64 `bson:"sadnessAvg"`
	JoyAvg        float64 `bson:"joyAvg"`
	LoveAvg       float64 `bson:"loveAvg"`
	AngerAvg      float64 `bson:"angerAvg"`
	FearAvg       float64 `bson:"fearAvg"`
	SurpriseAvg   float64 `bson:"surpriseAvg"`
	TotalMessages int     `bson:"totalMessages"`
}

// EmotionSet converts the summary's emotion averages to the payload shape.
func (m MetricsSummary) EmotionSet() EmotionSet {
	return EmotionSet{
		Joy:      m.JoyAvg,
		Sadness:  m.SadnessAvg,
		Anger:    m.AngerAvg,
		Fear:     m.FearAvg,
		Love:     m.LoveAvg,
		Surprise: m.SurpriseAvg,
	}
}

type UserSummary struct {
	UserHash       string `bson:"_id"`
	MetricsSummary `bson:",inline"`
}

type ChannelSummary struct {
	Source             string  `bson:"_id"`
	MetricsSummary     `bson:",inline"`
	ActiveUsers        int     `bson:"activeUsers"`
	AvgMessagesPerUser float64 `bson:"avgMessagesPerUser"`
}

type PeriodRow struct {
	PeriodStart    time.Time `bson:"_id"`
	MetricsSummary `bson:",inline"`
}
