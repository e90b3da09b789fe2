package models

// EmotionSet is the emotion mix shape used by all dashboard payloads.
type EmotionSet struct {
	Joy      float64 `json:"joy"`
	Sadness  float64 `json:"sadness"`
	Anger    float64 `json:"anger"`
	Fear     float64 `json:"fear"`
	Love     float64 `json:"love"`
	Surprise float64 `json:"surprise"`
}

type Period struct {
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	CalculatedAt string `json:"calculated_at"`
}

type TeamOverview struct {
	SentimentWeightedAvg float64    `json:"sentiment_weighted_avg"`
	StressWeightedAvg    float64    `json:"stress_weighted_avg"`
	Emotions             EmotionSet `json:"emotions"`
	MessageCount         int        `json:"message_count"`
	WellbeingScore       float64    `json:"wellbeing_score"`
	AlertLevel           AlertLevel `json:"alert_level"`
}

// UserAnalytics is an anonymized per-user dashboard entry. UserID is a
// positional label (user_001, ...); the raw user hash never reaches this
// surface.
type UserAnalytics struct {
	UserID               string     `json:"user_id"`
	SentimentWeightedAvg float64    `json:"sentiment_weighted_avg"`
	StressWeightedAvg    float64    `json:"stress_weighted_avg"`
	Emotions             EmotionSet `json:"emotions"`
	MessageCount         int        `json:"message_count"`
	WellbeingScore       float64    `json:"wellbeing_score"`
	Trend                Trend      `json:"trend"`
	AlertLevel           AlertLevel `json:"alert_level"`
}

type ChannelAnalytics struct {
	Source               string     `json:"source"`
	SentimentWeightedAvg float64    `json:"sentiment_weighted_avg"`
	StressWeightedAvg    float64    `json:"stress_weighted_avg"`
	Emotions             EmotionSet `json:"emotions"`
	MessageCount         int        `json:"message_count"`
	ActiveUsers          int        `json:"active_users"`
	WellbeingScore       float64    `json:"wellbeing_score"`
	AlertLevel           AlertLevel `json:"alert_level"`
}

type Alert struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Count          int    `json:"count"`
	ActionRequired bool   `json:"action_required"`
}

type TeamAnalyticsResponse struct {
	Period           Period             `json:"period"`
	TeamOverview     TeamOverview       `json:"team_overview"`
	UserAnalytics    []UserAnalytics    `json:"user_analytics"`
	ChannelAnalytics []ChannelAnalytics `json:"channel_analytics"`
	Alerts           []Alert            `json:"alerts"`
}

type OverallMetrics struct {
	SentimentWeightedAvg float64    `json:"sentiment_weighted_avg"`
	StressWeightedAvg    float64    `json:"stress_weighted_avg"`
	Emotions             EmotionSet `json:"emotions"`
	MessageCount         int        `json:"message_count"`
	WellbeingScore       float64    `json:"wellbeing_score"`
}

type TrendPoint struct {
	Date           string     `json:"date"`
	Sentiment      float64    `json:"sentiment"`
	Stress         float64    `json:"stress"`
	Emotions       EmotionSet `json:"emotions"`
	MessageCount   int        `json:"message_count"`
	WellbeingScore float64    `json:"wellbeing_score"`
}

type ChannelBreakdown struct {
	Source         string     `json:"source"`
	Sentiment      float64    `json:"sentiment"`
	Stress         float64    `json:"stress"`
	Emotions       EmotionSet `json:"emotions"`
	MessageCount   int        `json:"message_count"`
	WellbeingScore float64    `json:"wellbeing_score"`
}

type UserWellbeingResponse struct {
	UserHash         string             `json:"user_hash"`
	Period           Period             `json:"period"`
	OverallMetrics   OverallMetrics     `json:"overall_metrics"`
	DailyTrends      []TrendPoint       `json:"daily_trends"`
	ChannelBreakdown []ChannelBreakdown `json:"channel_breakdown"`
}

type ChannelComparisonEntry struct {
	Source               string     `json:"source"`
	SentimentWeightedAvg float64    `json:"sentiment_weighted_avg"`
	StressWeightedAvg    float64    `json:"stress_weighted_avg"`
	Emotions             EmotionSet `json:"emotions"`
	TotalMessages        int        `json:"total_messages"`
	ActiveUsers          int        `json:"active_users"`
	AvgMessagesPerUser   float64    `json:"avg_messages_per_user"`
	WellbeingScore       float64    `json:"wellbeing_score"`
	AlertLevel           AlertLevel `json:"alert_level"`
}

type ChannelComparisonResponse struct {
	Period   Period                   `json:"period"`
	Channels []ChannelComparisonEntry `json:"channels"`
}

type TrendsResponse struct {
	Period    string       `json:"period"`
	Interval  string       `json:"interval"`
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Trends    []TrendPoint `json:"trends"`
}

type AlertsSummary struct {
	TotalAlerts    int `json:"total_alerts"`
	HighSeverity   int `json:"high_severity"`
	MediumSeverity int `json:"medium_severity"`
	RequiresAction int `json:"requires_action"`
}

type AlertsResponse struct {
	Timestamp string        `json:"timestamp"`
	Alerts    []Alert       `json:"alerts"`
	Summary   AlertsSummary `json:"summary"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
