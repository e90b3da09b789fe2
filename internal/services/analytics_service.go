package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mindpulse-be/internal/apperrors"
	"mindpulse-be/internal/models"
)

const (
	defaultAnalyticsDays = 30
	alertWindowDays      = 7

	lowEngagementThreshold = 5   // messages per window
	lowEngagementRatio     = 0.3 // share of users before the alert fires
)

type aggregateReader interface {
	TeamSummary(ctx context.Context, start, end time.Time) (*models.MetricsSummary, error)
	UserSummaries(ctx context.Context, start, end time.Time) ([]models.UserSummary, error)
	UserSummary(ctx context.Context, userHash string, start, end time.Time) (*models.MetricsSummary, error)
	UserPeriodRows(ctx context.Context, userHash string, start, end time.Time) ([]models.PeriodRow, error)
	UserChannelSummaries(ctx context.Context, userHash string, start, end time.Time) ([]models.ChannelSummary, error)
	ChannelSummaries(ctx context.Context, start, end time.Time) ([]models.ChannelSummary, error)
	TeamPeriodRows(ctx context.Context, start, end time.Time) ([]models.PeriodRow, error)
	EngagementCounts(ctx context.Context, start, end time.Time, threshold int) (total, low int, err error)
}

type userFinder interface {
	FindByHash(ctx context.Context, hash string) (*models.User, error)
}

// AnalyticsService derives every dashboard payload from precomputed aggregate
// rows; nothing on this path touches raw messages.
type AnalyticsService struct {
	aggregates aggregateReader
	users      userFinder
	now        func() time.Time
}

func NewAnalyticsService(aggregates aggregateReader, users userFinder) *AnalyticsService {
	return &AnalyticsService{
		aggregates: aggregates,
		users:      users,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func makePeriod(start, end, calculatedAt time.Time) models.Period {
	return models.Period{
		StartDate:    start.Format(time.RFC3339),
		EndDate:      end.Format(time.RFC3339),
		CalculatedAt: calculatedAt.Format(time.RFC3339),
	}
}

// GetTeamAnalytics builds the management dashboard: team overview, anonymized
// per-user entries with trend against the preceding window of equal length,
// per-channel rollups, and derived alerts.
func (s *AnalyticsService) GetTeamAnalytics(ctx context.Context, days int) (*models.TeamAnalyticsResponse, error) {
	if days <= 0 {
		days = defaultAnalyticsDays
	}
	now := s.now()
	start := now.AddDate(0, 0, -days)
	prevStart := start.AddDate(0, 0, -days)

	team, err := s.aggregates.TeamSummary(ctx, start, now)
	if err != nil {
		return nil, fmt.Errorf("team summary: %w", err)
	}

	teamEmotions := team.EmotionSet()
	teamScore := ComputeWellbeingScore(team.SentimentAvg, team.StressAvg, teamEmotions)

	resp := &models.TeamAnalyticsResponse{
		Period: makePeriod(start, now, now),
		TeamOverview: models.TeamOverview{
			SentimentWeightedAvg: team.SentimentAvg,
			StressWeightedAvg:    team.StressAvg,
			Emotions:             teamEmotions,
			MessageCount:         team.TotalMessages,
			WellbeingScore:       teamScore,
			AlertLevel:           AlertLevelFor(teamScore, team.StressAvg),
		},
		UserAnalytics:    []models.UserAnalytics{},
		ChannelAnalytics: []models.ChannelAnalytics{},
		Alerts:           []models.Alert{},
	}

	users, err := s.aggregates.UserSummaries(ctx, start, now)
	if err != nil {
		return nil, fmt.Errorf("user summaries: %w", err)
	}
	prevUsers, err := s.aggregates.UserSummaries(ctx, prevStart, start)
	if err != nil {
		return nil, fmt.Errorf("previous user summaries: %w", err)
	}
	prevScores := make(map[string]float64, len(prevUsers))
	for _, u := range prevUsers {
		prevScores[u.UserHash] = ComputeWellbeingScore(u.SentimentAvg, u.StressAvg, u.EmotionSet())
	}

	// UserSummaries is ordered by user hash, so positional labels are stable
	// across requests for the same population.
	for i, u := range users {
		emotions := u.EmotionSet()
		score := ComputeWellbeingScore(u.SentimentAvg, u.StressAvg, emotions)
		resp.UserAnalytics = append(resp.UserAnalytics, models.UserAnalytics{
			UserID:               fmt.Sprintf("user_%03d", i+1),
			SentimentWeightedAvg: u.SentimentAvg,
			StressWeightedAvg:    u.StressAvg,
			Emotions:             emotions,
			MessageCount:         u.TotalMessages,
			WellbeingScore:       score,
			Trend:                TrendFor(score, prevScores[u.UserHash]),
			AlertLevel:           AlertLevelFor(score, u.StressAvg),
		})
	}

	channels, err := s.aggregates.ChannelSummaries(ctx, start, now)
	if err != nil {
		return nil, fmt.Errorf("channel summaries: %w", err)
	}
	for _, c := range channels {
		emotions := c.EmotionSet()
		score := ComputeWellbeingScore(c.SentimentAvg, c.StressAvg, emotions)
		resp.ChannelAnalytics = append(resp.ChannelAnalytics, models.ChannelAnalytics{
			Source:               c.Source,
			SentimentWeightedAvg: c.SentimentAvg,
			StressWeightedAvg:    c.StressAvg,
			Emotions:             emotions,
			MessageCount:         c.TotalMessages,
			ActiveUsers:          c.ActiveUsers,
			WellbeingScore:       score,
			AlertLevel:           AlertLevelFor(score, c.StressAvg),
		})
	}
	sort.Slice(resp.ChannelAnalytics, func(i, j int) bool {
		return resp.ChannelAnalytics[i].Source < resp.ChannelAnalytics[j].Source
	})

	resp.Alerts = buildAlerts(resp.UserAnalytics, resp.ChannelAnalytics)
	return resp, nil
}

func buildAlerts(users []models.UserAnalytics, channels []models.ChannelAnalytics) []models.Alert {
	alerts := []models.Alert{}

	critical := 0
	warning := 0
	for _, u := range users {
		switch u.AlertLevel {
		case models.AlertCritical:
			critical++
		case models.AlertWarning:
			warning++
		}
	}
	if critical > 0 {
		alerts = append(alerts, models.Alert{
			Type:           "critical_wellbeing",
			Severity:       "high",
			Message:        fmt.Sprintf("%d employees showing critical wellbeing indicators", critical),
			Count:          critical,
			ActionRequired: true,
		})
	}
	if warning > 0 {
		alerts = append(alerts, models.Alert{
			Type:           "elevated_stress",
			Severity:       "medium",
			Message:        fmt.Sprintf("%d employees showing elevated stress levels", warning),
			Count:          warning,
			ActionRequired: false,
		})
	}

	var poor []string
	for _, c := range channels {
		if c.WellbeingScore < 4 {
			poor = append(poor, c.Source)
		}
	}
	if len(poor) > 0 {
		msg := "Poor wellbeing indicators in " + poor[0]
		for _, src := range poor[1:] {
			msg += ", " + src
		}
		alerts = append(alerts, models.Alert{
			Type:           "channel_performance",
			Severity:       "medium",
			Message:        msg,
			Count:          len(poor),
			ActionRequired: false,
		})
	}
	return alerts
}

// GetUserWellbeing returns one user's overall metrics, per-bucket trend series,
// and channel breakdown for the window.
func (s *AnalyticsService) GetUserWellbeing(ctx context.Context, userHash string, days int) (*models.UserWellbeingResponse, error) {
	if days <= 0 {
		days = defaultAnalyticsDays
	}
	if _, err := s.users.FindByHash(ctx, userHash); err != nil {
		return nil, err
	}

	now := s.now()
	start := now.AddDate(0, 0, -days)

	overall, err := s.aggregates.UserSummary(ctx, userHash, start, now)
	if err != nil {
		return nil, fmt.Errorf("user summary: %w", err)
	}
	emotions := overall.EmotionSet()

	resp := &models.UserWellbeingResponse{
		UserHash: userHash,
		Period:   makePeriod(start, now, now),
		OverallMetrics: models.OverallMetrics{
			SentimentWeightedAvg: overall.SentimentAvg,
			StressWeightedAvg:    overall.StressAvg,
			Emotions:             emotions,
			MessageCount:         overall.TotalMessages,
			WellbeingScore:       ComputeWellbeingScore(overall.SentimentAvg, overall.StressAvg, emotions),
		},
		DailyTrends:      []models.TrendPoint{},
		ChannelBreakdown: []models.ChannelBreakdown{},
	}

	rows, err := s.aggregates.UserPeriodRows(ctx, userHash, start, now)
	if err != nil {
		return nil, fmt.Errorf("user period rows: %w", err)
	}
	for _, row := range rows {
		resp.DailyTrends = append(resp.DailyTrends, trendPoint(row))
	}

	byChannel, err := s.aggregates.UserChannelSummaries(ctx, userHash, start, now)
	if err != nil {
		return nil, fmt.Errorf("user channel summaries: %w", err)
	}
	for _, c := range byChannel {
		chEmotions := c.EmotionSet()
		resp.ChannelBreakdown = append(resp.ChannelBreakdown, models.ChannelBreakdown{
			Source:         c.Source,
			Sentiment:      c.SentimentAvg,
			Stress:         c.StressAvg,
			Emotions:       chEmotions,
			MessageCount:   c.TotalMessages,
			WellbeingScore: ComputeWellbeingScore(c.SentimentAvg, c.StressAvg, chEmotions),
		})
	}

	return resp, nil
}

// GetChannelComparison ranks channel types by activity over the window.
func (s *AnalyticsService) GetChannelComparison(ctx context.Context, days int) (*models.ChannelComparisonResponse, error) {
	if days <= 0 {
		days = alertWindowDays
	}
	now := s.now()
	start := now.AddDate(0, 0, -days)

	channels, err := s.aggregates.ChannelSummaries(ctx, start, now)
	if err != nil {
		return nil, fmt.Errorf("channel summaries: %w", err)
	}

	resp := &models.ChannelComparisonResponse{
		Period:   makePeriod(start, now, now),
		Channels: []models.ChannelComparisonEntry{},
	}
	for _, c := range channels {
		emotions := c.EmotionSet()
		score := ComputeWellbeingScore(c.SentimentAvg, c.StressAvg, emotions)
		resp.Channels = append(resp.Channels, models.ChannelComparisonEntry{
			Source:               c.Source,
			SentimentWeightedAvg: c.SentimentAvg,
			StressWeightedAvg:    c.StressAvg,
			Emotions:             emotions,
			TotalMessages:        c.TotalMessages,
			ActiveUsers:          c.ActiveUsers,
			AvgMessagesPerUser:   c.AvgMessagesPerUser,
			WellbeingScore:       score,
			AlertLevel:           AlertLevelFor(score, c.StressAvg),
		})
	}
	return resp, nil
}

// GetTrends returns the team-level time series for week, month, or quarter.
func (s *AnalyticsService) GetTrends(ctx context.Context, period string) (*models.TrendsResponse, error) {
	var days int
	var interval string
	switch period {
	case "week":
		days, interval = 7, "day"
	case "month":
		days, interval = 30, "day"
	case "quarter":
		days, interval = 90, "week"
	default:
		return nil, apperrors.NewValidationError("period", "invalid period, use 'week', 'month', or 'quarter'")
	}

	now := s.now()
	start := now.AddDate(0, 0, -days)

	rows, err := s.aggregates.TeamPeriodRows(ctx, start, now)
	if err != nil {
		return nil, fmt.Errorf("team period rows: %w", err)
	}

	resp := &models.TrendsResponse{
		Period:    period,
		Interval:  interval,
		StartDate: start.Format(time.RFC3339),
		EndDate:   now.Format(time.RFC3339),
		Trends:    []models.TrendPoint{},
	}
	for _, row := range rows {
		resp.Trends = append(resp.Trends, trendPoint(row))
	}
	return resp, nil
}

// GetAlerts recomputes dashboard alerts over the last week and augments them
// with the engagement check.
func (s *AnalyticsService) GetAlerts(ctx context.Context) (*models.AlertsResponse, error) {
	analytics, err := s.GetTeamAnalytics(ctx, alertWindowDays)
	if err != nil {
		return nil, err
	}
	alerts := analytics.Alerts

	now := s.now()
	start := now.AddDate(0, 0, -alertWindowDays)
	total, low, err := s.aggregates.EngagementCounts(ctx, start, now, lowEngagementThreshold)
	if err != nil {
		return nil, fmt.Errorf("engagement counts: %w", err)
	}
	if total > 0 && float64(low) > float64(total)*lowEngagementRatio {
		alerts = append(alerts, models.Alert{
			Type:           "low_engagement",
			Severity:       "medium",
			Message:        fmt.Sprintf("%d employees showing low communication engagement", low),
			Count:          low,
			ActionRequired: false,
		})
	}

	summary := models.AlertsSummary{TotalAlerts: len(alerts)}
	for _, a := range alerts {
		switch a.Severity {
		case "high":
			summary.HighSeverity++
		case "medium":
			summary.MediumSeverity++
		}
		if a.ActionRequired {
			summary.RequiresAction++
		}
	}

	return &models.AlertsResponse{
		Timestamp: now.Format(time.RFC3339),
		Alerts:    alerts,
		Summary:   summary,
	}, nil
}

func trendPoint(row models.PeriodRow) models.TrendPoint {
	emotions := row.EmotionSet()
	return models.TrendPoint{
		Date:           row.PeriodStart.Format(time.RFC3339),
		Sentiment:      row.SentimentAvg,
		Stress:         row.StressAvg,
		Emotions:       emotions,
		MessageCount:   row.TotalMessages,
		WellbeingScore: ComputeWellbeingScore(row.SentimentAvg, row.StressAvg, emotions),
	}
}
