package services

import (
	"context"
	"math"
	"testing"
	"time"

	"mindpulse-be/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMessageLister struct {
	messages []*models.Message
}

func (f *fakeMessageLister) ListCompletedInRange(_ context.Context, _, _ time.Time) ([]*models.Message, error) {
	return f.messages, nil
}

type fakeAggregateStore struct {
	upserts []*models.WellbeingAggregate
}

func (f *fakeAggregateStore) Upsert(_ context.Context, agg *models.WellbeingAggregate) error {
	f.upserts = append(f.upserts, agg)
	return nil
}

func (f *fakeAggregateStore) find(scope models.EntityScope, userHash, source string) *models.WellbeingAggregate {
	for _, agg := range f.upserts {
		if agg.Scope == scope && agg.UserHash == userHash && agg.Source == source {
			return agg
		}
	}
	return nil
}

func classifiedMessage(userHash, channelType string, analysis models.MessageAnalysis) *models.Message {
	return &models.Message{
		ID:               primitive.NewObjectID(),
		ChannelID:        "chan-1",
		ChannelType:      channelType,
		UserHash:         userHash,
		Text:             "hello",
		ProcessingStatus: models.StatusCompleted,
		Analysis:         &analysis,
	}
}

func dayWindow() (time.Time, time.Time) {
	start := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRecomputePeriodWeightedSentiment(t *testing.T) {
	lister := &fakeMessageLister{messages: []*models.Message{
		classifiedMessage("u1", "discord", models.MessageAnalysis{
			Sentiment: models.SentimentPositive, SentimentScore: 0.8,
			Emotion: models.EmotionJoy, EmotionScore: 0.7,
		}),
		classifiedMessage("u1", "discord", models.MessageAnalysis{
			Sentiment: models.SentimentNegative, SentimentScore: 0.4,
			Emotion: models.EmotionFear, EmotionScore: 0.3,
		}),
	}}
	store := &fakeAggregateStore{}
	svc := NewAggregationService(lister, store)

	start, end := dayWindow()
	report, err := svc.RecomputePeriod(context.Background(), start, end, models.PeriodDaily)
	if err != nil {
		t.Fatalf("RecomputePeriod() error = %v", err)
	}
	if report.Failed != 0 {
		t.Fatalf("report.Failed = %d, want 0", report.Failed)
	}

	team := store.find(models.ScopeTeam, "", models.SourceOverall)
	if team == nil {
		t.Fatal("team row not written")
	}
	// (0.8 - 0.4) / 2
	if !almostEqual(team.SentimentWeightedAvg, 0.2) {
		t.Errorf("SentimentWeightedAvg = %v, want 0.2", team.SentimentWeightedAvg)
	}
	// Each emotion normalized by its own count.
	if !almostEqual(team.EmotionJoyAvg, 0.7) {
		t.Errorf("EmotionJoyAvg = %v, want 0.7", team.EmotionJoyAvg)
	}
	if !almostEqual(team.EmotionFearAvg, 0.3) {
		t.Errorf("EmotionFearAvg = %v, want 0.3", team.EmotionFearAvg)
	}
	if team.EmotionSadnessAvg != 0.0 {
		t.Errorf("EmotionSadnessAvg = %v, want 0.0", team.EmotionSadnessAvg)
	}
	if team.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", team.MessageCount)
	}
	if team.ActiveUsers != 1 {
		t.Errorf("ActiveUsers = %d, want 1", team.ActiveUsers)
	}
}

func TestRecomputePeriodWeightedStress(t *testing.T) {
	lister := &fakeMessageLister{messages: []*models.Message{
		classifiedMessage("u1", "chat", models.MessageAnalysis{
			Sentiment: models.SentimentNeutral, Emotion: models.EmotionJoy, EmotionScore: 0.5,
			Stress: true, StressScore: 0.9,
		}),
		classifiedMessage("u1", "chat", models.MessageAnalysis{
			Sentiment: models.SentimentNeutral, Emotion: models.EmotionJoy, EmotionScore: 0.5,
			Stress: false, StressScore: 0.7,
		}),
	}}
	store := &fakeAggregateStore{}
	svc := NewAggregationService(lister, store)

	start, end := dayWindow()
	if _, err := svc.RecomputePeriod(context.Background(), start, end, models.PeriodDaily); err != nil {
		t.Fatalf("RecomputePeriod() error = %v", err)
	}

	team := store.find(models.ScopeTeam, "", models.SourceOverall)
	// (0.9 - 0.7) / 2
	if !almostEqual(team.StressWeightedAvg, 0.1) {
		t.Errorf("StressWeightedAvg = %v, want 0.1", team.StressWeightedAvg)
	}
}

func TestRecomputePeriodWritesAllScopes(t *testing.T) {
	var messages []*models.Message
	for i := 0; i < 10; i++ {
		messages = append(messages, classifiedMessage("u1", "discord", models.MessageAnalysis{
			Sentiment: models.SentimentPositive, SentimentScore: 0.5,
			Emotion: models.EmotionJoy, EmotionScore: 0.6,
		}))
	}
	lister := &fakeMessageLister{messages: messages}
	store := &fakeAggregateStore{}
	svc := NewAggregationService(lister, store)

	start, end := dayWindow()
	report, err := svc.RecomputePeriod(context.Background(), start, end, models.PeriodDaily)
	if err != nil {
		t.Fatalf("RecomputePeriod() error = %v", err)
	}
	if report.Groups != 3 || report.Upserted != 3 {
		t.Fatalf("report = %+v, want 3 groups and 3 upserts", report)
	}

	user := store.find(models.ScopeUser, "u1", models.SourceOverall)
	if user == nil || user.MessageCount != 10 {
		t.Fatalf("user row = %+v, want message count 10", user)
	}
	if user.ActiveUsers != 0 {
		t.Errorf("user row ActiveUsers = %d, want 0", user.ActiveUsers)
	}

	channel := store.find(models.ScopeUserChannel, "u1", "discord")
	if channel == nil || channel.MessageCount != 10 {
		t.Fatalf("user channel row = %+v, want message count 10", channel)
	}
}

func TestRecomputePeriodEmptyWindowWritesNothing(t *testing.T) {
	lister := &fakeMessageLister{}
	store := &fakeAggregateStore{}
	svc := NewAggregationService(lister, store)

	start, end := dayWindow()
	report, err := svc.RecomputePeriod(context.Background(), start, end, models.PeriodDaily)
	if err != nil {
		t.Fatalf("RecomputePeriod() error = %v", err)
	}
	if report.Groups != 0 || len(store.upserts) != 0 {
		t.Errorf("empty window wrote %d rows, want 0", len(store.upserts))
	}
}

func TestRecomputePeriodSkipsBadGroups(t *testing.T) {
	lister := &fakeMessageLister{messages: []*models.Message{
		// A corrupt score puts the weighted average out of range; every group
		// containing this lone message fails validation.
		classifiedMessage("u1", "jira", models.MessageAnalysis{
			Sentiment: models.SentimentPositive, SentimentScore: 5.0,
			Emotion: models.EmotionJoy, EmotionScore: 0.5,
		}),
	}}
	store := &fakeAggregateStore{}
	svc := NewAggregationService(lister, store)

	start, end := dayWindow()
	report, err := svc.RecomputePeriod(context.Background(), start, end, models.PeriodDaily)
	if err == nil {
		t.Fatal("expected error when every group fails")
	}
	if report.Failed != 3 || report.Upserted != 0 {
		t.Errorf("report = %+v, want 3 failed and 0 upserted", report)
	}
}

func TestRecomputePeriodPartialFailureDoesNotError(t *testing.T) {
	lister := &fakeMessageLister{messages: []*models.Message{
		classifiedMessage("u1", "jira", models.MessageAnalysis{
			Sentiment: models.SentimentPositive, SentimentScore: 5.0,
			Emotion: models.EmotionJoy, EmotionScore: 0.5,
		}),
		classifiedMessage("u2", "chat", models.MessageAnalysis{
			Sentiment: models.SentimentPositive, SentimentScore: 0.5,
			Emotion: models.EmotionJoy, EmotionScore: 0.5,
		}),
	}}
	store := &fakeAggregateStore{}
	svc := NewAggregationService(lister, store)

	start, end := dayWindow()
	report, err := svc.RecomputePeriod(context.Background(), start, end, models.PeriodDaily)
	if err != nil {
		t.Fatalf("RecomputePeriod() error = %v, want nil on partial failure", err)
	}
	if report.Failed == 0 {
		t.Error("expected at least one failed group")
	}
	if store.find(models.ScopeUser, "u2", models.SourceOverall) == nil {
		t.Error("healthy group should still be written")
	}
}

func TestRecomputePeriodRejectsBadInput(t *testing.T) {
	svc := NewAggregationService(&fakeMessageLister{}, &fakeAggregateStore{})
	start, end := dayWindow()

	if _, err := svc.RecomputePeriod(context.Background(), end, start, models.PeriodDaily); err == nil {
		t.Error("expected error for inverted window")
	}
	if _, err := svc.RecomputePeriod(context.Background(), start, end, models.PeriodType("yearly")); err == nil {
		t.Error("expected error for unknown period type")
	}
}

func TestRecomputePeriodEndToEndScenario(t *testing.T) {
	// One user, one hour, all in discord: 6 positive at 0.7, 4 negative at
	// 0.5, no stress.
	var messages []*models.Message
	for i := 0; i < 6; i++ {
		messages = append(messages, classifiedMessage("U1", "discord", models.MessageAnalysis{
			Sentiment: models.SentimentPositive, SentimentScore: 0.7,
			Emotion: models.EmotionJoy, EmotionScore: 0.6,
		}))
	}
	for i := 0; i < 4; i++ {
		messages = append(messages, classifiedMessage("U1", "discord", models.MessageAnalysis{
			Sentiment: models.SentimentNegative, SentimentScore: 0.5,
			Emotion: models.EmotionSadness, EmotionScore: 0.4,
		}))
	}
	lister := &fakeMessageLister{messages: messages}
	store := &fakeAggregateStore{}
	svc := NewAggregationService(lister, store)

	start := time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC)
	if _, err := svc.RecomputePeriod(context.Background(), start, start.Add(time.Hour), models.PeriodHourly); err != nil {
		t.Fatalf("RecomputePeriod() error = %v", err)
	}

	overall := store.find(models.ScopeUser, "U1", models.SourceOverall)
	if overall == nil {
		t.Fatal("overall row for U1 not written")
	}
	// (6*0.7 - 4*0.5) / 10 = 0.22
	if !almostEqual(overall.SentimentWeightedAvg, 0.22) {
		t.Errorf("overall SentimentWeightedAvg = %v, want 0.22", overall.SentimentWeightedAvg)
	}
	if overall.MessageCount != 10 {
		t.Errorf("overall MessageCount = %d, want 10", overall.MessageCount)
	}

	// All messages came from discord, so the channel row carries identical
	// metrics.
	discord := store.find(models.ScopeUserChannel, "U1", "discord")
	if discord == nil {
		t.Fatal("discord row for U1 not written")
	}
	if !almostEqual(discord.SentimentWeightedAvg, overall.SentimentWeightedAvg) ||
		discord.MessageCount != overall.MessageCount ||
		!almostEqual(discord.EmotionJoyAvg, overall.EmotionJoyAvg) ||
		!almostEqual(discord.EmotionSadnessAvg, overall.EmotionSadnessAvg) {
		t.Errorf("discord row %+v differs from overall row %+v", discord, overall)
	}
}

func TestRecomputePeriodIsIdempotent(t *testing.T) {
	lister := &fakeMessageLister{messages: []*models.Message{
		classifiedMessage("u1", "meeting", models.MessageAnalysis{
			Sentiment: models.SentimentPositive, SentimentScore: 0.6,
			Emotion: models.EmotionLove, EmotionScore: 0.4,
		}),
	}}
	store := &fakeAggregateStore{}
	svc := NewAggregationService(lister, store)

	start, end := dayWindow()
	for i := 0; i < 2; i++ {
		if _, err := svc.RecomputePeriod(context.Background(), start, end, models.PeriodDaily); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	// Both runs target the same bucket keys with the same metrics; an
	// upserting store converges on identical rows.
	if len(store.upserts) != 6 {
		t.Fatalf("upsert calls = %d, want 6", len(store.upserts))
	}
	firstRun := make(map[string]float64)
	for _, agg := range store.upserts[:3] {
		firstRun[string(agg.Scope)+"/"+agg.UserHash+"/"+agg.Source] = agg.SentimentWeightedAvg
	}
	for _, agg := range store.upserts[3:] {
		want, ok := firstRun[string(agg.Scope)+"/"+agg.UserHash+"/"+agg.Source]
		if !ok {
			t.Fatalf("second run produced unseen bucket %s/%s/%s", agg.Scope, agg.UserHash, agg.Source)
		}
		if !almostEqual(agg.SentimentWeightedAvg, want) {
			t.Error("second run produced different metrics")
		}
	}
}
