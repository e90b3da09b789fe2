package repository

import (
	"context"
	"time"

	"mindpulse-be/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AggregateRepository struct {
	collection *mongo.Collection
}

func NewAggregateRepository(db *mongo.Database) *AggregateRepository {
	return &AggregateRepository{
		collection: db.Collection("wellbeing_aggregates"),
	}
}

// Upsert replaces the row for the aggregate's bucket key, or creates it. The
// unique bucket index guarantees at most one row survives racing writers.
func (r *AggregateRepository) Upsert(ctx context.Context, agg *models.WellbeingAggregate) error {
	agg.UpdatedAt = time.Now().UTC()

	filter := bson.M{
		"scope":       agg.Scope,
		"userHash":    agg.UserHash,
		"source":      agg.Source,
		"periodStart": agg.PeriodStart,
		"periodType":  agg.PeriodType,
	}
	if agg.UserHash == "" {
		filter["userHash"] = bson.M{"$in": bson.A{nil, ""}}
	}

	_, err := r.collection.ReplaceOne(ctx, filter, agg, options.Replace().SetUpsert(true))
	return err
}

func rangeMatch(extra bson.M, start, end time.Time) bson.M {
	match := bson.M{
		"periodStart": bson.M{"$gte": start},
		"periodEnd":   bson.M{"$lte": end},
	}
	for k, v := range extra {
		match[k] = v
	}
	return match
}

var summaryGroupFields = bson.M{
	"sentimentAvg":  bson.M{"$avg": "$sentimentWeightedAvg"},
	"stressAvg":     bson.M{"$avg": "$stressWeightedAvg"},
	"sadnessAvg":    bson.M{"$avg": "$emotionSadnessAvg"},
	"joyAvg":        bson.M{"$avg": "$emotionJoyAvg"},
	"loveAvg":       bson.M{"$avg": "$emotionLoveAvg"},
	"angerAvg":      bson.M{"$avg": "$emotionAngerAvg"},
	"fearAvg":       bson.M{"$avg": "$emotionFearAvg"},
	"surpriseAvg":   bson.M{"$avg": "$emotionSurpriseAvg"},
	"totalMessages": bson.M{"$sum": "$messageCount"},
}

func groupStage(id interface{}) bson.M {
	group := bson.M{"_id": id}
	for k, v := range summaryGroupFields {
		group[k] = v
	}
	return bson.M{"$group": group}
}

// TeamSummary rolls team-level bucket rows in the range into one summary.
func (r *AggregateRepository) TeamSummary(ctx context.Context, start, end time.Time) (*models.MetricsSummary, error) {
	pipeline := []bson.M{
		{"$match": rangeMatch(bson.M{"scope": models.ScopeTeam, "source": models.SourceOverall}, start, end)},
		groupStage(nil),
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.MetricsSummary
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &models.MetricsSummary{}, nil
	}
	return &results[0], nil
}

// UserSummaries rolls per-user overall rows in the range into one summary per
// user, ordered by user hash so positional anonymization is stable.
func (r *AggregateRepository) UserSummaries(ctx context.Context, start, end time.Time) ([]models.UserSummary, error) {
	pipeline := []bson.M{
		{"$match": rangeMatch(bson.M{"scope": models.ScopeUser, "source": models.SourceOverall}, start, end)},
		groupStage("$userHash"),
		{"$sort": bson.M{"_id": 1}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.UserSummary
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// UserSummary rolls one user's overall rows in the range into a single summary.
func (r *AggregateRepository) UserSummary(ctx context.Context, userHash string, start, end time.Time) (*models.MetricsSummary, error) {
	pipeline := []bson.M{
		{"$match": rangeMatch(bson.M{"scope": models.ScopeUser, "userHash": userHash, "source": models.SourceOverall}, start, end)},
		groupStage(nil),
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.MetricsSummary
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &models.MetricsSummary{}, nil
	}
	return &results[0], nil
}

// UserPeriodRows returns one row per bucket period for a user, ordered by
// period start, for the daily-trend series.
func (r *AggregateRepository) UserPeriodRows(ctx context.Context, userHash string, start, end time.Time) ([]models.PeriodRow, error) {
	pipeline := []bson.M{
		{"$match": rangeMatch(bson.M{"scope": models.ScopeUser, "userHash": userHash, "source": models.SourceOverall}, start, end)},
		groupStage("$periodStart"),
		{"$sort": bson.M{"_id": 1}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.PeriodRow
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// UserChannelSummaries groups one user's channel-scoped rows by source.
func (r *AggregateRepository) UserChannelSummaries(ctx context.Context, userHash string, start, end time.Time) ([]models.ChannelSummary, error) {
	pipeline := []bson.M{
		{"$match": rangeMatch(bson.M{"scope": models.ScopeUserChannel, "userHash": userHash}, start, end)},
		groupStage("$source"),
		{"$sort": bson.M{"_id": 1}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.ChannelSummary
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ChannelSummaries groups channel-scoped rows by source across all users,
// counting distinct active users per source.
func (r *AggregateRepository) ChannelSummaries(ctx context.Context, start, end time.Time) ([]models.ChannelSummary, error) {
	group := bson.M{
		"_id":                "$source",
		"userSet":            bson.M{"$addToSet": "$userHash"},
		"avgMessagesPerUser": bson.M{"$avg": "$messageCount"},
	}
	for k, v := range summaryGroupFields {
		group[k] = v
	}

	pipeline := []bson.M{
		{"$match": rangeMatch(bson.M{"scope": models.ScopeUserChannel}, start, end)},
		{"$group": group},
		{"$addFields": bson.M{"activeUsers": bson.M{"$size": "$userSet"}}},
		{"$project": bson.M{"userSet": 0}},
		{"$sort": bson.M{"totalMessages": -1}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.ChannelSummary
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// TeamPeriodRows returns the team-level bucket series for trend charts.
func (r *AggregateRepository) TeamPeriodRows(ctx context.Context, start, end time.Time) ([]models.PeriodRow, error) {
	pipeline := []bson.M{
		{"$match": rangeMatch(bson.M{"scope": models.ScopeTeam, "source": models.SourceOverall}, start, end)},
		groupStage("$periodStart"),
		{"$sort": bson.M{"_id": 1}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.PeriodRow
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// EngagementCounts reports how many distinct users have per-window message
// totals below the threshold, for the low-engagement alert.
func (r *AggregateRepository) EngagementCounts(ctx context.Context, start, end time.Time, threshold int) (total, low int, err error) {
	pipeline := []bson.M{
		{"$match": rangeMatch(bson.M{"scope": models.ScopeUser, "source": models.SourceOverall}, start, end)},
		{"$group": bson.M{
			"_id":           "$userHash",
			"totalMessages": bson.M{"$sum": "$messageCount"},
		}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			TotalMessages int `bson:"totalMessages"`
		}
		if err := cursor.Decode(&row); err != nil {
			return 0, 0, err
		}
		total++
		if row.TotalMessages < threshold {
			low++
		}
	}
	return total, low, cursor.Err()
}

// DeleteOlderThan removes aggregate rows past the retention window.
func (r *AggregateRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"periodStart": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
