package repository

import (
	"context"
	"fmt"
	"time"

	"mindpulse-be/internal/apperrors"
	"mindpulse-be/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{
		collection: db.Collection("messages"),
	}
}

// Insert stores a new message. A duplicate (channelId, externalRef) pair maps
// to apperrors.ErrDuplicateMessage so ingestion can treat replays as no-ops.
func (r *MessageRepository) Insert(ctx context.Context, msg *models.Message) (string, error) {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	msg.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.ErrDuplicateMessage
		}
		return "", err
	}
	return msg.ID.Hex(), nil
}

// FindByExternalRef looks up a previously ingested message by its
// (channel, external_ref) identity.
func (r *MessageRepository) FindByExternalRef(ctx context.Context, channelID, externalRef string) (*models.Message, error) {
	var msg models.Message
	err := r.collection.FindOne(ctx, bson.M{
		"channelId":   channelID,
		"externalRef": externalRef,
	}).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	var msg models.Message
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// UpdateStatus performs a guarded status transition. The filter includes the
// expected current status, so an illegal or racing transition updates nothing
// and returns an error instead of corrupting the lifecycle.
func (r *MessageRepository) UpdateStatus(ctx context.Context, id string, from, to models.ProcessingStatus) error {
	if !models.ValidTransition(from, to) {
		return fmt.Errorf("illegal status transition %s -> %s", from, to)
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.ErrNotFound
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "processingStatus": from},
		bson.M{"$set": bson.M{"processingStatus": to}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("message %s not in status %s", id, from)
	}
	return nil
}

// SetAnalysis stores the classifier output and marks the message completed in
// one write, so a crash between the two cannot leave a completed message
// without analysis.
func (r *MessageRepository) SetAnalysis(ctx context.Context, id string, analysis *models.MessageAnalysis) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.ErrNotFound
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "processingStatus": models.StatusProcessing},
		bson.M{"$set": bson.M{
			"analysis":         analysis,
			"processingStatus": models.StatusCompleted,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("message %s not in status processing", id)
	}
	return nil
}

// ListCompletedInRange returns all classified messages with createdAt in
// [start, end). This is the only raw-message scan in the system; dashboards
// never call it.
func (r *MessageRepository) ListCompletedInRange(ctx context.Context, start, end time.Time) ([]*models.Message, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"processingStatus": models.StatusCompleted,
		"createdAt":        bson.M{"$gte": start, "$lt": end},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// ListStuck returns message ids older than the given cutoff that never
// reached completed: pending, failed, or left in processing by a crashed
// worker. The cutoff keeps genuinely in-flight work out of the result.
func (r *MessageRepository) ListStuck(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{
		"processingStatus": bson.M{"$in": []models.ProcessingStatus{models.StatusPending, models.StatusProcessing, models.StatusFailed}},
		"createdAt":        bson.M{"$lt": cutoff},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, cursor.Err()
}

// ResetForReprocessing moves an unfinished message back to pending so the
// analysis worker picks it up again. Processing rows are included for crash
// recovery; completed messages are never reset through this path.
func (r *MessageRepository) ResetForReprocessing(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.ErrNotFound
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "processingStatus": bson.M{"$in": []models.ProcessingStatus{models.StatusPending, models.StatusProcessing, models.StatusFailed}}},
		bson.M{"$set": bson.M{"processingStatus": models.StatusPending}, "$unset": bson.M{"analysis": ""}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes messages past the retention window.
func (r *MessageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
