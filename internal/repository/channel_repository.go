package repository

import (
	"context"
	"sort"
	"time"

	"mindpulse-be/internal/apperrors"
	"mindpulse-be/internal/models"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ChannelRepository struct {
	collection *mongo.Collection
}

func NewChannelRepository(db *mongo.Database) *ChannelRepository {
	return &ChannelRepository{
		collection: db.Collection("channels"),
	}
}

// GetActiveByID resolves a channel id to an active channel.
func (r *ChannelRepository) GetActiveByID(ctx context.Context, id string) (*models.Channel, error) {
	var channel models.Channel
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "isActive": true}).Decode(&channel)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &apperrors.InvalidChannelError{ChannelID: id}
		}
		return nil, err
	}
	return &channel, nil
}

func (r *ChannelRepository) ListActive(ctx context.Context) ([]*models.Channel, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var channels []*models.Channel
	if err = cursor.All(ctx, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// GetOrCreate registers a channel keyed by (type, externalId); an existing
// channel gets its name refreshed.
func (r *ChannelRepository) GetOrCreate(ctx context.Context, name, channelType, externalID string) (*models.Channel, error) {
	var existing models.Channel
	err := r.collection.FindOne(ctx, bson.M{"type": channelType, "externalId": externalID}).Decode(&existing)
	if err == nil {
		if existing.Name != name {
			_, err = r.collection.UpdateOne(ctx,
				bson.M{"_id": existing.ID},
				bson.M{"$set": bson.M{"name": name}},
			)
			if err != nil {
				return nil, err
			}
			existing.Name = name
		}
		return &existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	channel := &models.Channel{
		ID:         uuid.NewString(),
		Name:       name,
		Type:       channelType,
		ExternalID: externalID,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := r.collection.InsertOne(ctx, channel); err != nil {
		// Racing creator won; read theirs back.
		if mongo.IsDuplicateKeyError(err) {
			err = r.collection.FindOne(ctx, bson.M{"type": channelType, "externalId": externalID}).Decode(&existing)
			if err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}
	return channel, nil
}

// Search ranks active channels by fuzzy match against their names. An empty
// query returns all active channels.
func (r *ChannelRepository) Search(ctx context.Context, query string) ([]*models.Channel, error) {
	channels, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		sort.Slice(channels, func(i, j int) bool { return channels[i].Name < channels[j].Name })
		return channels, nil
	}

	names := make([]string, len(channels))
	for i, c := range channels {
		names[i] = c.Name
	}

	matches := fuzzy.Find(query, names)
	ranked := make([]*models.Channel, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, channels[m.Index])
	}
	return ranked, nil
}
