package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(uri, dbName string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Set client options
	clientOptions := options.Client().ApplyURI(uri)

	// Connect to MongoDB
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the database
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, err
	}

	log.Info().Str("database", dbName).Msg("Connected to MongoDB")

	return &MongoDB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (m *MongoDB) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}

// Ping checks connectivity for health reporting.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

// Collection helpers
func (m *MongoDB) Users() *mongo.Collection {
	return m.Database.Collection("users")
}

func (m *MongoDB) Channels() *mongo.Collection {
	return m.Database.Collection("channels")
}

func (m *MongoDB) Messages() *mongo.Collection {
	return m.Database.Collection("messages")
}

func (m *MongoDB) Aggregates() *mongo.Collection {
	return m.Database.Collection("wellbeing_aggregates")
}

// EnsureIndexes creates the unique constraints the upsert contracts rely on,
// plus the range indexes the aggregation fold and dashboards query.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	// Bucket key: one aggregate row per (scope, userHash, source, periodStart, periodType).
	// This unique index is the concurrency boundary for racing aggregation runs.
	_, err := m.Aggregates().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "scope", Value: 1},
				{Key: "userHash", Value: 1},
				{Key: "source", Value: 1},
				{Key: "periodStart", Value: 1},
				{Key: "periodType", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "scope", Value: 1}, {Key: "source", Value: 1}, {Key: "periodStart", Value: 1}}},
		{Keys: bson.D{{Key: "userHash", Value: 1}, {Key: "periodStart", Value: 1}}},
		{Keys: bson.D{{Key: "updatedAt", Value: 1}}},
	})
	if err != nil {
		return err
	}

	// Duplicate submissions: unique per (channelId, externalRef) when a ref is present.
	_, err = m.Messages().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "channelId", Value: 1}, {Key: "externalRef", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"externalRef": bson.M{"$exists": true, "$type": "string"}},
			),
		},
		{Keys: bson.D{{Key: "processingStatus", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "userHash", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "channelId", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = m.Channels().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "type", Value: 1}, {Key: "externalId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = m.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hashedId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
