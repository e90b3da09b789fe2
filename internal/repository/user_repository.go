package repository

import (
	"context"
	"time"

	"mindpulse-be/internal/apperrors"
	"mindpulse-be/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

func (r *UserRepository) FindByHash(ctx context.Context, userHash string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"hashedId": userHash}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &apperrors.InvalidUserError{UserHash: userHash}
		}
		return nil, err
	}
	return &user, nil
}

// TouchActivity bumps the user's denormalized message counter and last
// activity timestamp. Callers treat failures as non-fatal.
func (r *UserRepository) TouchActivity(ctx context.Context, userHash string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"hashedId": userHash},
		bson.M{
			"$inc": bson.M{"messageCount": 1},
			"$set": bson.M{"lastActivity": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &apperrors.InvalidUserError{UserHash: userHash}
	}
	return nil
}
