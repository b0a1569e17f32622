package databases

// go generate: mockery --name PushTokenDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/morphsync/med-station-api/models"
)

const pushTokenCollectionName = "pushtokens"

// PushTokenDatabase contains the methods to use with the push token database
type PushTokenDatabase interface {
	FindByUserID(ctx context.Context, userID string) ([]models.PushToken, error)
	FindByUserIDs(ctx context.Context, userIDs []string) ([]models.PushToken, error)
	Upsert(ctx context.Context, token models.PushToken) error
	DeleteByToken(ctx context.Context, token string) error
}

type pushTokenDatabase struct {
	db DatabaseHelper
}

// NewPushTokenDatabase initializes a new instance of push token database with the provided db connection
func NewPushTokenDatabase(db DatabaseHelper) PushTokenDatabase {
	return &pushTokenDatabase{
		db: db,
	}
}

func (pt *pushTokenDatabase) FindByUserID(ctx context.Context, userID string) ([]models.PushToken, error) {
	return pt.find(ctx, bson.M{"userId": userID})
}

func (pt *pushTokenDatabase) FindByUserIDs(ctx context.Context, userIDs []string) ([]models.PushToken, error) {
	return pt.find(ctx, bson.M{"userId": bson.M{"$in": userIDs}})
}

func (pt *pushTokenDatabase) find(ctx context.Context, filter interface{}) ([]models.PushToken, error) {
	cursor, err := pt.db.Collection(pushTokenCollectionName).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tokens []models.PushToken
	if err := cursor.All(ctx, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// Upsert registers a device token, refreshing the record if the token is
// already known
func (pt *pushTokenDatabase) Upsert(ctx context.Context, token models.PushToken) error {
	now := primitive.NewDateTimeFromTime(time.Now())
	update := bson.M{
		"$set": bson.M{
			"userId":    token.UserID,
			"platform":  token.Platform,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := pt.db.Collection(pushTokenCollectionName).UpdateOne(ctx, bson.M{"token": token.Token}, update, opts)
	return err
}

func (pt *pushTokenDatabase) DeleteByToken(ctx context.Context, token string) error {
	return pt.db.Collection(pushTokenCollectionName).DeleteOne(ctx, bson.M{"token": token})
}
