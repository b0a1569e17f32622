package databases

// go generate: mockery --name CapsuleDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/morphsync/med-station-api/models"
)

const capsuleCollectionName = "capsules"

// CapsuleDatabase contains the methods to use with the capsule database
type CapsuleDatabase interface {
	CreateCapsule(ctx context.Context, capsule *models.Capsule) error
	GetCapsuleByID(ctx context.Context, id string) (*models.Capsule, error)
	FindActiveByUserID(ctx context.Context, userID, today string) ([]models.Capsule, error)
	FindEndedByUserID(ctx context.Context, userID, today string) ([]models.Capsule, error)
	UpdateCapsule(ctx context.Context, id string, details models.CapsuleDetails) error
	DeleteCapsule(ctx context.Context, id string) error
	RecordDoseTaken(ctx context.Context, id string, pills int, at time.Time) (*models.Capsule, error)
	FindLowStock(ctx context.Context, threshold int, today string) ([]models.Capsule, error)
}

type capsuleDatabase struct {
	db DatabaseHelper
}

// NewCapsuleDatabase initializes a new instance of capsule database with the provided db connection
func NewCapsuleDatabase(db DatabaseHelper) CapsuleDatabase {
	return &capsuleDatabase{
		db: db,
	}
}

func (c *capsuleDatabase) CreateCapsule(ctx context.Context, capsule *models.Capsule) error {
	now := primitive.NewDateTimeFromTime(time.Now())
	capsule.Details.CreatedAt = now
	capsule.Details.UpdatedAt = now

	if capsule.ID.IsZero() {
		capsule.ID = primitive.NewObjectID()
	}

	_, err := c.db.Collection(capsuleCollectionName).InsertOne(ctx, capsule)
	return err
}

func (c *capsuleDatabase) GetCapsuleByID(ctx context.Context, id string) (*models.Capsule, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var capsule models.Capsule
	err = c.db.Collection(capsuleCollectionName).FindOne(ctx, bson.M{"_id": objectID}).Decode(&capsule)
	if err != nil {
		return nil, err
	}
	return &capsule, nil
}

// FindActiveByUserID returns capsules whose end date has not yet passed.
// Civil dates sort lexicographically, so a plain string comparison works.
func (c *capsuleDatabase) FindActiveByUserID(ctx context.Context, userID, today string) ([]models.Capsule, error) {
	filter := bson.M{
		"capsule.userID":  userID,
		"capsule.endDate": bson.M{"$gte": today},
	}
	return c.find(ctx, filter)
}

// FindEndedByUserID returns read-only "history" capsules, end date in the past
func (c *capsuleDatabase) FindEndedByUserID(ctx context.Context, userID, today string) ([]models.Capsule, error) {
	filter := bson.M{
		"capsule.userID":  userID,
		"capsule.endDate": bson.M{"$lt": today},
	}
	return c.find(ctx, filter)
}

func (c *capsuleDatabase) find(ctx context.Context, filter interface{}) ([]models.Capsule, error) {
	cursor, err := c.db.Collection(capsuleCollectionName).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var capsules []models.Capsule
	if err := cursor.All(ctx, &capsules); err != nil {
		return nil, err
	}
	return capsules, nil
}

func (c *capsuleDatabase) UpdateCapsule(ctx context.Context, id string, details models.CapsuleDetails) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	details.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	update := bson.M{
		"$set": bson.M{
			"capsule": details,
		},
	}

	_, err = c.db.Collection(capsuleCollectionName).UpdateOne(ctx, bson.M{"_id": objectID}, update)
	return err
}

func (c *capsuleDatabase) DeleteCapsule(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	return c.db.Collection(capsuleCollectionName).DeleteOne(ctx, bson.M{"_id": objectID})
}

// RecordDoseTaken atomically decrements stock by the dose's pill count,
// floored at zero, and stamps lastTakenAt. The decrement and floor happen in
// a single pipeline update so concurrent taken-events on the same capsule
// cannot lose updates or drive stock negative.
func (c *capsuleDatabase) RecordDoseTaken(ctx context.Context, id string, pills int, at time.Time) (*models.Capsule, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	if pills <= 0 {
		pills = 1
	}

	now := primitive.NewDateTimeFromTime(at)
	update := bson.A{
		bson.M{"$set": bson.M{
			"capsule.stock": bson.M{
				"$max": bson.A{0, bson.M{"$subtract": bson.A{"$capsule.stock", pills}}},
			},
			"capsule.lastTakenAt": now,
			"capsule.updatedAt":   primitive.NewDateTimeFromTime(time.Now()),
		}},
	}

	if _, err := c.db.Collection(capsuleCollectionName).UpdateOne(ctx, bson.M{"_id": objectID}, update); err != nil {
		return nil, err
	}

	return c.GetCapsuleByID(ctx, id)
}

// FindLowStock returns still-active capsules whose stock has dropped below
// the refill threshold
func (c *capsuleDatabase) FindLowStock(ctx context.Context, threshold int, today string) ([]models.Capsule, error) {
	filter := bson.M{
		"capsule.stock":   bson.M{"$lt": threshold},
		"capsule.endDate": bson.M{"$gte": today},
	}
	return c.find(ctx, filter)
}
