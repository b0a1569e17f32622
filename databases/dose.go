package databases

// go generate: mockery --name DoseDatabase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/morphsync/med-station-api/dosing"
	"github.com/morphsync/med-station-api/models"
)

const doseCollectionName = "doses"

// ErrDoseNotPending is returned when a transition update matched no pending
// dose, i.e. the dose reached a terminal state between read and write
var ErrDoseNotPending = errors.New("dose is no longer pending")

// DoseDatabase contains the methods to use with the dose database
type DoseDatabase interface {
	EnsureIndexes(ctx context.Context) error
	InsertGenerated(ctx context.Context, doses []models.Dose) (int, error)
	GetDoseByID(ctx context.Context, id string) (*models.Dose, error)
	FindByUserAndDate(ctx context.Context, userID, date string) ([]models.Dose, error)
	FindTakenByCapsule(ctx context.Context, capsuleID string) ([]models.Dose, error)
	CountMissedSince(ctx context.Context, capsuleID string, since time.Time) (int64, error)
	StatusTotals(ctx context.Context, capsuleID string) (map[string]int64, error)
	ReconcileStale(ctx context.Context, userID string, now time.Time) ([]models.Dose, error)
	MarkTaken(ctx context.Context, id string, takenAt time.Time) (*models.Dose, error)
	MarkMissed(ctx context.Context, id string) (*models.Dose, error)
	Snooze(ctx context.Context, id, until string, untilAt time.Time) (*models.Dose, error)
	DeleteByCapsule(ctx context.Context, capsuleID string) (int64, error)
	FindDueForReminder(ctx context.Context, from, to time.Time) ([]models.Dose, error)
	FindSnoozeDue(ctx context.Context, now time.Time) ([]models.Dose, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time, snooze bool) error
}

type doseDatabase struct {
	db DatabaseHelper
}

// NewDoseDatabase initializes a new instance of dose database with the provided db connection
func NewDoseDatabase(db DatabaseHelper) DoseDatabase {
	return &doseDatabase{
		db: db,
	}
}

// EnsureIndexes creates the unique generation-key index that makes schedule
// generation idempotent, plus the sweep's query index
func (d *doseDatabase) EnsureIndexes(ctx context.Context) error {
	coll := d.db.Collection(doseCollectionName)

	_, err := coll.CreateIndex(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "genKey", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = coll.CreateIndex(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userID", Value: 1}, {Key: "status", Value: 1}, {Key: "scheduledAt", Value: 1}},
	})
	return err
}

// InsertGenerated bulk-inserts generated doses with ordered=false so a
// duplicate generation key skips that dose instead of aborting the batch.
// Returns the number of doses actually inserted.
func (d *doseDatabase) InsertGenerated(ctx context.Context, doses []models.Dose) (int, error) {
	if len(doses) == 0 {
		return 0, nil
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	docs := make([]interface{}, 0, len(doses))
	for i := range doses {
		if doses[i].ID.IsZero() {
			doses[i].ID = primitive.NewObjectID()
		}
		doses[i].CreatedAt = now
		doses[i].UpdatedAt = now
		docs = append(docs, doses[i])
	}

	opts := options.InsertMany().SetOrdered(false)
	res, err := d.db.Collection(doseCollectionName).InsertMany(ctx, docs, opts)
	if err != nil {
		// duplicate keys mean the schedule was already (partially) generated;
		// that is the idempotence contract, not a failure
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) && allDuplicateKeys(bwe) {
			if res != nil {
				return len(res.InsertedIDs), nil
			}
			return 0, nil
		}
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

func allDuplicateKeys(bwe mongo.BulkWriteException) bool {
	if len(bwe.WriteErrors) == 0 {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return true
}

func (d *doseDatabase) GetDoseByID(ctx context.Context, id string) (*models.Dose, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var dose models.Dose
	err = d.db.Collection(doseCollectionName).FindOne(ctx, bson.M{"_id": objectID}).Decode(&dose)
	if err != nil {
		return nil, err
	}
	return &dose, nil
}

func (d *doseDatabase) FindByUserAndDate(ctx context.Context, userID, date string) ([]models.Dose, error) {
	return d.find(ctx, bson.M{"userID": userID, "date": date})
}

func (d *doseDatabase) FindTakenByCapsule(ctx context.Context, capsuleID string) ([]models.Dose, error) {
	objectID, err := primitive.ObjectIDFromHex(capsuleID)
	if err != nil {
		return nil, err
	}
	return d.find(ctx, bson.M{"capsuleID": objectID, "status": dosing.StatusTaken})
}

func (d *doseDatabase) CountMissedSince(ctx context.Context, capsuleID string, since time.Time) (int64, error) {
	objectID, err := primitive.ObjectIDFromHex(capsuleID)
	if err != nil {
		return 0, err
	}
	filter := bson.M{
		"capsuleID":   objectID,
		"status":      dosing.StatusMissed,
		"scheduledAt": bson.M{"$gte": primitive.NewDateTimeFromTime(since)},
	}
	return d.db.Collection(doseCollectionName).CountDocuments(ctx, filter)
}

// StatusTotals aggregates dose counts per status for one capsule
func (d *doseDatabase) StatusTotals(ctx context.Context, capsuleID string) (map[string]int64, error) {
	objectID, err := primitive.ObjectIDFromHex(capsuleID)
	if err != nil {
		return nil, err
	}

	pipeline := []bson.M{
		{"$match": bson.M{"capsuleID": objectID}},
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}

	cursor, err := d.db.Collection(doseCollectionName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []models.DoseStatusTotals
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	totals := make(map[string]int64, len(rows))
	for _, row := range rows {
		totals[row.Status] = row.Count
	}
	return totals, nil
}

// ReconcileStale transitions every pending dose whose due moment is at or
// before now to missed, returning the doses that were transitioned. A
// scheduled dose is due at its scheduled moment; a snoozed dose is due at
// its snooze target. An empty userID reconciles across all subjects (the
// cron tick); the read path passes the subject being listed. Both call
// sites share this one operation so the two sweeps cannot diverge.
func (d *doseDatabase) ReconcileStale(ctx context.Context, userID string, now time.Time) ([]models.Dose, error) {
	cutoff := primitive.NewDateTimeFromTime(now)
	filter := bson.M{
		"$or": []bson.M{
			{"status": dosing.StatusScheduled, "scheduledAt": bson.M{"$lte": cutoff}},
			{"status": dosing.StatusSnoozed, "snoozeUntilAt": bson.M{"$lte": cutoff}},
		},
	}
	if userID != "" {
		filter["userID"] = userID
	}

	stale, err := d.find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}

	update := bson.M{
		"$set": bson.M{
			"status":    dosing.StatusMissed,
			"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
		},
	}
	if _, err := d.db.Collection(doseCollectionName).UpdateMany(ctx, filter, update); err != nil {
		return nil, err
	}

	// Re-read by ID rather than trusting the pre-update find: a dose taken
	// between the find and the UpdateMany no longer matches the status
	// filter and must not be reported (or notified) as missed.
	ids := make([]primitive.ObjectID, 0, len(stale))
	for i := range stale {
		ids = append(ids, stale[i].ID)
	}
	return d.find(ctx, bson.M{
		"_id":    bson.M{"$in": ids},
		"status": dosing.StatusMissed,
	})
}

// MarkTaken transitions a pending dose to taken. The filter re-checks the
// pending statuses so a dose that raced into a terminal state is not
// overwritten; that case surfaces as ErrDoseNotPending.
func (d *doseDatabase) MarkTaken(ctx context.Context, id string, takenAt time.Time) (*models.Dose, error) {
	update := bson.M{
		"$set": bson.M{
			"status":    dosing.StatusTaken,
			"takenAt":   primitive.NewDateTimeFromTime(takenAt),
			"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
		},
	}
	return d.transition(ctx, id, update)
}

// MarkMissed transitions a pending dose to missed
func (d *doseDatabase) MarkMissed(ctx context.Context, id string) (*models.Dose, error) {
	update := bson.M{
		"$set": bson.M{
			"status":    dosing.StatusMissed,
			"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
		},
	}
	return d.transition(ctx, id, update)
}

// Snooze defers a scheduled dose to a new target time. Snoozing an already
// snoozed dose is rejected by the caller via the lifecycle check.
func (d *doseDatabase) Snooze(ctx context.Context, id, until string, untilAt time.Time) (*models.Dose, error) {
	update := bson.M{
		"$set": bson.M{
			"status":        dosing.StatusSnoozed,
			"snoozeUntil":   until,
			"snoozeUntilAt": primitive.NewDateTimeFromTime(untilAt),
			"updatedAt":     primitive.NewDateTimeFromTime(time.Now()),
		},
	}
	return d.transition(ctx, id, update)
}

func (d *doseDatabase) transition(ctx context.Context, id string, update interface{}) (*models.Dose, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": dosing.Sweepable()},
	}
	res, err := d.db.Collection(doseCollectionName).UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrDoseNotPending
	}

	return d.GetDoseByID(ctx, id)
}

// DeleteByCapsule removes every dose owned by a capsule; doses are never
// deleted individually
func (d *doseDatabase) DeleteByCapsule(ctx context.Context, capsuleID string) (int64, error) {
	objectID, err := primitive.ObjectIDFromHex(capsuleID)
	if err != nil {
		return 0, err
	}
	return d.db.Collection(doseCollectionName).DeleteMany(ctx, bson.M{"capsuleID": objectID})
}

// FindDueForReminder returns scheduled doses whose moment falls inside the
// upcoming-reminder window and that have not yet been reminded
func (d *doseDatabase) FindDueForReminder(ctx context.Context, from, to time.Time) ([]models.Dose, error) {
	filter := bson.M{
		"status": dosing.StatusScheduled,
		"scheduledAt": bson.M{
			"$gte": primitive.NewDateTimeFromTime(from),
			"$lte": primitive.NewDateTimeFromTime(to),
		},
		"reminderSentAt": bson.M{"$exists": false},
	}
	return d.find(ctx, filter)
}

// FindSnoozeDue returns snoozed doses whose snooze target has arrived and
// that have not yet received their snooze reminder
func (d *doseDatabase) FindSnoozeDue(ctx context.Context, now time.Time) ([]models.Dose, error) {
	filter := bson.M{
		"status":               dosing.StatusSnoozed,
		"snoozeUntilAt":        bson.M{"$lte": primitive.NewDateTimeFromTime(now)},
		"snoozeReminderSentAt": bson.M{"$exists": false},
	}
	return d.find(ctx, filter)
}

// MarkReminderSent stamps the reminder-dispatch time so the tick does not
// re-notify the same dose every minute
func (d *doseDatabase) MarkReminderSent(ctx context.Context, id string, at time.Time, snooze bool) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	field := "reminderSentAt"
	if snooze {
		field = "snoozeReminderSentAt"
	}
	update := bson.M{"$set": bson.M{field: primitive.NewDateTimeFromTime(at)}}
	_, err = d.db.Collection(doseCollectionName).UpdateOne(ctx, bson.M{"_id": objectID}, update)
	return err
}

func (d *doseDatabase) find(ctx context.Context, filter interface{}) ([]models.Dose, error) {
	cursor, err := d.db.Collection(doseCollectionName).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var doses []models.Dose
	if err := cursor.All(ctx, &doses); err != nil {
		return nil, err
	}
	return doses, nil
}
