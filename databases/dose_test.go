package databases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/morphsync/med-station-api/databases"
	"github.com/morphsync/med-station-api/databases/mocks"
	"github.com/morphsync/med-station-api/dosing"
	"github.com/morphsync/med-station-api/models"
)

func TestInsertGenerated(t *testing.T) {
	allDuplicates := mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Code: 11000}},
			{WriteError: mongo.WriteError{Code: 11000}},
		},
	}
	mixedErrors := mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Code: 11000}},
			{WriteError: mongo.WriteError{Code: 121}},
		},
	}

	doses := []models.Dose{
		{GenKey: "cap-1:2026-03-01:08:00", Date: "2026-03-01", Slot: "08:00", Status: dosing.StatusScheduled},
		{GenKey: "cap-1:2026-03-01:20:00", Date: "2026-03-01", Slot: "20:00", Status: dosing.StatusScheduled},
		{GenKey: "cap-1:2026-03-02:08:00", Date: "2026-03-02", Slot: "08:00", Status: dosing.StatusScheduled},
	}

	tests := []struct {
		name         string
		insertResult *mongo.InsertManyResult
		insertErr    error
		wantCount    int
		wantErr      error
	}{
		{
			name:         "clean insert returns the full count",
			insertResult: &mongo.InsertManyResult{InsertedIDs: []interface{}{"a", "b", "c"}},
			wantCount:    3,
		},
		{
			name:         "duplicate keys are swallowed and the partial count returned",
			insertResult: &mongo.InsertManyResult{InsertedIDs: []interface{}{"c"}},
			insertErr:    allDuplicates,
			wantCount:    1,
		},
		{
			name:      "fully duplicated batch inserts nothing",
			insertErr: allDuplicates,
			wantCount: 0,
		},
		{
			name:      "non-duplicate write errors are surfaced",
			insertErr: mixedErrors,
			wantCount: 0,
			wantErr:   mixedErrors,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbHelper := mocks.NewDatabaseHelper(t)
			collectionHelper := mocks.NewCollectionHelper(t)

			dbHelper.On("Collection", "doses").Return(collectionHelper)
			collectionHelper.On("InsertMany", context.TODO(), mock.Anything, mock.Anything).
				Return(tt.insertResult, tt.insertErr)

			doseDB := databases.NewDoseDatabase(dbHelper)
			count, err := doseDB.InsertGenerated(context.TODO(), doses)

			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestInsertGeneratedEmptyBatch(t *testing.T) {
	dbHelper := mocks.NewDatabaseHelper(t)

	doseDB := databases.NewDoseDatabase(dbHelper)
	count, err := doseDB.InsertGenerated(context.TODO(), nil)

	assert.NoError(t, err)
	assert.Equal(t, 0, count)
	dbHelper.AssertNotCalled(t, "Collection", "doses")
}

func TestReconcileStale(t *testing.T) {
	staleID := primitive.NewObjectID()
	racedID := primitive.NewObjectID()
	now := time.Date(2026, 3, 1, 8, 10, 0, 0, time.UTC)

	pending := []models.Dose{
		{ID: staleID, Date: "2026-03-01", Slot: "08:00", Status: dosing.StatusScheduled},
		{ID: racedID, Date: "2026-03-01", Slot: "08:00", Status: dosing.StatusScheduled},
	}
	// the raced dose was marked taken between the find and the update, so the
	// re-read returns only the dose that actually transitioned
	missed := []models.Dose{
		{ID: staleID, Date: "2026-03-01", Slot: "08:00", Status: dosing.StatusMissed},
	}

	dbHelper := mocks.NewDatabaseHelper(t)
	collectionHelper := mocks.NewCollectionHelper(t)
	pendingCursor := mocks.NewCursorHelper(t)
	missedCursor := mocks.NewCursorHelper(t)

	dbHelper.On("Collection", "doses").Return(collectionHelper)

	collectionHelper.On("Find", context.TODO(), mock.MatchedBy(func(filter bson.M) bool {
		_, ok := filter["$or"]
		return ok && filter["userID"] == "ranger-1"
	})).Return(pendingCursor, nil)
	pendingCursor.On("All", context.TODO(), mock.Anything).Run(func(args mock.Arguments) {
		*args.Get(1).(*[]models.Dose) = pending
	}).Return(nil)
	pendingCursor.On("Close", context.TODO()).Return(nil)

	collectionHelper.On("UpdateMany", context.TODO(), mock.MatchedBy(func(filter bson.M) bool {
		_, ok := filter["$or"]
		return ok
	}), mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	collectionHelper.On("Find", context.TODO(), mock.MatchedBy(func(filter bson.M) bool {
		_, ok := filter["_id"]
		return ok && filter["status"] == dosing.StatusMissed
	})).Return(missedCursor, nil)
	missedCursor.On("All", context.TODO(), mock.Anything).Run(func(args mock.Arguments) {
		*args.Get(1).(*[]models.Dose) = missed
	}).Return(nil)
	missedCursor.On("Close", context.TODO()).Return(nil)

	doseDB := databases.NewDoseDatabase(dbHelper)
	stale, err := doseDB.ReconcileStale(context.TODO(), "ranger-1", now)

	assert.NoError(t, err)
	assert.Len(t, stale, 1)
	assert.Equal(t, staleID, stale[0].ID)
	assert.Equal(t, dosing.StatusMissed, stale[0].Status)
}

func TestReconcileStaleNothingPending(t *testing.T) {
	dbHelper := mocks.NewDatabaseHelper(t)
	collectionHelper := mocks.NewCollectionHelper(t)
	cursorHelper := mocks.NewCursorHelper(t)

	dbHelper.On("Collection", "doses").Return(collectionHelper)
	collectionHelper.On("Find", context.TODO(), mock.Anything).Return(cursorHelper, nil)
	cursorHelper.On("All", context.TODO(), mock.Anything).Return(nil)
	cursorHelper.On("Close", context.TODO()).Return(nil)

	doseDB := databases.NewDoseDatabase(dbHelper)
	stale, err := doseDB.ReconcileStale(context.TODO(), "", time.Now())

	assert.NoError(t, err)
	assert.Nil(t, stale)
	collectionHelper.AssertNotCalled(t, "UpdateMany", mock.Anything, mock.Anything, mock.Anything)
}
