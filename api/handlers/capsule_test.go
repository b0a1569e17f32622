package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/morphsync/med-station-api/databases/mocks"
	"github.com/morphsync/med-station-api/dosing"
	"github.com/morphsync/med-station-api/models"
)

func validCapsuleDetails() models.CapsuleDetails {
	return models.CapsuleDetails{
		UserID:       "user-1",
		Name:         "Lisinopril",
		Dosage:       "10mg",
		DoseUnit:     "tablet",
		Frequency:    "twice daily",
		TimeSlots:    []string{"08:00", "20:00"},
		Stock:        60,
		PillsPerDose: 1,
		StartDate:    "2025-03-10",
		EndDate:      "2025-03-12",
		Timezone:     "UTC",
	}
}

func TestCreateCapsuleHandler(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(*models.CapsuleDetails)
		insertErr      error
		expectedStatus int
		expectedDoses  int
	}{
		{
			name:           "successful creation expands 3 days x 2 slots",
			mutate:         func(d *models.CapsuleDetails) {},
			expectedStatus: http.StatusCreated,
			expectedDoses:  6,
		},
		{
			name:           "missing name",
			mutate:         func(d *models.CapsuleDetails) { d.Name = "" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing userID",
			mutate:         func(d *models.CapsuleDetails) { d.UserID = "" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "end date before start date",
			mutate:         func(d *models.CapsuleDetails) { d.EndDate = "2025-03-09" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no time slots",
			mutate:         func(d *models.CapsuleDetails) { d.TimeSlots = nil },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed time slot",
			mutate:         func(d *models.CapsuleDetails) { d.TimeSlots = []string{"8am"} },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "dose insert failure rolls the capsule back",
			mutate:         func(d *models.CapsuleDetails) {},
			insertErr:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := mocks.NewCapsuleDatabase(t)
			mockDoseDB := mocks.NewDoseDatabase(t)

			details := validCapsuleDetails()
			tt.mutate(&details)

			if tt.expectedStatus != http.StatusBadRequest {
				mockDB.On("CreateCapsule", context.TODO(), mock.AnythingOfType("*models.Capsule")).Return(nil)
				if tt.insertErr != nil {
					mockDoseDB.On("InsertGenerated", context.TODO(), mock.Anything).Return(0, tt.insertErr)
					mockDB.On("DeleteCapsule", context.TODO(), mock.AnythingOfType("string")).Return(nil)
				} else {
					mockDoseDB.On("InsertGenerated", context.TODO(), mock.Anything).Return(tt.expectedDoses, nil)
				}
			}

			handler := Capsule{DB: mockDB, DoseDB: mockDoseDB, DefaultTimezone: "UTC"}

			body, _ := json.Marshal(details)
			req := httptest.NewRequest("POST", "/capsule", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateCapsuleHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.CapsuleCreatedResponse
				err := json.NewDecoder(w.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedDoses, resp.DoseCount)
				assert.Equal(t, details.Name, resp.Capsule.Details.Name)
				assert.False(t, resp.Capsule.ID.IsZero())
			}
		})
	}
}

func TestCreateCapsuleHandlerGeneratesDoseRows(t *testing.T) {
	mockDB := mocks.NewCapsuleDatabase(t)
	mockDoseDB := mocks.NewDoseDatabase(t)

	var inserted []models.Dose
	mockDB.On("CreateCapsule", context.TODO(), mock.AnythingOfType("*models.Capsule")).Return(nil)
	mockDoseDB.On("InsertGenerated", context.TODO(), mock.Anything).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).([]models.Dose)
		}).
		Return(6, nil)

	handler := Capsule{DB: mockDB, DoseDB: mockDoseDB, DefaultTimezone: "UTC"}

	body, _ := json.Marshal(validCapsuleDetails())
	req := httptest.NewRequest("POST", "/capsule", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	handler.CreateCapsuleHandler(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, inserted, 6)

	seen := map[string]bool{}
	for _, dose := range inserted {
		assert.Equal(t, dosing.StatusScheduled, dose.Status)
		assert.Equal(t, "user-1", dose.UserID)
		assert.False(t, seen[dose.GenKey], "generation keys must be distinct")
		seen[dose.GenKey] = true
	}
}

func TestCapsulesByUserIDHandler(t *testing.T) {
	capsuleID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()

	capsules := []models.Capsule{
		{ID: capsuleID, Details: models.CapsuleDetails{UserID: "user-1", Name: "Lisinopril"}},
		{ID: otherID, Details: models.CapsuleDetails{UserID: "user-1", Name: "Metformin"}},
	}
	doses := []models.Dose{
		{ID: primitive.NewObjectID(), CapsuleID: capsuleID, UserID: "user-1", Slot: "08:00", Status: dosing.StatusScheduled},
		{ID: primitive.NewObjectID(), CapsuleID: capsuleID, UserID: "user-1", Slot: "20:00", Status: dosing.StatusTaken},
	}

	mockDB := mocks.NewCapsuleDatabase(t)
	mockDoseDB := mocks.NewDoseDatabase(t)

	mockDoseDB.On("ReconcileStale", context.TODO(), "user-1", mock.AnythingOfType("time.Time")).Return(nil, nil)
	mockDB.On("FindActiveByUserID", context.TODO(), "user-1", mock.AnythingOfType("string")).Return(capsules, nil)
	mockDoseDB.On("FindByUserAndDate", context.TODO(), "user-1", mock.AnythingOfType("string")).Return(doses, nil)

	handler := Capsule{DB: mockDB, DoseDB: mockDoseDB, DefaultTimezone: "UTC"}

	req := httptest.NewRequest("GET", "/capsules/user/user-1", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-1"})
	w := httptest.NewRecorder()

	handler.CapsulesByUserIDHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []models.CapsuleWithDoses
	err := json.NewDecoder(w.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Len(t, resp, 2)
	assert.Len(t, resp[0].TodayDoses, 2)
	assert.Len(t, resp[1].TodayDoses, 0)
	assert.NotNil(t, resp[1].TodayDoses)
}

func TestCapsuleByIDHandler(t *testing.T) {
	capsuleID := primitive.NewObjectID()

	t.Run("found", func(t *testing.T) {
		mockDB := mocks.NewCapsuleDatabase(t)
		mockDB.On("GetCapsuleByID", context.TODO(), capsuleID.Hex()).
			Return(&models.Capsule{ID: capsuleID, Details: models.CapsuleDetails{Name: "Lisinopril"}}, nil)

		handler := Capsule{DB: mockDB}
		req := httptest.NewRequest("GET", "/capsule/"+capsuleID.Hex(), nil)
		req = mux.SetURLVars(req, map[string]string{"capsule_id": capsuleID.Hex()})
		w := httptest.NewRecorder()

		handler.CapsuleByIDHandler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockDB := mocks.NewCapsuleDatabase(t)
		mockDB.On("GetCapsuleByID", context.TODO(), "missing").Return(nil, assert.AnError)

		handler := Capsule{DB: mockDB}
		req := httptest.NewRequest("GET", "/capsule/missing", nil)
		req = mux.SetURLVars(req, map[string]string{"capsule_id": "missing"})
		w := httptest.NewRecorder()

		handler.CapsuleByIDHandler(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp models.ErrorMessageResponse
		err := json.NewDecoder(w.Body).Decode(&resp)
		assert.NoError(t, err)
		assert.Equal(t, "failed to get capsule by ID", resp.Response.Message)
		assert.Equal(t, assert.AnError.Error(), resp.Response.Error)
	})
}

func TestDeleteCapsuleHandler(t *testing.T) {
	capsuleID := primitive.NewObjectID()

	mockDB := mocks.NewCapsuleDatabase(t)
	mockDoseDB := mocks.NewDoseDatabase(t)

	mockDB.On("GetCapsuleByID", context.TODO(), capsuleID.Hex()).
		Return(&models.Capsule{ID: capsuleID}, nil)
	mockDoseDB.On("DeleteByCapsule", context.TODO(), capsuleID.Hex()).Return(int64(6), nil)
	mockDB.On("DeleteCapsule", context.TODO(), capsuleID.Hex()).Return(nil)

	handler := Capsule{DB: mockDB, DoseDB: mockDoseDB}

	req := httptest.NewRequest("DELETE", "/capsule/"+capsuleID.Hex(), nil)
	req = mux.SetURLVars(req, map[string]string{"capsule_id": capsuleID.Hex()})
	w := httptest.NewRecorder()

	handler.DeleteCapsuleHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, float64(6), resp["deletedDoses"])
}

func TestCapsuleHistoryHandler(t *testing.T) {
	capsuleID := primitive.NewObjectID()

	mockDB := mocks.NewCapsuleDatabase(t)
	mockDoseDB := mocks.NewDoseDatabase(t)

	mockDoseDB.On("ReconcileStale", context.TODO(), "user-1", mock.AnythingOfType("time.Time")).Return(nil, nil)
	mockDB.On("FindEndedByUserID", context.TODO(), "user-1", mock.AnythingOfType("string")).
		Return([]models.Capsule{{ID: capsuleID, Details: models.CapsuleDetails{Name: "Amoxicillin"}}}, nil)
	mockDoseDB.On("StatusTotals", context.TODO(), capsuleID.Hex()).
		Return(map[string]int64{
			dosing.StatusTaken:   12,
			dosing.StatusMissed:  2,
			dosing.StatusSnoozed: 1,
		}, nil)

	handler := Capsule{DB: mockDB, DoseDB: mockDoseDB, DefaultTimezone: "UTC"}

	req := httptest.NewRequest("GET", "/capsules/user/user-1/history", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-1"})
	w := httptest.NewRecorder()

	handler.CapsuleHistoryHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []models.CapsuleHistoryEntry
	err := json.NewDecoder(w.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Len(t, resp, 1)
	assert.Equal(t, int64(12), resp[0].TakenCount)
	assert.Equal(t, int64(2), resp[0].MissedCount)
	assert.Equal(t, int64(1), resp[0].SkippedCount)
}
