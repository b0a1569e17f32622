package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/morphsync/med-station-api/databases"
	"github.com/morphsync/med-station-api/databases/mocks"
	"github.com/morphsync/med-station-api/dosing"
	"github.com/morphsync/med-station-api/models"
)

func scheduledDose(capsuleID primitive.ObjectID) *models.Dose {
	return &models.Dose{
		ID:          primitive.NewObjectID(),
		CapsuleID:   capsuleID,
		UserID:      "user-1",
		GenKey:      capsuleID.Hex() + ":2025-03-10:08:00",
		Date:        "2025-03-10",
		Slot:        "08:00",
		Dosage:      "10mg",
		Status:      dosing.StatusScheduled,
		ScheduledAt: primitive.NewDateTimeFromTime(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)),
	}
}

func TestMarkTakenHandler(t *testing.T) {
	capsuleID := primitive.NewObjectID()

	t.Run("successful taken transition decrements stock", func(t *testing.T) {
		dose := scheduledDose(capsuleID)
		taken := *dose
		taken.Status = dosing.StatusTaken

		capsule := &models.Capsule{ID: capsuleID, Details: models.CapsuleDetails{Name: "Lisinopril", Stock: 60, PillsPerDose: 2}}
		decremented := &models.Capsule{ID: capsuleID, Details: models.CapsuleDetails{Name: "Lisinopril", Stock: 58, PillsPerDose: 2}}

		mockDoseDB := mocks.NewDoseDatabase(t)
		mockCapDB := mocks.NewCapsuleDatabase(t)

		mockDoseDB.On("GetDoseByID", context.TODO(), dose.ID.Hex()).Return(dose, nil)
		mockDoseDB.On("MarkTaken", context.TODO(), dose.ID.Hex(), mock.AnythingOfType("time.Time")).Return(&taken, nil)
		mockCapDB.On("GetCapsuleByID", context.TODO(), capsuleID.Hex()).Return(capsule, nil)
		mockCapDB.On("RecordDoseTaken", context.TODO(), capsuleID.Hex(), 2, mock.AnythingOfType("time.Time")).Return(decremented, nil)

		handler := Dose{DB: mockDoseDB, CDB: mockCapDB}

		req := httptest.NewRequest("PUT", "/dose/"+dose.ID.Hex()+"/taken", nil)
		req = mux.SetURLVars(req, map[string]string{"dose_id": dose.ID.Hex()})
		w := httptest.NewRecorder()

		handler.MarkTakenHandler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.DoseUpdatedResponse
		err := json.NewDecoder(w.Body).Decode(&resp)
		assert.NoError(t, err)
		assert.Equal(t, dosing.StatusTaken, resp.Dose.Status)
		assert.NotNil(t, resp.Capsule)
		assert.Equal(t, 58, resp.Capsule.Details.Stock)
	})

	t.Run("dose not found", func(t *testing.T) {
		mockDoseDB := mocks.NewDoseDatabase(t)
		mockDoseDB.On("GetDoseByID", context.TODO(), "missing").Return(nil, assert.AnError)

		handler := Dose{DB: mockDoseDB, CDB: mocks.NewCapsuleDatabase(t)}

		req := httptest.NewRequest("PUT", "/dose/missing/taken", nil)
		req = mux.SetURLVars(req, map[string]string{"dose_id": "missing"})
		w := httptest.NewRecorder()

		handler.MarkTakenHandler(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("terminal dose returns conflict", func(t *testing.T) {
		dose := scheduledDose(capsuleID)
		dose.Status = dosing.StatusMissed

		mockDoseDB := mocks.NewDoseDatabase(t)
		mockDoseDB.On("GetDoseByID", context.TODO(), dose.ID.Hex()).Return(dose, nil)

		handler := Dose{DB: mockDoseDB, CDB: mocks.NewCapsuleDatabase(t)}

		req := httptest.NewRequest("PUT", "/dose/"+dose.ID.Hex()+"/taken", nil)
		req = mux.SetURLVars(req, map[string]string{"dose_id": dose.ID.Hex()})
		w := httptest.NewRecorder()

		handler.MarkTakenHandler(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("raced transition returns conflict", func(t *testing.T) {
		dose := scheduledDose(capsuleID)

		mockDoseDB := mocks.NewDoseDatabase(t)
		mockDoseDB.On("GetDoseByID", context.TODO(), dose.ID.Hex()).Return(dose, nil)
		mockDoseDB.On("MarkTaken", context.TODO(), dose.ID.Hex(), mock.AnythingOfType("time.Time")).
			Return(nil, databases.ErrDoseNotPending)

		handler := Dose{DB: mockDoseDB, CDB: mocks.NewCapsuleDatabase(t)}

		req := httptest.NewRequest("PUT", "/dose/"+dose.ID.Hex()+"/taken", nil)
		req = mux.SetURLVars(req, map[string]string{"dose_id": dose.ID.Hex()})
		w := httptest.NewRecorder()

		handler.MarkTakenHandler(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestMarkMissedHandler(t *testing.T) {
	capsuleID := primitive.NewObjectID()

	t.Run("successful missed transition", func(t *testing.T) {
		dose := scheduledDose(capsuleID)
		missed := *dose
		missed.Status = dosing.StatusMissed

		mockDoseDB := mocks.NewDoseDatabase(t)
		mockDoseDB.On("GetDoseByID", context.TODO(), dose.ID.Hex()).Return(dose, nil)
		mockDoseDB.On("MarkMissed", context.TODO(), dose.ID.Hex()).Return(&missed, nil)

		handler := Dose{DB: mockDoseDB, CDB: mocks.NewCapsuleDatabase(t)}

		req := httptest.NewRequest("PUT", "/dose/"+dose.ID.Hex()+"/missed", nil)
		req = mux.SetURLVars(req, map[string]string{"dose_id": dose.ID.Hex()})
		w := httptest.NewRecorder()

		handler.MarkMissedHandler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.DoseUpdatedResponse
		err := json.NewDecoder(w.Body).Decode(&resp)
		assert.NoError(t, err)
		assert.Equal(t, dosing.StatusMissed, resp.Dose.Status)
		assert.Nil(t, resp.Capsule)
	})

	t.Run("already taken returns conflict", func(t *testing.T) {
		dose := scheduledDose(capsuleID)
		dose.Status = dosing.StatusTaken

		mockDoseDB := mocks.NewDoseDatabase(t)
		mockDoseDB.On("GetDoseByID", context.TODO(), dose.ID.Hex()).Return(dose, nil)

		handler := Dose{DB: mockDoseDB, CDB: mocks.NewCapsuleDatabase(t)}

		req := httptest.NewRequest("PUT", "/dose/"+dose.ID.Hex()+"/missed", nil)
		req = mux.SetURLVars(req, map[string]string{"dose_id": dose.ID.Hex()})
		w := httptest.NewRecorder()

		handler.MarkMissedHandler(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestSnoozeDoseHandler(t *testing.T) {
	capsuleID := primitive.NewObjectID()

	t.Run("successful snooze", func(t *testing.T) {
		dose := scheduledDose(capsuleID)
		snoozed := *dose
		snoozed.Status = dosing.StatusSnoozed
		snoozed.SnoozeUntil = "09:30"

		mockDoseDB := mocks.NewDoseDatabase(t)
		mockCapDB := mocks.NewCapsuleDatabase(t)

		mockDoseDB.On("GetDoseByID", context.TODO(), dose.ID.Hex()).Return(dose, nil)
		mockCapDB.On("GetCapsuleByID", context.TODO(), capsuleID.Hex()).
			Return(&models.Capsule{ID: capsuleID, Details: models.CapsuleDetails{Timezone: "UTC"}}, nil)
		mockDoseDB.On("Snooze", context.TODO(), dose.ID.Hex(), "09:30", mock.AnythingOfType("time.Time")).
			Return(&snoozed, nil)

		handler := Dose{DB: mockDoseDB, CDB: mockCapDB, DefaultTimezone: "UTC"}

		body, _ := json.Marshal(models.SnoozeRequest{Until: "09:30"})
		req := httptest.NewRequest("PUT", "/dose/"+dose.ID.Hex()+"/snooze", bytes.NewBuffer(body))
		req = mux.SetURLVars(req, map[string]string{"dose_id": dose.ID.Hex()})
		w := httptest.NewRecorder()

		handler.SnoozeDoseHandler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.DoseUpdatedResponse
		err := json.NewDecoder(w.Body).Decode(&resp)
		assert.NoError(t, err)
		assert.Equal(t, dosing.StatusSnoozed, resp.Dose.Status)
		assert.Equal(t, "09:30", resp.Dose.SnoozeUntil)
	})

	t.Run("malformed snooze target", func(t *testing.T) {
		handler := Dose{DB: mocks.NewDoseDatabase(t), CDB: mocks.NewCapsuleDatabase(t)}

		body, _ := json.Marshal(models.SnoozeRequest{Until: "9:30pm"})
		req := httptest.NewRequest("PUT", "/dose/abc/snooze", bytes.NewBuffer(body))
		req = mux.SetURLVars(req, map[string]string{"dose_id": "abc"})
		w := httptest.NewRecorder()

		handler.SnoozeDoseHandler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("snooze target before scheduled time", func(t *testing.T) {
		dose := scheduledDose(capsuleID)

		mockDoseDB := mocks.NewDoseDatabase(t)
		mockCapDB := mocks.NewCapsuleDatabase(t)
		mockDoseDB.On("GetDoseByID", context.TODO(), dose.ID.Hex()).Return(dose, nil)
		mockCapDB.On("GetCapsuleByID", context.TODO(), capsuleID.Hex()).
			Return(&models.Capsule{ID: capsuleID, Details: models.CapsuleDetails{Timezone: "UTC"}}, nil)

		handler := Dose{DB: mockDoseDB, CDB: mockCapDB, DefaultTimezone: "UTC"}

		body, _ := json.Marshal(models.SnoozeRequest{Until: "07:00"})
		req := httptest.NewRequest("PUT", "/dose/"+dose.ID.Hex()+"/snooze", bytes.NewBuffer(body))
		req = mux.SetURLVars(req, map[string]string{"dose_id": dose.ID.Hex()})
		w := httptest.NewRecorder()

		handler.SnoozeDoseHandler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("snoozing a snoozed dose returns conflict", func(t *testing.T) {
		dose := scheduledDose(capsuleID)
		dose.Status = dosing.StatusSnoozed

		mockDoseDB := mocks.NewDoseDatabase(t)
		mockDoseDB.On("GetDoseByID", context.TODO(), dose.ID.Hex()).Return(dose, nil)

		handler := Dose{DB: mockDoseDB, CDB: mocks.NewCapsuleDatabase(t)}

		body, _ := json.Marshal(models.SnoozeRequest{Until: "09:30"})
		req := httptest.NewRequest("PUT", "/dose/"+dose.ID.Hex()+"/snooze", bytes.NewBuffer(body))
		req = mux.SetURLVars(req, map[string]string{"dose_id": dose.ID.Hex()})
		w := httptest.NewRecorder()

		handler.SnoozeDoseHandler(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestDosesByUserIDHandler(t *testing.T) {
	capsuleID := primitive.NewObjectID()

	t.Run("doses for an explicit date", func(t *testing.T) {
		dose := scheduledDose(capsuleID)

		mockDoseDB := mocks.NewDoseDatabase(t)
		mockDoseDB.On("ReconcileStale", context.TODO(), "user-1", mock.AnythingOfType("time.Time")).Return(nil, nil)
		mockDoseDB.On("FindByUserAndDate", context.TODO(), "user-1", "2025-03-10").Return([]models.Dose{*dose}, nil)

		handler := Dose{DB: mockDoseDB, CDB: mocks.NewCapsuleDatabase(t), DefaultTimezone: "UTC"}

		req := httptest.NewRequest("GET", "/doses/user/user-1?date=2025-03-10", nil)
		req = mux.SetURLVars(req, map[string]string{"user_id": "user-1"})
		w := httptest.NewRecorder()

		handler.DosesByUserIDHandler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp []models.Dose
		err := json.NewDecoder(w.Body).Decode(&resp)
		assert.NoError(t, err)
		assert.Len(t, resp, 1)
	})

	t.Run("invalid date", func(t *testing.T) {
		handler := Dose{DB: mocks.NewDoseDatabase(t), CDB: mocks.NewCapsuleDatabase(t), DefaultTimezone: "UTC"}

		req := httptest.NewRequest("GET", "/doses/user/user-1?date=03-10-2025", nil)
		req = mux.SetURLVars(req, map[string]string{"user_id": "user-1"})
		w := httptest.NewRecorder()

		handler.DosesByUserIDHandler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty result returns empty array", func(t *testing.T) {
		mockDoseDB := mocks.NewDoseDatabase(t)
		mockDoseDB.On("ReconcileStale", context.TODO(), "user-1", mock.AnythingOfType("time.Time")).Return(nil, nil)
		mockDoseDB.On("FindByUserAndDate", context.TODO(), "user-1", "2025-03-10").Return(nil, nil)

		handler := Dose{DB: mockDoseDB, CDB: mocks.NewCapsuleDatabase(t), DefaultTimezone: "UTC"}

		req := httptest.NewRequest("GET", "/doses/user/user-1?date=2025-03-10", nil)
		req = mux.SetURLVars(req, map[string]string{"user_id": "user-1"})
		w := httptest.NewRecorder()

		handler.DosesByUserIDHandler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})
}
