package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/morphsync/med-station-api/config"
	"github.com/morphsync/med-station-api/databases"
	"github.com/morphsync/med-station-api/dosing"
	"github.com/morphsync/med-station-api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Capsule exported for testing purposes
type Capsule struct {
	DB              databases.CapsuleDatabase
	DoseDB          databases.DoseDatabase
	UDB             databases.UserDatabase
	DefaultTimezone string
}

// CreateCapsuleHandler creates a capsule and generates its full dose
// schedule. The schedule is expanded before the capsule is persisted so an
// invalid schedule never leaves a capsule behind; a dose insert failure
// rolls the capsule back.
func (c Capsule) CreateCapsuleHandler(w http.ResponseWriter, r *http.Request) {
	var details models.CapsuleDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode capsule body", http.StatusBadRequest, w, err)
		return
	}

	if err := validateCapsuleDetails(&details); err != nil {
		config.ErrorStatus("invalid capsule", http.StatusBadRequest, w, err)
		return
	}

	loc, err := dosing.LoadLocation(details.Timezone)
	if err != nil {
		config.ErrorStatus("invalid timezone", http.StatusBadRequest, w, err)
		return
	}

	capsule := &models.Capsule{
		ID:      primitive.NewObjectID(),
		Details: details,
	}

	drafts, err := dosing.Generate(dosing.Schedule{
		CapsuleID: capsule.ID.Hex(),
		StartDate: details.StartDate,
		EndDate:   details.EndDate,
		TimeSlots: details.TimeSlots,
		Dosage:    details.Dosage,
		Location:  loc,
	})
	if err != nil {
		config.ErrorStatus("failed to generate dose schedule", http.StatusBadRequest, w, err)
		return
	}

	if err := c.DB.CreateCapsule(context.TODO(), capsule); err != nil {
		config.ErrorStatus("failed to create capsule", http.StatusInternalServerError, w, err)
		return
	}

	doses := make([]models.Dose, 0, len(drafts))
	for _, draft := range drafts {
		doses = append(doses, models.Dose{
			CapsuleID:   capsule.ID,
			UserID:      details.UserID,
			GenKey:      draft.GenKey,
			Date:        draft.Date,
			Slot:        draft.Slot,
			Dosage:      draft.Dosage,
			Status:      dosing.StatusScheduled,
			ScheduledAt: primitive.NewDateTimeFromTime(draft.ScheduledAt),
		})
	}

	inserted, err := c.DoseDB.InsertGenerated(context.TODO(), doses)
	if err != nil {
		// roll the capsule back so a failed generation leaves nothing behind
		if delErr := c.DB.DeleteCapsule(context.TODO(), capsule.ID.Hex()); delErr != nil {
			zap.S().Errorw("failed to roll back capsule after dose insert failure",
				"capsuleID", capsule.ID.Hex(), "error", delErr)
		}
		config.ErrorStatus("failed to insert generated doses", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(models.CapsuleCreatedResponse{Capsule: *capsule, DoseCount: inserted})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

func validateCapsuleDetails(details *models.CapsuleDetails) error {
	if details.UserID == "" {
		return errRequired("userID")
	}
	if details.Name == "" {
		return errRequired("name")
	}
	if _, err := dosing.ParseDate(details.StartDate); err != nil {
		return err
	}
	if _, err := dosing.ParseDate(details.EndDate); err != nil {
		return err
	}
	if len(details.TimeSlots) == 0 {
		return dosing.ErrNoTimeSlots
	}
	for _, slot := range details.TimeSlots {
		if _, err := dosing.ParseSlot(slot); err != nil {
			return err
		}
	}
	if details.Stock < 0 {
		return errNegative("stock")
	}
	if details.PillsPerDose <= 0 {
		details.PillsPerDose = 1
	}
	return nil
}

// CapsuleByIDHandler returns a capsule by ID
func (c Capsule) CapsuleByIDHandler(w http.ResponseWriter, r *http.Request) {
	capsuleID := mux.Vars(r)["capsule_id"]

	dbResp, err := c.DB.GetCapsuleByID(context.TODO(), capsuleID)
	if err != nil {
		config.ErrorStatus("failed to get capsule by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CapsulesByUserIDHandler returns the subject's active capsules, each
// annotated with its dose instances for the current civil date. Stale doses
// are reconciled first so the listing never shows an expired pending dose.
func (c Capsule) CapsulesByUserIDHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	now := time.Now()
	loc := subjectLocation(context.TODO(), c.UDB, userID, c.DefaultTimezone)

	if _, err := c.DoseDB.ReconcileStale(context.TODO(), userID, dosing.StaleCutoff(now)); err != nil {
		config.ErrorStatus("failed to reconcile stale doses", http.StatusInternalServerError, w, err)
		return
	}

	today := dosing.Today(now, loc)
	capsules, err := c.DB.FindActiveByUserID(context.TODO(), userID, today)
	if err != nil {
		config.ErrorStatus("failed to get capsules by user ID", http.StatusNotFound, w, err)
		return
	}

	doses, err := c.DoseDB.FindByUserAndDate(context.TODO(), userID, today)
	if err != nil {
		config.ErrorStatus("failed to get doses for today", http.StatusInternalServerError, w, err)
		return
	}

	dosesByCapsule := make(map[string][]models.Dose, len(capsules))
	for _, dose := range doses {
		key := dose.CapsuleID.Hex()
		dosesByCapsule[key] = append(dosesByCapsule[key], dose)
	}

	resp := make([]models.CapsuleWithDoses, 0, len(capsules))
	for _, capsule := range capsules {
		todayDoses := dosesByCapsule[capsule.ID.Hex()]
		if todayDoses == nil {
			todayDoses = []models.Dose{}
		}
		resp = append(resp, models.CapsuleWithDoses{Capsule: capsule, TodayDoses: todayDoses})
	}

	b, err := json.Marshal(resp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateCapsuleHandler updates a capsule's mutable fields. The generated
// dose schedule is not regenerated; past doses keep their history.
func (c Capsule) UpdateCapsuleHandler(w http.ResponseWriter, r *http.Request) {
	capsuleID := mux.Vars(r)["capsule_id"]

	var details models.CapsuleDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode capsule body", http.StatusBadRequest, w, err)
		return
	}
	if err := validateCapsuleDetails(&details); err != nil {
		config.ErrorStatus("invalid capsule", http.StatusBadRequest, w, err)
		return
	}

	if _, err := c.DB.GetCapsuleByID(context.TODO(), capsuleID); err != nil {
		config.ErrorStatus("failed to get capsule by ID", http.StatusNotFound, w, err)
		return
	}

	if err := c.DB.UpdateCapsule(context.TODO(), capsuleID, details); err != nil {
		config.ErrorStatus("failed to update capsule", http.StatusInternalServerError, w, err)
		return
	}

	updated, err := c.DB.GetCapsuleByID(context.TODO(), capsuleID)
	if err != nil {
		config.ErrorStatus("failed to get updated capsule", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteCapsuleHandler deletes a capsule and every dose it owns
func (c Capsule) DeleteCapsuleHandler(w http.ResponseWriter, r *http.Request) {
	capsuleID := mux.Vars(r)["capsule_id"]

	if _, err := c.DB.GetCapsuleByID(context.TODO(), capsuleID); err != nil {
		config.ErrorStatus("failed to get capsule by ID", http.StatusNotFound, w, err)
		return
	}

	deleted, err := c.DoseDB.DeleteByCapsule(context.TODO(), capsuleID)
	if err != nil {
		config.ErrorStatus("failed to delete doses for capsule", http.StatusInternalServerError, w, err)
		return
	}

	if err := c.DB.DeleteCapsule(context.TODO(), capsuleID); err != nil {
		config.ErrorStatus("failed to delete capsule", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"deletedCapsule": capsuleID,
		"deletedDoses":   deleted,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CapsuleHistoryHandler returns the subject's ended capsules, each with
// taken/missed/skipped totals aggregated over its full dose set
func (c Capsule) CapsuleHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	now := time.Now()
	loc := subjectLocation(context.TODO(), c.UDB, userID, c.DefaultTimezone)

	if _, err := c.DoseDB.ReconcileStale(context.TODO(), userID, dosing.StaleCutoff(now)); err != nil {
		config.ErrorStatus("failed to reconcile stale doses", http.StatusInternalServerError, w, err)
		return
	}

	capsules, err := c.DB.FindEndedByUserID(context.TODO(), userID, dosing.Today(now, loc))
	if err != nil {
		config.ErrorStatus("failed to get ended capsules", http.StatusNotFound, w, err)
		return
	}

	entries := make([]models.CapsuleHistoryEntry, 0, len(capsules))
	for _, capsule := range capsules {
		totals, err := c.DoseDB.StatusTotals(context.TODO(), capsule.ID.Hex())
		if err != nil {
			config.ErrorStatus("failed to aggregate dose totals", http.StatusInternalServerError, w, err)
			return
		}
		entries = append(entries, models.CapsuleHistoryEntry{
			Capsule:      capsule,
			TakenCount:   totals[dosing.StatusTaken],
			MissedCount:  totals[dosing.StatusMissed],
			SkippedCount: totals[dosing.StatusSnoozed],
		})
	}

	b, err := json.Marshal(entries)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
