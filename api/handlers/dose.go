package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/morphsync/med-station-api/config"
	"github.com/morphsync/med-station-api/databases"
	"github.com/morphsync/med-station-api/dosing"
	"github.com/morphsync/med-station-api/models"
)

// Dose exported for testing purposes
type Dose struct {
	DB              databases.DoseDatabase
	CDB             databases.CapsuleDatabase
	UDB             databases.UserDatabase
	DefaultTimezone string
}

// MarkTakenHandler transitions a dose to taken, decrements the capsule's
// stock by its pills-per-dose (floored at zero) and stamps lastTakenAt.
// Terminal doses return 409; there is no un-take.
func (d Dose) MarkTakenHandler(w http.ResponseWriter, r *http.Request) {
	doseID := mux.Vars(r)["dose_id"]

	dose, err := d.DB.GetDoseByID(context.TODO(), doseID)
	if err != nil {
		config.ErrorStatus("failed to get dose by ID", http.StatusNotFound, w, err)
		return
	}

	if err := dosing.CheckTransition(dose.Status, dosing.StatusTaken); err != nil {
		config.ErrorStatus("cannot mark dose taken", http.StatusConflict, w, err)
		return
	}

	now := time.Now()
	updated, err := d.DB.MarkTaken(context.TODO(), doseID, now)
	if err != nil {
		if errors.Is(err, databases.ErrDoseNotPending) {
			config.ErrorStatus("cannot mark dose taken", http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to mark dose taken", http.StatusInternalServerError, w, err)
		return
	}

	// the stock decrement rides on the taken transition; if the capsule is
	// gone the dose update still stands
	var capsule *models.Capsule
	owner, err := d.CDB.GetCapsuleByID(context.TODO(), dose.CapsuleID.Hex())
	if err != nil {
		zap.S().Warnw("dose taken but owning capsule not found",
			"doseID", doseID, "capsuleID", dose.CapsuleID.Hex(), "error", err)
	} else {
		capsule, err = d.CDB.RecordDoseTaken(context.TODO(), owner.ID.Hex(), owner.Details.PillsPerDose, now)
		if err != nil {
			config.ErrorStatus("failed to record dose against capsule stock", http.StatusInternalServerError, w, err)
			return
		}
	}

	b, err := json.Marshal(models.DoseUpdatedResponse{Dose: *updated, Capsule: capsule})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MarkMissedHandler transitions a dose to missed. Terminal doses return 409.
func (d Dose) MarkMissedHandler(w http.ResponseWriter, r *http.Request) {
	doseID := mux.Vars(r)["dose_id"]

	dose, err := d.DB.GetDoseByID(context.TODO(), doseID)
	if err != nil {
		config.ErrorStatus("failed to get dose by ID", http.StatusNotFound, w, err)
		return
	}

	if err := dosing.CheckTransition(dose.Status, dosing.StatusMissed); err != nil {
		config.ErrorStatus("cannot mark dose missed", http.StatusConflict, w, err)
		return
	}

	updated, err := d.DB.MarkMissed(context.TODO(), doseID)
	if err != nil {
		if errors.Is(err, databases.ErrDoseNotPending) {
			config.ErrorStatus("cannot mark dose missed", http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to mark dose missed", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(models.DoseUpdatedResponse{Dose: *updated})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SnoozeDoseHandler defers a scheduled dose to a later time-of-day on the
// same civil date. A snoozed or terminal dose returns 409.
func (d Dose) SnoozeDoseHandler(w http.ResponseWriter, r *http.Request) {
	doseID := mux.Vars(r)["dose_id"]

	var req models.SnoozeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode snooze body", http.StatusBadRequest, w, err)
		return
	}
	if _, err := dosing.ParseSlot(req.Until); err != nil {
		config.ErrorStatus("invalid snooze target", http.StatusBadRequest, w, err)
		return
	}

	dose, err := d.DB.GetDoseByID(context.TODO(), doseID)
	if err != nil {
		config.ErrorStatus("failed to get dose by ID", http.StatusNotFound, w, err)
		return
	}

	if err := dosing.CheckTransition(dose.Status, dosing.StatusSnoozed); err != nil {
		config.ErrorStatus("cannot snooze dose", http.StatusConflict, w, err)
		return
	}

	// resolve the snooze target in the owning capsule's timezone so the
	// reminder fires at the right instant
	tz := d.DefaultTimezone
	if owner, err := d.CDB.GetCapsuleByID(context.TODO(), dose.CapsuleID.Hex()); err == nil {
		tz = owner.Details.Timezone
	}
	loc, err := dosing.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}

	untilAt, err := dosing.CivilMoment(dose.Date, req.Until, loc)
	if err != nil {
		config.ErrorStatus("invalid snooze target", http.StatusBadRequest, w, err)
		return
	}
	if !untilAt.UTC().After(dose.ScheduledAt.Time().UTC()) {
		config.ErrorStatus("snooze target must be after the scheduled time", http.StatusBadRequest, w,
			errors.New("snooze target not after scheduled time"))
		return
	}

	updated, err := d.DB.Snooze(context.TODO(), doseID, req.Until, untilAt.UTC())
	if err != nil {
		if errors.Is(err, databases.ErrDoseNotPending) {
			config.ErrorStatus("cannot snooze dose", http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to snooze dose", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(models.DoseUpdatedResponse{Dose: *updated})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DosesByUserIDHandler returns a subject's doses for one civil date (the
// `date` query, defaulting to today), after reconciling stale doses
func (d Dose) DosesByUserIDHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	now := time.Now()

	date := r.URL.Query().Get("date")
	if date == "" {
		loc := subjectLocation(context.TODO(), d.UDB, userID, d.DefaultTimezone)
		date = dosing.Today(now, loc)
	} else if _, err := dosing.ParseDate(date); err != nil {
		config.ErrorStatus("invalid date", http.StatusBadRequest, w, err)
		return
	}

	if _, err := d.DB.ReconcileStale(context.TODO(), userID, dosing.StaleCutoff(now)); err != nil {
		config.ErrorStatus("failed to reconcile stale doses", http.StatusInternalServerError, w, err)
		return
	}

	doses, err := d.DB.FindByUserAndDate(context.TODO(), userID, date)
	if err != nil {
		config.ErrorStatus("failed to get doses by user ID", http.StatusNotFound, w, err)
		return
	}
	if len(doses) == 0 {
		doses = []models.Dose{}
	}

	b, err := json.Marshal(doses)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
