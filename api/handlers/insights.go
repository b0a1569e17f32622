package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/morphsync/med-station-api/config"
	"github.com/morphsync/med-station-api/databases"
	"github.com/morphsync/med-station-api/dosing"
	"github.com/morphsync/med-station-api/models"
)

// missedLookbackDays is the window the consistency recommendation counts
// missed doses over
const missedLookbackDays = 7

// Insights exported for testing purposes
type Insights struct {
	DB              databases.CapsuleDatabase
	DoseDB          databases.DoseDatabase
	UDB             databases.UserDatabase
	DefaultTimezone string
}

// RecommendationsHandler returns prioritized refill and consistency
// recommendations across the subject's active capsules, high priority first
func (i Insights) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	now := time.Now()
	loc := subjectLocation(context.TODO(), i.UDB, userID, i.DefaultTimezone)

	if _, err := i.DoseDB.ReconcileStale(context.TODO(), userID, dosing.StaleCutoff(now)); err != nil {
		config.ErrorStatus("failed to reconcile stale doses", http.StatusInternalServerError, w, err)
		return
	}

	capsules, err := i.DB.FindActiveByUserID(context.TODO(), userID, dosing.Today(now, loc))
	if err != nil {
		config.ErrorStatus("failed to get capsules by user ID", http.StatusNotFound, w, err)
		return
	}

	since := now.AddDate(0, 0, -missedLookbackDays)
	summaries := make([]dosing.CapsuleSummary, 0, len(capsules))
	for _, capsule := range capsules {
		missed, err := i.DoseDB.CountMissedSince(context.TODO(), capsule.ID.Hex(), since)
		if err != nil {
			config.ErrorStatus("failed to count missed doses", http.StatusInternalServerError, w, err)
			return
		}
		summaries = append(summaries, dosing.CapsuleSummary{
			CapsuleID:   capsule.ID.Hex(),
			Name:        capsule.Details.Name,
			Stock:       capsule.Details.Stock,
			MissedCount: missed,
		})
	}

	drafts := dosing.Recommendations(summaries)
	recs := make([]models.Recommendation, 0, len(drafts))
	for _, draft := range drafts {
		recs = append(recs, models.Recommendation{
			CapsuleID: draft.CapsuleID,
			Name:      draft.Name,
			Type:      draft.Type,
			Priority:  draft.Priority,
			Message:   draft.Message,
			Action:    draft.Action,
		})
	}

	b, err := json.Marshal(models.RecommendationsResponse{Recommendations: recs})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AdherenceReportHandler returns per-capsule delay statistics and
// pattern/consistency classifications derived from taken doses. Capsules
// with fewer than two taken doses report insufficient data.
func (i Insights) AdherenceReportHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	now := time.Now()
	loc := subjectLocation(context.TODO(), i.UDB, userID, i.DefaultTimezone)

	if _, err := i.DoseDB.ReconcileStale(context.TODO(), userID, dosing.StaleCutoff(now)); err != nil {
		config.ErrorStatus("failed to reconcile stale doses", http.StatusInternalServerError, w, err)
		return
	}

	capsules, err := i.DB.FindActiveByUserID(context.TODO(), userID, dosing.Today(now, loc))
	if err != nil {
		config.ErrorStatus("failed to get capsules by user ID", http.StatusNotFound, w, err)
		return
	}

	reports := make([]models.AdherenceReport, 0, len(capsules))
	for _, capsule := range capsules {
		taken, err := i.DoseDB.FindTakenByCapsule(context.TODO(), capsule.ID.Hex())
		if err != nil {
			config.ErrorStatus("failed to get taken doses", http.StatusInternalServerError, w, err)
			return
		}

		capsuleLoc, err := dosing.LoadLocation(capsule.Details.Timezone)
		if err != nil {
			capsuleLoc = loc
		}

		takenDoses := make([]dosing.TakenDose, 0, len(taken))
		for _, dose := range taken {
			takenDoses = append(takenDoses, dosing.TakenDose{
				Slot:     dose.Slot,
				TakenAt:  dose.TakenAt.Time(),
				Location: capsuleLoc,
			})
		}

		result, err := dosing.Adherence(takenDoses)
		if err != nil {
			config.ErrorStatus("failed to derive adherence", http.StatusInternalServerError, w, err)
			return
		}

		reports = append(reports, models.AdherenceReport{
			CapsuleID:       capsule.ID.Hex(),
			Name:            capsule.Details.Name,
			Pattern:         result.Pattern,
			AvgDelayMinutes: result.AvgDelayMinutes,
			StdDevMinutes:   result.StdDevMinutes,
			Consistency:     result.Consistency,
			TakenCount:      len(taken),
		})
	}

	b, err := json.Marshal(models.AdherenceResponse{Reports: reports})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
