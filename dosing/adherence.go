package dosing

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
)

// Classification values produced by the adherence aggregator
const (
	PatternOnTime            = "on-time"
	PatternConsistentlyLate  = "consistently-late"
	PatternConsistentlyEarly = "consistently-early"
	PatternInsufficientData  = "insufficient-data"

	ConsistencyExcellent = "excellent"
	ConsistencyGood      = "good"
	ConsistencyFair      = "fair"
	ConsistencyPoor      = "poor"
	ConsistencyUnknown   = "unknown"
)

// Recommendation priorities and types
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	RecommendationRefill      = "refill-alert"
	RecommendationConsistency = "consistency-alert"
)

// Aggregation thresholds
const (
	MinTakenForAdherence = 2
	LowStockThreshold    = 5
	MissedCountThreshold = 2
	patternCutoffMinutes = 10
)

// TakenDose is one taken dose instance fed to the aggregator: its scheduled
// civil slot and the instant it was actually taken
type TakenDose struct {
	Slot     string
	TakenAt  time.Time
	Location *time.Location
}

// AdherenceResult is the derived adherence classification for one capsule
type AdherenceResult struct {
	Pattern         string
	AvgDelayMinutes int
	StdDevMinutes   float64
	Consistency     string
}

// delayMinutes computes the same-day time-of-day delta between when the dose
// was taken (local time) and its scheduled slot. This is not an elapsed
// duration across dates.
func delayMinutes(d TakenDose) (float64, error) {
	slotMin, err := SlotMinutes(d.Slot)
	if err != nil {
		return 0, err
	}
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	local := d.TakenAt.In(loc)
	takenMin := float64(local.Hour()*60+local.Minute()) + float64(local.Second())/60.0
	return takenMin - float64(slotMin), nil
}

// Adherence derives delay statistics and pattern/consistency classifications
// from a capsule's taken doses. Fewer than two taken doses yields the
// explicit insufficient-data result rather than an error.
func Adherence(doses []TakenDose) (AdherenceResult, error) {
	if len(doses) < MinTakenForAdherence {
		return AdherenceResult{
			Pattern:     PatternInsufficientData,
			Consistency: ConsistencyUnknown,
		}, nil
	}

	delays := make([]float64, 0, len(doses))
	for _, d := range doses {
		delay, err := delayMinutes(d)
		if err != nil {
			return AdherenceResult{}, err
		}
		delays = append(delays, delay)
	}

	mean, err := stats.Mean(delays)
	if err != nil {
		return AdherenceResult{}, err
	}
	stdDev, err := stats.StdDevP(delays)
	if err != nil {
		return AdherenceResult{}, err
	}

	avg := int(math.Round(mean))

	consistency := ConsistencyExcellent
	switch {
	case stdDev > 15:
		consistency = ConsistencyPoor
	case stdDev > 10:
		consistency = ConsistencyFair
	case stdDev > 5:
		consistency = ConsistencyGood
	}

	pattern := PatternOnTime
	switch {
	case avg > patternCutoffMinutes:
		pattern = PatternConsistentlyLate
	case avg < -patternCutoffMinutes:
		pattern = PatternConsistentlyEarly
	}

	return AdherenceResult{
		Pattern:         pattern,
		AvgDelayMinutes: avg,
		StdDevMinutes:   stdDev,
		Consistency:     consistency,
	}, nil
}

// CapsuleSummary is the per-capsule input to the recommendation builder
type CapsuleSummary struct {
	CapsuleID   string
	Name        string
	Stock       int
	MissedCount int64
}

// RecommendationDraft is one derived refill/adherence suggestion
type RecommendationDraft struct {
	CapsuleID string
	Name      string
	Type      string
	Priority  string
	Message   string
	Action    string
}

var priorityRank = map[string]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

// Recommendations derives prioritized refill and consistency suggestions
// from capsule summaries, sorted high priority first. Capsules with no
// issues contribute nothing.
func Recommendations(summaries []CapsuleSummary) []RecommendationDraft {
	var recs []RecommendationDraft
	for _, s := range summaries {
		if s.Stock < LowStockThreshold {
			recs = append(recs, RecommendationDraft{
				CapsuleID: s.CapsuleID,
				Name:      s.Name,
				Type:      RecommendationRefill,
				Priority:  PriorityHigh,
				Message:   s.Name + " is running low on stock",
				Action:    "Request a refill from your prescriber",
			})
		}
		if s.MissedCount > MissedCountThreshold {
			recs = append(recs, RecommendationDraft{
				CapsuleID: s.CapsuleID,
				Name:      s.Name,
				Type:      RecommendationConsistency,
				Priority:  PriorityHigh,
				Message:   s.Name + " has several missed doses in the last week",
				Action:    "Review your dose schedule or enable reminders",
			})
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank[recs[i].Priority] < priorityRank[recs[j].Priority]
	})
	return recs
}
