package dosing

import (
	"errors"
	"fmt"
	"time"
)

// Schedule generation errors
var (
	ErrEmptySchedule = errors.New("schedule generation produced no doses")
	ErrDateRange     = errors.New("end date must not be before start date")
	ErrNoTimeSlots   = errors.New("at least one time slot is required")
)

// Schedule describes the fixed dosing schedule of one capsule
type Schedule struct {
	CapsuleID string
	StartDate string
	EndDate   string
	TimeSlots []string
	Dosage    string
	Location  *time.Location
}

// DoseDraft is one generated dose instance, not yet persisted
type DoseDraft struct {
	Date        string
	Slot        string
	Dosage      string
	GenKey      string
	ScheduledAt time.Time
}

// GenKey builds the deterministic uniqueness key for a (capsule, date, slot)
// triple. Persisting drafts under a unique index on this key makes
// regeneration idempotent.
func GenKey(capsuleID, date, slot string) string {
	return fmt.Sprintf("%s:%s:%s", capsuleID, date, slot)
}

// Generate expands a schedule into one draft per calendar day per time slot,
// stepping civil days with AddDate so DST transitions still count as a
// single day. The draft count is exactly daysInRange * len(TimeSlots).
func Generate(s Schedule) ([]DoseDraft, error) {
	start, err := ParseDate(s.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(s.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrDateRange
	}
	if len(s.TimeSlots) == 0 {
		return nil, ErrNoTimeSlots
	}
	for _, slot := range s.TimeSlots {
		if _, err := ParseSlot(slot); err != nil {
			return nil, err
		}
	}

	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	var drafts []DoseDraft
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(DateLayout)
		for _, slot := range s.TimeSlots {
			at, err := CivilMoment(date, slot, loc)
			if err != nil {
				return nil, err
			}
			drafts = append(drafts, DoseDraft{
				Date:        date,
				Slot:        slot,
				Dosage:      s.Dosage,
				GenKey:      GenKey(s.CapsuleID, date, slot),
				ScheduledAt: at.UTC(),
			})
		}
	}

	if len(drafts) == 0 {
		return nil, ErrEmptySchedule
	}
	return drafts, nil
}
