package dosing

import (
	"fmt"
	"time"
)

// Civil date and time-of-day layouts. Scheduled dates and slots are civil
// values interpreted in the subject's reference timezone; they are never
// instants on their own.
const (
	DateLayout = "2006-01-02"
	SlotLayout = "15:04"
)

// ParseDate validates and parses a civil "2006-01-02" date
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// ParseSlot validates a 24-hour "15:04" time-of-day slot
func ParseSlot(s string) (time.Time, error) {
	t, err := time.Parse(SlotLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time slot %q: %w", s, err)
	}
	return t, nil
}

// SlotMinutes returns the slot as minutes after midnight
func SlotMinutes(slot string) (int, error) {
	t, err := ParseSlot(slot)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// CivilMoment resolves a civil (date, slot) pair to the instant at which it
// occurs in loc
func CivilMoment(date, slot string, loc *time.Location) (time.Time, error) {
	m, err := time.ParseInLocation(DateLayout+" "+SlotLayout, date+" "+slot, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid civil moment %q %q: %w", date, slot, err)
	}
	return m, nil
}

// Today returns the current civil date in loc
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateLayout)
}

// LoadLocation resolves an IANA timezone name, falling back to UTC for the
// empty string
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
