package dosing

import (
	"errors"
	"time"
)

// Dose statuses. Scheduled is the initial state, snoozed a temporary
// deferral; taken and missed are terminal.
const (
	StatusScheduled = "scheduled"
	StatusSnoozed   = "snoozed"
	StatusTaken     = "taken"
	StatusMissed    = "missed"
)

// Lifecycle errors
var (
	// ErrTerminalState is returned when a transition is attempted on a dose
	// already marked taken or missed. There is no un-take.
	ErrTerminalState = errors.New("dose is already in a terminal state")

	// ErrInvalidTransition is returned for transitions outside the state
	// machine, e.g. snoozing a dose that does not exist in scheduled form.
	ErrInvalidTransition = errors.New("invalid dose status transition")
)

// SweepGrace is how long a pending dose may sit past its scheduled moment
// before the stale sweep reclassifies it as missed. It matches the reminder
// trail window, so a dose is never swept while a due-now reminder for it is
// still eligible.
const SweepGrace = 5 * time.Minute

// StaleCutoff returns the sweep cutoff for a given wall-clock time. Every
// caller of the stale sweep derives its cutoff here so the read path and the
// scheduler tick cannot drift apart.
func StaleCutoff(now time.Time) time.Time {
	return now.Add(-SweepGrace)
}

// IsTerminal reports whether status permits no further transitions
func IsTerminal(status string) bool {
	return status == StatusTaken || status == StatusMissed
}

// CanTransition reports whether moving a dose from one status to another is
// permitted by the lifecycle state machine
func CanTransition(from, to string) bool {
	switch from {
	case StatusScheduled:
		return to == StatusTaken || to == StatusMissed || to == StatusSnoozed
	case StatusSnoozed:
		return to == StatusTaken || to == StatusMissed
	default:
		return false
	}
}

// CheckTransition validates a requested transition, distinguishing terminal
// rejections from plain invalid moves so the boundary can map them to
// distinct client errors
func CheckTransition(from, to string) error {
	if IsTerminal(from) {
		return ErrTerminalState
	}
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}

// isStale reports whether a pending dose's scheduled moment is at or before
// now, i.e. the sweep should reclassify it as missed
func isStale(scheduledAt, now time.Time) bool {
	return !scheduledAt.After(now)
}

// Sweepable lists the statuses the stale sweep applies to. A scheduled dose
// is swept on its scheduled moment, a snoozed dose on its snooze target.
func Sweepable() []string {
	return []string{StatusScheduled, StatusSnoozed}
}
