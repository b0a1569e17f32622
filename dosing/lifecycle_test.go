package dosing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name        string
		from        string
		to          string
		expectedErr error
	}{
		{name: "scheduled to taken", from: StatusScheduled, to: StatusTaken},
		{name: "scheduled to missed", from: StatusScheduled, to: StatusMissed},
		{name: "scheduled to snoozed", from: StatusScheduled, to: StatusSnoozed},
		{name: "snoozed to taken", from: StatusSnoozed, to: StatusTaken},
		{name: "snoozed to missed", from: StatusSnoozed, to: StatusMissed},
		{name: "snoozed to snoozed", from: StatusSnoozed, to: StatusSnoozed, expectedErr: ErrInvalidTransition},
		{name: "taken is terminal", from: StatusTaken, to: StatusMissed, expectedErr: ErrTerminalState},
		{name: "missed is terminal", from: StatusMissed, to: StatusTaken, expectedErr: ErrTerminalState},
		{name: "no un-take", from: StatusTaken, to: StatusScheduled, expectedErr: ErrTerminalState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestIsStale(t *testing.T) {
	now := time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)

	assert.True(t, isStale(now.Add(-time.Minute), now))
	assert.True(t, isStale(now, now), "exactly-now counts as stale")
	assert.False(t, isStale(now.Add(time.Minute), now))
}

func TestStaleCutoff(t *testing.T) {
	now := time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)
	cutoff := StaleCutoff(now)

	assert.Equal(t, now.Add(-SweepGrace), cutoff)
	// a dose inside the grace window is not yet stale against the cutoff
	assert.False(t, isStale(now.Add(-time.Minute), cutoff))
	assert.True(t, isStale(now.Add(-SweepGrace-time.Minute), cutoff))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusTaken))
	assert.True(t, IsTerminal(StatusMissed))
	assert.False(t, IsTerminal(StatusScheduled))
	assert.False(t, IsTerminal(StatusSnoozed))
}

func TestSweepable(t *testing.T) {
	assert.ElementsMatch(t, []string{StatusScheduled, StatusSnoozed}, Sweepable())
}
