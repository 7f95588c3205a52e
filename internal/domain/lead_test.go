package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestScoreLead(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { SetClock(nil) })

	old := now.AddDate(0, -6, 0)
	recent := now.AddDate(0, 0, -10)

	cases := []struct {
		name          string
		event         HailEvent
		propertyValue float64
		want          int
	}{
		{"large hail, high value, recent", HailEvent{Magnitude: 2.5, Date: recent}, 600_000, 85},
		{"large hail only", HailEvent{Magnitude: 2.0, Date: old}, 100_000, 50},
		{"moderate hail, default value", HailEvent{Magnitude: 1.5, Date: old}, 0, 40},
		{"small hail, low value", HailEvent{Magnitude: 1.0, Date: old}, 100_000, 10},
		{"sub-inch hail", HailEvent{Magnitude: 0.75, Date: old}, 100_000, 0},
		{"recency bonus", HailEvent{Magnitude: 1.0, Date: recent}, 100_000, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScoreLead(tc.event, tc.propertyValue))
		})
	}
}

func TestNewLead(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { SetClock(nil) })

	event := HailEvent{Magnitude: 2.25, Date: now.AddDate(0, 0, -5)}

	lead := NewLead(event, 0)
	assert.Equal(t, 75, lead.Score)
	assert.Equal(t, "high", lead.Priority)
	assert.Equal(t, float64(300_000), lead.PropertyValue, "zero valuation falls back to the default")
	assert.Equal(t, event, lead.Event)

	lead = NewLead(event, 600_000)
	assert.Equal(t, 85, lead.Score)
	assert.Equal(t, float64(600_000), lead.PropertyValue)
}

func TestLeadPriority(t *testing.T) {
	assert.Equal(t, "high", LeadPriority(70))
	assert.Equal(t, "high", LeadPriority(100))
	assert.Equal(t, "medium", LeadPriority(40))
	assert.Equal(t, "medium", LeadPriority(69))
	assert.Equal(t, "low", LeadPriority(39))
	assert.Equal(t, "low", LeadPriority(0))
}
