package domain

import "time"

// Lead scoring bands. Scores of 70+ are high priority, 40–69 medium.
const (
	LeadPriorityHighThreshold   = 70
	LeadPriorityMediumThreshold = 40
)

// recencyWindow is how long after a storm a lead still earns a recency bonus.
const recencyWindow = 30 * 24 * time.Hour

// defaultPropertyValue is assumed when no valuation is available.
const defaultPropertyValue = 300_000

// Lead pairs a hail event with its contractor-lead score and priority band.
type Lead struct {
	Event         HailEvent `json:"event"`
	Score         int       `json:"score"`
	Priority      string    `json:"priority"`
	PropertyValue float64   `json:"property_value"`
}

// NewLead scores an event and wraps it with its priority band. Pass
// propertyValue 0 to use the default valuation.
func NewLead(event HailEvent, propertyValue float64) Lead {
	if propertyValue <= 0 {
		propertyValue = defaultPropertyValue
	}
	score := ScoreLead(event, propertyValue)
	return Lead{
		Event:         event,
		Score:         score,
		Priority:      LeadPriority(score),
		PropertyValue: propertyValue,
	}
}

// ScoreLead rates a single hail event as a contractor lead on a 0–100 scale.
// Bigger hail, higher property value, and a recent storm date all raise the
// score. Pass propertyValue 0 to use the default valuation.
func ScoreLead(event HailEvent, propertyValue float64) int {
	if propertyValue <= 0 {
		propertyValue = defaultPropertyValue
	}

	score := 0
	switch {
	case event.Magnitude >= 2.0:
		score += 50
	case event.Magnitude >= 1.5:
		score += 30
	case event.Magnitude >= 1.0:
		score += 10
	}

	switch {
	case propertyValue >= 500_000:
		score += 20
	case propertyValue >= 300_000:
		score += 10
	}

	if !event.Date.IsZero() && clock.Now().Sub(event.Date) <= recencyWindow {
		score += 15
	}

	if score > 100 {
		score = 100
	}
	return score
}

// LeadPriority buckets a lead score into high / medium / low.
func LeadPriority(score int) string {
	switch {
	case score >= LeadPriorityHighThreshold:
		return "high"
	case score >= LeadPriorityMediumThreshold:
		return "medium"
	default:
		return "low"
	}
}
