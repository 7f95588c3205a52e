package domain

import "time"

// HailEvent is a single recorded hail occurrence. Events are immutable once
// loaded from the snapshot.
type HailEvent struct {
	Date    time.Time `json:"date"`
	Zipcode string    `json:"zipcode"`

	// Magnitude is the hail diameter in inches. 0 means the diameter was
	// not measured; see [KnownMagnitude].
	Magnitude float64 `json:"magnitude"`

	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`

	// SourceConfidence is the reporting source's 0–1 confidence in the
	// record, when the snapshot carries one.
	SourceConfidence float64 `json:"source_confidence,omitempty"`
}

// KnownMagnitude reports whether the event carries a measured hail diameter.
func (e HailEvent) KnownMagnitude() bool {
	return e.Magnitude > 0
}

// EventStats summarizes the events behind one zipcode analysis.
type EventStats struct {
	// Frequency is the total event count, unknown magnitudes included.
	Frequency int

	// AvgMagnitude is the mean diameter over events with a known magnitude,
	// or nil when no event has one.
	AvgMagnitude *float64

	// MaxMagnitude is the largest known diameter, 0 when none is known.
	MaxMagnitude float64

	// LatestEvent is the most recent event date, zero when there are no events.
	LatestEvent time.Time
}

// ComputeStats derives summary statistics from a zipcode's events.
func ComputeStats(events []HailEvent) EventStats {
	stats := EventStats{Frequency: len(events)}

	var sum float64
	var known int
	for _, e := range events {
		if e.KnownMagnitude() {
			sum += e.Magnitude
			known++
			if e.Magnitude > stats.MaxMagnitude {
				stats.MaxMagnitude = e.Magnitude
			}
		}
		if e.Date.After(stats.LatestEvent) {
			stats.LatestEvent = e.Date
		}
	}
	if known > 0 {
		avg := sum / float64(known)
		stats.AvgMagnitude = &avg
	}
	return stats
}

// ZipcodeAnalysis is the assessment produced for one zipcode. It is created
// fresh per analysis call and never mutated after construction.
type ZipcodeAnalysis struct {
	Zipcode       string    `json:"zipcode"`
	RiskScore     float64   `json:"risk_score"`
	RiskLevel     RiskLevel `json:"risk_level"`
	HailFrequency int       `json:"hail_frequency"`

	// AvgHailSize is nil when no event in the zipcode has a known magnitude.
	AvgHailSize *float64 `json:"avg_hail_size,omitempty"`

	Recommendations   []string  `json:"recommendations"`
	WeatherPatterns   string    `json:"weather_patterns"`
	AnalysisTimestamp time.Time `json:"analysis_timestamp"`
	ConfidenceScore   float64   `json:"confidence_score"`

	// Error marks a failed entry in a batch result. Batch operations report
	// partial results with a visible marker instead of dropping the entry.
	Error string `json:"error,omitempty"`
}
