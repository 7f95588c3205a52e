package domain

import "fmt"

// RiskLevel is the four-band classification of a risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// SeverityCeilingInches is the hail diameter at which the severity
// contribution to the risk score saturates. 2.5 inches is the NWS
// "extreme" hail threshold.
const SeverityCeilingInches = 2.5

// Confidence floor and per-event increment. Zero events still yields the
// floor: a "no data" analysis is a valid, low-confidence result.
const (
	confidenceFloor      = 0.3
	confidencePerEvent   = 0.1
	confidenceSaturation = 7
)

// RiskWeights controls the frequency/severity split of the risk score.
// The weights must sum to 1.
type RiskWeights struct {
	Frequency float64
	Severity  float64
}

// DefaultRiskWeights is the 60/40 frequency/severity split used unless
// configuration overrides it.
var DefaultRiskWeights = RiskWeights{Frequency: 0.6, Severity: 0.4}

// Validate checks that the weights are non-negative and sum to 1.
func (w RiskWeights) Validate() error {
	if w.Frequency < 0 || w.Severity < 0 {
		return fmt.Errorf("risk weights must be non-negative: frequency=%g severity=%g", w.Frequency, w.Severity)
	}
	if sum := w.Frequency + w.Severity; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("risk weights must sum to 1, got %g", sum)
	}
	return nil
}

// RiskAssessment is the output of [ScoreRisk].
type RiskAssessment struct {
	Score      float64
	Level      RiskLevel
	Confidence float64
}

// ScoreRisk maps one zipcode's events to a bounded risk assessment.
// datasetMaxFrequency is the largest per-zipcode event count across the
// whole snapshot; it normalizes frequency so scores are comparable between
// zipcodes. The function is pure: same inputs, same output.
func ScoreRisk(events []HailEvent, datasetMaxFrequency int, weights RiskWeights) RiskAssessment {
	stats := ComputeStats(events)
	confidence := ConfidenceForSampleSize(stats.Frequency)

	if stats.Frequency == 0 {
		// Documented policy: no events means no known risk, not missing data.
		return RiskAssessment{Score: 0, Level: RiskLow, Confidence: confidence}
	}

	freqNorm := 1.0
	if datasetMaxFrequency > stats.Frequency {
		freqNorm = float64(stats.Frequency) / float64(datasetMaxFrequency)
	}

	var sevNorm float64
	if stats.AvgMagnitude != nil {
		sevNorm = *stats.AvgMagnitude / SeverityCeilingInches
		if sevNorm > 1 {
			sevNorm = 1
		}
	}

	score := 100 * (weights.Frequency*freqNorm + weights.Severity*sevNorm)
	score = clampScore(score)

	return RiskAssessment{
		Score:      score,
		Level:      RiskLevelForScore(score),
		Confidence: confidence,
	}
}

// RiskLevelForScore maps a score onto the four bands. The bands are
// non-overlapping and cover the full [0, 100] range:
// <25 low, <50 medium, <75 high, ≥75 very_high.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score < 25:
		return RiskLow
	case score < 50:
		return RiskMedium
	case score < 75:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// ConfidenceForSampleSize returns min(1, 0.3 + 0.1*min(n, 7)): monotonically
// non-decreasing in n, floor 0.3 at zero events, saturating at 1.0.
func ConfidenceForSampleSize(n int) float64 {
	if n < 0 {
		n = 0
	}
	if n > confidenceSaturation {
		n = confidenceSaturation
	}
	c := confidenceFloor + confidencePerEvent*float64(n)
	if c > 1 {
		return 1
	}
	return c
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
