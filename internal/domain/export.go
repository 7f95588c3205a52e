package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// unknownSizeMarker is the tabular stand-in for a nil AvgHailSize.
const unknownSizeMarker = "unknown"

// AnalysisRow is the flat, tabular shape of a ZipcodeAnalysis, suitable for
// CSV export. Every field is a scalar; multi-valued fields are joined.
type AnalysisRow struct {
	Zipcode           string  `json:"zipcode"`
	RiskScore         float64 `json:"risk_score"`
	RiskLevel         string  `json:"risk_level"`
	HailFrequency     int     `json:"hail_frequency"`
	AvgHailSize       string  `json:"avg_hail_size"` // decimal inches or "unknown"
	Recommendations   string  `json:"recommendations"`
	WeatherPatterns   string  `json:"weather_patterns"`
	AnalysisTimestamp string  `json:"analysis_timestamp"` // RFC 3339
	ConfidenceScore   float64 `json:"confidence_score"`
}

// ToRow flattens an analysis into its tabular shape.
func (a ZipcodeAnalysis) ToRow() AnalysisRow {
	size := unknownSizeMarker
	if a.AvgHailSize != nil {
		size = strconv.FormatFloat(*a.AvgHailSize, 'f', -1, 64)
	}
	return AnalysisRow{
		Zipcode:           a.Zipcode,
		RiskScore:         a.RiskScore,
		RiskLevel:         string(a.RiskLevel),
		HailFrequency:     a.HailFrequency,
		AvgHailSize:       size,
		Recommendations:   strings.Join(a.Recommendations, "; "),
		WeatherPatterns:   a.WeatherPatterns,
		AnalysisTimestamp: a.AnalysisTimestamp.UTC().Format(time.RFC3339),
		ConfidenceScore:   a.ConfidenceScore,
	}
}

// ToAnalysis reconstructs a ZipcodeAnalysis from its tabular shape.
// Zipcode, risk score, risk level, and hail frequency round-trip exactly.
func (r AnalysisRow) ToAnalysis() (ZipcodeAnalysis, error) {
	a := ZipcodeAnalysis{
		Zipcode:         r.Zipcode,
		RiskScore:       r.RiskScore,
		RiskLevel:       RiskLevel(r.RiskLevel),
		HailFrequency:   r.HailFrequency,
		WeatherPatterns: r.WeatherPatterns,
		ConfidenceScore: r.ConfidenceScore,
	}
	if r.AvgHailSize != "" && r.AvgHailSize != unknownSizeMarker {
		size, err := strconv.ParseFloat(r.AvgHailSize, 64)
		if err != nil {
			return ZipcodeAnalysis{}, fmt.Errorf("parse avg_hail_size %q: %w", r.AvgHailSize, err)
		}
		a.AvgHailSize = &size
	}
	if r.Recommendations != "" {
		a.Recommendations = strings.Split(r.Recommendations, "; ")
	}
	if r.AnalysisTimestamp != "" {
		ts, err := time.Parse(time.RFC3339, r.AnalysisTimestamp)
		if err != nil {
			return ZipcodeAnalysis{}, fmt.Errorf("parse analysis_timestamp %q: %w", r.AnalysisTimestamp, err)
		}
		a.AnalysisTimestamp = ts
	}
	return a, nil
}

// RowHeaders returns the CSV header row matching [AnalysisRow.Values].
func RowHeaders() []string {
	return []string{
		"zipcode", "risk_score", "risk_level", "hail_frequency",
		"avg_hail_size", "recommendations", "weather_patterns",
		"analysis_timestamp", "confidence_score",
	}
}

// Values returns the row's fields as strings in header order.
func (r AnalysisRow) Values() []string {
	return []string{
		r.Zipcode,
		strconv.FormatFloat(r.RiskScore, 'f', -1, 64),
		r.RiskLevel,
		strconv.Itoa(r.HailFrequency),
		r.AvgHailSize,
		r.Recommendations,
		r.WeatherPatterns,
		r.AnalysisTimestamp,
		strconv.FormatFloat(r.ConfidenceScore, 'f', -1, 64),
	}
}
