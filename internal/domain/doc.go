// Package domain models historical hail-event data and per-zipcode risk.
//
// # Data Source
//
// Hail events originate from NOAA Storm Prediction Center (SPC) report
// archives. An upstream job aggregates the per-day CSVs into a JSON snapshot
// keyed by zipcode, which [store.Store] loads at startup. The snapshot is
// immutable for the lifetime of a run; no live feed is consumed.
//
// # Magnitude Encoding
//
// Magnitude is hail diameter in inches:
//
//   - Inches as a decimal: 1.25 = 1.25 inches
//   - Hundredths of inches (legacy): 125 = 1.25 inches
//   - Heuristic: values ≥ 10 are assumed to be hundredths because the
//     largest hail ever recorded in the US was ~8 inches.
//   - "UNK" or an empty string means the diameter was not measured. Unknown
//     magnitudes are excluded from size averages but still count toward
//     event frequency.
//
// # Risk Scoring
//
// A zipcode's risk score is a weighted combination of normalized event
// frequency (scaled against the dataset-wide maximum so scores are
// comparable across zipcodes) and normalized average hail size (saturating
// at 2.5 inches, the NWS "severe" ceiling used throughout this project).
// The score is clamped to [0, 100] and mapped onto four bands:
//
//	score < 25  → low
//	score < 50  → medium
//	score < 75  → high
//	score ≥ 75  → very_high
//
// Confidence is a function of sample size only: 0.3 + 0.1 per event,
// saturating at 1.0 after seven events. Zero events is a valid result
// (score 0, level low, floor confidence), not an error.
package domain
