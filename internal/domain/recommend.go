package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// Narrative is what a delegated narrative provider returns. Either field may
// be empty; empty recommendations fall back to the rule-based list.
type Narrative struct {
	Text            string
	Recommendations []string
}

// Narrator generates a risk narrative from an external natural-language
// provider. Implementations may fail freely; the engine absorbs failures.
type Narrator interface {
	Narrate(ctx context.Context, level RiskLevel, stats EventStats) (Narrative, error)
}

// recommendationTable maps each risk level to a fixed, ordered list of
// actions. Order matters: most impactful first.
var recommendationTable = map[RiskLevel][]string{
	RiskLow: {
		"maintain standard roof inspections every 2-3 years",
		"keep photographic records of roof condition",
	},
	RiskMedium: {
		"schedule a professional roof inspection within the next year",
		"review insurance policy hail deductibles",
		"trim overhanging branches that could compound hail damage",
	},
	RiskHigh: {
		"schedule a professional roof inspection this season",
		"consider impact-resistant shingles at next replacement",
		"review insurance coverage limits and hail deductibles",
		"document current roof condition for future claims",
	},
	RiskVeryHigh: {
		"install impact-resistant (Class 4) roofing material",
		"review insurance coverage and file timely claims after storms",
		"schedule annual professional roof inspections",
		"consider protective coverings for vehicles and outdoor equipment",
	},
}

// RecommendationEngine produces recommendations and a narrative for a risk
// level. The rule-based strategy is always available; a Narrator, when
// configured, is tried first and falls back to rules on any failure so the
// caller never sees an analysis fail because optional enrichment did.
type RecommendationEngine struct {
	narrator Narrator
	logger   *slog.Logger
}

// NewRecommendationEngine creates an engine. Pass a nil narrator to use the
// rule-based strategy only.
func NewRecommendationEngine(narrator Narrator, logger *slog.Logger) *RecommendationEngine {
	return &RecommendationEngine{narrator: narrator, logger: logger}
}

// Recommend returns the ordered action list for a risk level.
func (e *RecommendationEngine) Recommend(ctx context.Context, level RiskLevel, stats EventStats) []string {
	if n, ok := e.narrate(ctx, level, stats); ok && len(n.Recommendations) > 0 {
		return n.Recommendations
	}
	return RuleBasedRecommendations(level)
}

// Describe returns the narrative for a risk level and its statistics.
func (e *RecommendationEngine) Describe(ctx context.Context, level RiskLevel, stats EventStats) string {
	if n, ok := e.narrate(ctx, level, stats); ok && n.Text != "" {
		return n.Text
	}
	return templateNarrative(level, stats)
}

// Advise returns the recommendations and narrative together from a single
// narrator call, so both come from one completion. Either half falls back
// independently when the narrator left it empty.
func (e *RecommendationEngine) Advise(ctx context.Context, level RiskLevel, stats EventStats) ([]string, string) {
	n, ok := e.narrate(ctx, level, stats)

	recs := n.Recommendations
	if !ok || len(recs) == 0 {
		recs = RuleBasedRecommendations(level)
	}
	text := n.Text
	if !ok || text == "" {
		text = templateNarrative(level, stats)
	}
	return recs, text
}

func (e *RecommendationEngine) narrate(ctx context.Context, level RiskLevel, stats EventStats) (Narrative, bool) {
	if e.narrator == nil {
		return Narrative{}, false
	}
	n, err := e.narrator.Narrate(ctx, level, stats)
	if err != nil {
		e.logger.Warn("narrative provider failed, using rule-based strategy",
			"risk_level", level,
			"error", err,
		)
		return Narrative{}, false
	}
	return n, true
}

// RuleBasedRecommendations returns the static table entry for a level.
// Unknown levels get the low-risk list.
func RuleBasedRecommendations(level RiskLevel) []string {
	recs, ok := recommendationTable[level]
	if !ok {
		recs = recommendationTable[RiskLow]
	}
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}

// templateNarrative fills a deterministic template with the numeric stats.
func templateNarrative(level RiskLevel, stats EventStats) string {
	if stats.Frequency == 0 {
		return "No hail events on record for this zipcode. Risk is assessed as low with reduced confidence due to the absence of data."
	}
	size := "unmeasured size"
	if stats.AvgMagnitude != nil {
		size = fmt.Sprintf("average hail diameter %.2f in (max %.2f in)", *stats.AvgMagnitude, stats.MaxMagnitude)
	}
	return fmt.Sprintf("Recorded %d hail event(s) with %s. Overall hail risk for this zipcode is %s.",
		stats.Frequency, size, levelPhrase(level))
}

func levelPhrase(level RiskLevel) string {
	switch level {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskVeryHigh:
		return "very high"
	default:
		return string(level)
	}
}
