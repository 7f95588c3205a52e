// Package analysis coordinates the event store, risk scorer, and
// recommendation engine into zipcode analysis records.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/stormbuster/hailrisk/internal/domain"
	"github.com/stormbuster/hailrisk/internal/observability"
	"github.com/stormbuster/hailrisk/internal/store"
)

// ErrEmptyZipcode is returned when an analysis is requested without a zipcode.
var ErrEmptyZipcode = errors.New("zipcode required")

// Orchestrator assembles ZipcodeAnalysis records. It holds no mutable state
// of its own; every analysis reads from the immutable snapshot in the store.
type Orchestrator struct {
	store   *store.Store
	engine  *domain.RecommendationEngine
	weights domain.RiskWeights
	workers int
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Orchestrator. workers bounds the parallelism of batch
// operations; values below 1 are treated as 1.
func New(s *store.Store, engine *domain.RecommendationEngine, weights domain.RiskWeights, workers int, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		store:   s,
		engine:  engine,
		weights: weights,
		workers: workers,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once the event snapshot has been loaded.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.store.Loaded() {
		return errors.New("event snapshot has not been loaded yet")
	}
	return nil
}

// AnalyzeOne produces the analysis record for a single zipcode. Zero events
// is a valid input and yields a low-risk, floor-confidence record.
func (o *Orchestrator) AnalyzeOne(ctx context.Context, zipcode string) (domain.ZipcodeAnalysis, error) {
	if zipcode == "" {
		return domain.ZipcodeAnalysis{}, ErrEmptyZipcode
	}

	start := time.Now()
	events := o.store.EventsFor(zipcode)
	stats := domain.ComputeStats(events)
	assessment := domain.ScoreRisk(events, o.store.MaxFrequency(), o.weights)

	// One narrator call serves both fields.
	recommendations, narrative := o.engine.Advise(ctx, assessment.Level, stats)

	result := domain.ZipcodeAnalysis{
		Zipcode:           zipcode,
		RiskScore:         assessment.Score,
		RiskLevel:         assessment.Level,
		HailFrequency:     stats.Frequency,
		AvgHailSize:       stats.AvgMagnitude,
		Recommendations:   recommendations,
		WeatherPatterns:   narrative,
		AnalysisTimestamp: domain.Now(),
		ConfidenceScore:   assessment.Confidence,
	}

	o.metrics.AnalysesCompleted.Inc()
	o.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	return result, nil
}

// AnalyzeMany analyzes each requested zipcode, preserving input order in the
// output. Per-zipcode failures are recorded as marked placeholder entries;
// the batch never aborts. Zipcodes are analyzed concurrently but results are
// written by input index, so output order is deterministic regardless of
// scheduling.
func (o *Orchestrator) AnalyzeMany(ctx context.Context, zipcodes []string) []domain.ZipcodeAnalysis {
	results := make([]domain.ZipcodeAnalysis, len(zipcodes))

	type job struct {
		index   int
		zipcode string
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	for range o.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				result, err := o.AnalyzeOne(ctx, j.zipcode)
				if err != nil {
					o.logger.Warn("zipcode analysis failed",
						"zipcode", j.zipcode,
						"error", err,
					)
					o.metrics.AnalysisFailures.Inc()
					result = domain.ZipcodeAnalysis{
						Zipcode:           j.zipcode,
						RiskLevel:         domain.RiskLow,
						AnalysisTimestamp: domain.Now(),
						Error:             err.Error(),
					}
				}
				results[j.index] = result
			}
		}()
	}

	for i, zip := range zipcodes {
		jobs <- job{index: i, zipcode: zip}
	}
	close(jobs)
	wg.Wait()

	return results
}

// GenerateLeads scores each recorded event for a zipcode as a contractor
// lead, sorted by descending score with ties broken by most recent storm
// date. Pass propertyValue 0 to use the default valuation.
func (o *Orchestrator) GenerateLeads(_ context.Context, zipcode string, propertyValue float64) ([]domain.Lead, error) {
	if zipcode == "" {
		return nil, ErrEmptyZipcode
	}

	events := o.store.EventsFor(zipcode)
	leads := make([]domain.Lead, 0, len(events))
	for _, event := range events {
		leads = append(leads, domain.NewLead(event, propertyValue))
	}

	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].Score != leads[j].Score {
			return leads[i].Score > leads[j].Score
		}
		return leads[i].Event.Date.After(leads[j].Event.Date)
	})
	return leads, nil
}

// AnalyzeAll analyzes every zipcode known to the store, sorted by descending
// risk score with ties broken by ascending zipcode, so output is
// deterministic and report-ready.
func (o *Orchestrator) AnalyzeAll(ctx context.Context) []domain.ZipcodeAnalysis {
	results := o.AnalyzeMany(ctx, o.store.Zipcodes())

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RiskScore != results[j].RiskScore {
			return results[i].RiskScore > results[j].RiskScore
		}
		return results[i].Zipcode < results[j].Zipcode
	})
	return results
}
