package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/stormbuster/hailrisk/internal/adapter/googlemaps"
	httpadapter "github.com/stormbuster/hailrisk/internal/adapter/http"
	kafkaadapter "github.com/stormbuster/hailrisk/internal/adapter/kafka"
	"github.com/stormbuster/hailrisk/internal/adapter/mapbox"
	"github.com/stormbuster/hailrisk/internal/adapter/offline"
	"github.com/stormbuster/hailrisk/internal/adapter/openai"
	"github.com/stormbuster/hailrisk/internal/adapter/spokeo"
	"github.com/stormbuster/hailrisk/internal/adapter/whitepages"
	"github.com/stormbuster/hailrisk/internal/analysis"
	"github.com/stormbuster/hailrisk/internal/config"
	"github.com/stormbuster/hailrisk/internal/domain"
	"github.com/stormbuster/hailrisk/internal/geocode"
	"github.com/stormbuster/hailrisk/internal/observability"
	"github.com/stormbuster/hailrisk/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	st := store.New(logger, metrics)
	if err := st.Load(cfg.SnapshotPath); err != nil {
		logger.Error("failed to load event snapshot", "path", cfg.SnapshotPath, "error", err)
		os.Exit(1)
	}
	logger.Info("event snapshot loaded", "path", cfg.SnapshotPath, "events", st.EventCount())

	resolver := geocode.NewResolver(
		buildProviders(cfg, logger),
		buildLookups(cfg, logger),
		logger,
		metrics,
	)
	geocoder := geocode.NewCached(resolver, cfg.GeocodeCacheSize, metrics)

	var narrator domain.Narrator
	if cfg.OpenAIAPIKey != "" {
		narrator = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITimeout, logger, metrics)
		logger.Info("delegated narrative enabled", "model", cfg.OpenAIModel)
	}
	engine := domain.NewRecommendationEngine(narrator, logger)

	weights := domain.RiskWeights{
		Frequency: cfg.RiskFrequencyWeight,
		Severity:  cfg.RiskSeverityWeight,
	}
	if err := weights.Validate(); err != nil {
		logger.Error("invalid risk weights", "error", err)
		os.Exit(1)
	}

	orch := analysis.New(st, engine, weights, cfg.AnalysisWorkers, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, orch, geocoder, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Publish a full risk report to the sink topic on startup when enabled.
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		go func() {
			analyses := orch.AnalyzeAll(ctx)
			if err := writer.PublishAnalyses(ctx, analyses); err != nil {
				logger.Error("failed to publish risk reports", "error", err)
				return
			}
			logger.Info("risk reports published", "topic", cfg.KafkaSinkTopic, "count", len(analyses))
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// buildProviders assembles the geocode chain in the configured priority
// order. Clients with a missing credential stay in the chain and report
// themselves unavailable, so the chain falls through to the next provider.
func buildProviders(cfg *config.Config, logger *slog.Logger) []domain.GeocodeProvider {
	providers := make([]domain.GeocodeProvider, 0, len(cfg.ProviderOrder))
	for _, name := range cfg.ProviderOrder {
		switch name {
		case googlemaps.ProviderName:
			providers = append(providers, googlemaps.NewClient(cfg.GoogleMapsAPIKey, cfg.GeocodeTimeout, logger))
		case mapbox.ProviderName:
			providers = append(providers, mapbox.NewClient(cfg.MapboxToken, cfg.GeocodeTimeout, logger))
		case offline.ProviderName:
			providers = append(providers, offline.NewProvider())
		}
	}
	logger.Info("geocode chain configured", "order", cfg.ProviderOrder)
	return providers
}

func buildLookups(cfg *config.Config, logger *slog.Logger) []domain.PropertyLookup {
	var lookups []domain.PropertyLookup
	if cfg.WhitepagesAPIKey != "" {
		logger.Info("supplementary enrichment enabled", "provider", whitepages.ProviderName)
		lookups = append(lookups, whitepages.NewClient(cfg.WhitepagesAPIKey, cfg.GeocodeTimeout, logger))
	}
	if cfg.SpokeoAPIKey != "" {
		logger.Info("supplementary enrichment enabled", "provider", spokeo.ProviderName)
		lookups = append(lookups, spokeo.NewClient(cfg.SpokeoAPIKey, cfg.GeocodeTimeout, logger))
	}
	return lookups
}
