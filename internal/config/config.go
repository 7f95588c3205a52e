package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// KnownProviders are the geocode provider names accepted in PROVIDER_ORDER.
var KnownProviders = []string{"googlemaps", "mapbox", "offline"}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// SnapshotPath points at the hail-event snapshot loaded on startup.
	SnapshotPath string

	// Risk scoring.
	RiskFrequencyWeight float64
	RiskSeverityWeight  float64
	AnalysisWorkers     int

	// Geocoding.
	GoogleMapsAPIKey string
	MapboxToken      string
	ProviderOrder    []string
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int

	// Supplementary enrichment (Whitepages Pro, Spokeo).
	WhitepagesAPIKey string
	SpokeoAPIKey     string

	// Delegated narrative (chat completions API).
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// Optional report publishing.
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. A missing credential disables the corresponding provider; it
// is never a load error.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	openAITimeout, err := parseDuration("OPENAI_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	freqWeight, err := parseFloat("RISK_FREQUENCY_WEIGHT", 0.6)
	if err != nil {
		return nil, err
	}
	sevWeight, err := parseFloat("RISK_SEVERITY_WEIGHT", 0.4)
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("ANALYSIS_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("GEOCODE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	providerOrder, err := parseProviderOrder(envOrDefault("PROVIDER_ORDER", "googlemaps,mapbox,offline"))
	if err != nil {
		return nil, err
	}

	brokers := splitNonEmpty(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SnapshotPath: envOrDefault("SNAPSHOT_PATH", "hail_events.json"),

		RiskFrequencyWeight: freqWeight,
		RiskSeverityWeight:  sevWeight,
		AnalysisWorkers:     workers,

		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		MapboxToken:      os.Getenv("MAPBOX_TOKEN"),
		ProviderOrder:    providerOrder,
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: cacheSize,

		WhitepagesAPIKey: os.Getenv("WHITEPAGES_API_KEY"),
		SpokeoAPIKey:     os.Getenv("SPOKEO_API_KEY"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout: openAITimeout,

		KafkaBrokers:   brokers,
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "zipcode-risk-reports"),
		KafkaEnabled:   kafkaEnabled,
	}

	if sum := cfg.RiskFrequencyWeight + cfg.RiskSeverityWeight; sum < 0.999 || sum > 1.001 {
		return nil, fmt.Errorf("RISK_FREQUENCY_WEIGHT and RISK_SEVERITY_WEIGHT must sum to 1, got %g", sum)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// parseProviderOrder validates the configured chain and guarantees the
// offline provider terminates it.
func parseProviderOrder(raw string) ([]string, error) {
	names := splitNonEmpty(raw)
	if len(names) == 0 {
		return nil, errors.New("PROVIDER_ORDER must name at least one provider")
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !isKnownProvider(name) {
			return nil, fmt.Errorf("PROVIDER_ORDER: unknown provider %q (known: %s)", name, strings.Join(KnownProviders, ", "))
		}
		if seen[name] {
			return nil, fmt.Errorf("PROVIDER_ORDER: provider %q listed twice", name)
		}
		seen[name] = true
	}

	if !seen["offline"] {
		names = append(names, "offline")
	}
	return names, nil
}

func isKnownProvider(name string) bool {
	for _, known := range KnownProviders {
		if name == known {
			return true
		}
	}
	return false
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
