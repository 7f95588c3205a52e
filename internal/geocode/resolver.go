// Package geocode resolves coordinates to addresses through an ordered
// provider fallback chain.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stormbuster/hailrisk/internal/domain"
	"github.com/stormbuster/hailrisk/internal/observability"
)

// ReverseGeocoder is the lookup surface shared by the resolver and its cache
// decorator.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Address, error)
}

// Resolver walks a configured provider chain in strict priority order and
// returns the first successful address. Ordering is a correctness
// requirement, not an optimization: providers are never raced.
type Resolver struct {
	providers []domain.GeocodeProvider
	lookups   []domain.PropertyLookup
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewResolver creates a Resolver. The last provider should be one that never
// fails for valid coordinates (the offline provider) so a lookup always
// produces an address. lookups feed the enhanced path and may be empty.
func NewResolver(providers []domain.GeocodeProvider, lookups []domain.PropertyLookup, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		providers: providers,
		lookups:   lookups,
		logger:    logger,
		metrics:   metrics,
	}
}

// ReverseGeocode validates the coordinates, then tries each provider in
// order. A provider error is logged and absorbed; the next provider is
// tried. Only invalid coordinates or exhaustion of the whole chain surface
// as errors.
func (r *Resolver) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Address, error) {
	if err := domain.ValidateCoordinates(lat, lon); err != nil {
		return domain.Address{}, err
	}

	var errs []error
	for i, provider := range r.providers {
		addr, err := provider.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			r.metrics.GeocodeRequests.WithLabelValues(provider.Name(), outcomeLabel(err)).Inc()
			r.logger.Warn("geocode provider failed, trying next",
				"provider", provider.Name(),
				"lat", lat,
				"lon", lon,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", provider.Name(), err))
			continue
		}

		r.metrics.GeocodeRequests.WithLabelValues(provider.Name(), "success").Inc()
		r.metrics.GeocodeFallbacks.Observe(float64(i + 1))
		return addr, nil
	}

	return domain.Address{}, fmt.Errorf("all geocode providers failed: %w", errors.Join(errs...))
}

// EnhancedReverseGeocode runs the base resolver, then queries each
// supplementary lookup. Supplementary failures never block the base
// address; failed lookups are simply absent from the payload map.
func (r *Resolver) EnhancedReverseGeocode(ctx context.Context, lat, lon float64) (domain.EnrichedLookupResult, error) {
	addr, err := r.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return domain.EnrichedLookupResult{}, err
	}

	result := domain.EnrichedLookupResult{Address: addr}
	for _, lookup := range r.lookups {
		payload, err := lookup.LookupAddress(ctx, addr)
		if err != nil {
			r.metrics.EnrichmentRequests.WithLabelValues(lookup.Name(), "error").Inc()
			r.logger.Warn("supplementary lookup failed, omitting payload",
				"provider", lookup.Name(),
				"error", err,
			)
			continue
		}
		r.metrics.EnrichmentRequests.WithLabelValues(lookup.Name(), "success").Inc()
		if result.Supplementary == nil {
			result.Supplementary = make(map[string]json.RawMessage)
		}
		result.Supplementary[lookup.Name()] = payload
	}
	return result, nil
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrNoResult):
		return "no_result"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
