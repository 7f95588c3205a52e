package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Address is the normalized result of a reverse-geocode lookup, regardless
// of which provider produced it.
type Address struct {
	FormattedAddress string  `json:"formatted_address"`
	Street           string  `json:"street,omitempty"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	PostalCode       string  `json:"postal_code,omitempty"`
	Country          string  `json:"country,omitempty"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`

	// PlaceID is the provider-specific place identifier, when one exists.
	PlaceID string `json:"place_id,omitempty"`

	// Provider names the provider that produced this address.
	Provider string `json:"provider"`
}

// EnrichedLookupResult pairs an Address with opaque supplementary payloads
// keyed by the lookup provider that produced them. Supplementary data is
// best-effort: the map is empty when every lookup failed.
type EnrichedLookupResult struct {
	Address       Address                    `json:"address"`
	Supplementary map[string]json.RawMessage `json:"supplementary,omitempty"`
}

// GeocodeProvider is the capability every address-lookup provider implements.
type GeocodeProvider interface {
	// Name identifies the provider in logs, metrics, and results.
	Name() string

	// ReverseGeocode converts coordinates to a normalized address.
	ReverseGeocode(ctx context.Context, lat, lon float64) (Address, error)
}

// PropertyLookup is the supplementary people/property enrichment capability
// used by the enhanced lookup path. The returned payload is provider-shaped
// and passed through opaque.
type PropertyLookup interface {
	Name() string
	LookupAddress(ctx context.Context, addr Address) (json.RawMessage, error)
}

// Per-provider geocode error conditions. Every one of them is recoverable at
// the resolver level via fallback to the next provider in the chain.
var (
	// ErrProviderUnavailable means the provider has no credential configured.
	ErrProviderUnavailable = errors.New("geocode provider unavailable")

	// ErrRateLimited means the provider rejected the call due to quota.
	ErrRateLimited = errors.New("geocode provider rate limited")

	// ErrNoResult means the provider answered but found no address.
	ErrNoResult = errors.New("no geocoding result")
)

// ErrInvalidCoordinates is the only error the resolver itself returns: the
// input coordinates are outside [-90,90]/[-180,180] and no provider is tried.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// ValidateCoordinates checks that a coordinate pair is within WGS-84 range.
// NaN is rejected explicitly: it slips past range comparisons.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %g out of [-90,90]", ErrInvalidCoordinates, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %g out of [-180,180]", ErrInvalidCoordinates, lon)
	}
	return nil
}
