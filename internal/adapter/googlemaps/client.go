// Package googlemaps implements domain.GeocodeProvider using the Google
// Geocoding API.
package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/stormbuster/hailrisk/internal/domain"
)

// ProviderName identifies this provider in configuration, logs, and results.
const ProviderName = "googlemaps"

// Client implements domain.GeocodeProvider using the Google Geocoding API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Google geocoding client. An empty key produces a
// client that reports ErrProviderUnavailable on every call.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://maps.googleapis.com/maps/api/geocode/json",
		logger:  logger,
	}
}

func (c *Client) Name() string { return ProviderName }

// ReverseGeocode converts coordinates to a normalized address.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Address, error) {
	if c.apiKey == "" {
		return domain.Address{}, fmt.Errorf("%w: no google maps key configured", domain.ErrProviderUnavailable)
	}

	params := url.Values{
		"latlng": {fmt.Sprintf("%.6f,%.6f", lat, lon)},
		"key":    {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Address{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Address{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Address{}, fmt.Errorf("google geocoding API error: status %d: %s", resp.StatusCode, body)
	}

	var googleResp response
	if err := json.NewDecoder(resp.Body).Decode(&googleResp); err != nil {
		return domain.Address{}, fmt.Errorf("decode response: %w", err)
	}

	// Google signals errors through the body status, not HTTP codes.
	switch googleResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return domain.Address{}, domain.ErrNoResult
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT", "RESOURCE_EXHAUSTED":
		return domain.Address{}, domain.ErrRateLimited
	default:
		return domain.Address{}, fmt.Errorf("google geocoding status %s: %s", googleResp.Status, googleResp.ErrorMessage)
	}

	if len(googleResp.Results) == 0 {
		return domain.Address{}, domain.ErrNoResult
	}

	return normalizeResult(googleResp.Results[0], lat, lon), nil
}

// normalizeResult maps a Google result's address components onto the unified
// address shape.
func normalizeResult(r result, lat, lon float64) domain.Address {
	addr := domain.Address{
		FormattedAddress: r.FormattedAddress,
		Lat:              lat,
		Lon:              lon,
		PlaceID:          r.PlaceID,
		Provider:         ProviderName,
	}

	var streetNumber, route string
	for _, comp := range r.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "street_number":
				streetNumber = comp.LongName
			case "route":
				route = comp.LongName
			case "locality":
				addr.City = comp.LongName
			case "administrative_area_level_1":
				addr.State = comp.ShortName
			case "postal_code":
				addr.PostalCode = comp.LongName
			case "country":
				addr.Country = comp.LongName
			}
		}
	}

	if route != "" {
		addr.Street = route
		if streetNumber != "" {
			addr.Street = streetNumber + " " + route
		}
	}
	return addr
}

// Google Geocoding API response types.

type response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []result `json:"results"`
}

type result struct {
	FormattedAddress  string      `json:"formatted_address"`
	PlaceID           string      `json:"place_id"`
	AddressComponents []component `json:"address_components"`
}

type component struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}
