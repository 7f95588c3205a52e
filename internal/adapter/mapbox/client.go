// Package mapbox implements domain.GeocodeProvider using the Mapbox
// Geocoding API.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stormbuster/hailrisk/internal/domain"
)

// ProviderName identifies this provider in configuration, logs, and results.
const ProviderName = "mapbox"

// Client implements domain.GeocodeProvider using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client. An empty token produces a
// client that reports ErrProviderUnavailable on every call.
func NewClient(token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		logger:  logger,
	}
}

func (c *Client) Name() string { return ProviderName }

// ReverseGeocode converts coordinates to a normalized address.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Address, error) {
	if c.token == "" {
		return domain.Address{}, fmt.Errorf("%w: no mapbox token configured", domain.ErrProviderUnavailable)
	}

	// Mapbox uses lon,lat order.
	coord := fmt.Sprintf("%.6f,%.6f", lon, lat)
	u := fmt.Sprintf("%s/%s.json", c.baseURL, coord)
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"address,place"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Address{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Address{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.Address{}, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Address{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.Address{}, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 {
		return domain.Address{}, domain.ErrNoResult
	}

	return normalizeFeature(mapboxResp.Features[0], lat, lon), nil
}

// normalizeFeature maps a Mapbox feature and its context entries onto the
// unified address shape. Context IDs are prefixed by kind, e.g.
// "postcode.123", "place.456", "region.789".
func normalizeFeature(f feature, lat, lon float64) domain.Address {
	addr := domain.Address{
		FormattedAddress: f.PlaceName,
		Lat:              lat,
		Lon:              lon,
		PlaceID:          f.ID,
		Provider:         ProviderName,
	}

	if strings.HasPrefix(f.ID, "address.") {
		street := f.Text
		if f.Address != "" {
			street = f.Address + " " + f.Text
		}
		addr.Street = street
	} else if strings.HasPrefix(f.ID, "place.") {
		addr.City = f.Text
	}

	for _, c := range f.Context {
		switch kind := strings.SplitN(c.ID, ".", 2)[0]; kind {
		case "postcode":
			addr.PostalCode = c.Text
		case "place":
			addr.City = c.Text
		case "region":
			if c.ShortCode != "" {
				addr.State = strings.TrimPrefix(strings.ToUpper(c.ShortCode), "US-")
			} else {
				addr.State = c.Text
			}
		case "country":
			addr.Country = c.Text
		}
	}
	return addr
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID        string         `json:"id"`
	Center    []float64      `json:"center"` // [lon, lat]
	PlaceName string         `json:"place_name"`
	Text      string         `json:"text"`
	Address   string         `json:"address"` // house number for address features
	Relevance float64        `json:"relevance"`
	Context   []contextEntry `json:"context"`
}

type contextEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ShortCode string `json:"short_code"`
}
