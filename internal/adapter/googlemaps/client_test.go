package googlemaps

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormbuster/hailrisk/internal/domain"
)

const testKey = "test-api-key"

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

const dallasResponse = `{
	"status": "OK",
	"results": [{
		"formatted_address": "100 Main St, Dallas, TX 75201, USA",
		"place_id": "ChIJS5dFe_cZTIYRj2dH9qSb7Lk",
		"address_components": [
			{"long_name": "100", "short_name": "100", "types": ["street_number"]},
			{"long_name": "Main Street", "short_name": "Main St", "types": ["route"]},
			{"long_name": "Dallas", "short_name": "Dallas", "types": ["locality", "political"]},
			{"long_name": "Texas", "short_name": "TX", "types": ["administrative_area_level_1", "political"]},
			{"long_name": "75201", "short_name": "75201", "types": ["postal_code"]},
			{"long_name": "United States", "short_name": "US", "types": ["country", "political"]}
		]
	}]
}`

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "32.776700,-96.797000", r.URL.Query().Get("latlng"))
		assert.Equal(t, testKey, r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(dallasResponse))
	}))
	defer srv.Close()

	addr, err := testClient(srv.URL).ReverseGeocode(context.Background(), 32.7767, -96.7970)
	require.NoError(t, err)

	assert.Equal(t, "100 Main St, Dallas, TX 75201, USA", addr.FormattedAddress)
	assert.Equal(t, "100 Main Street", addr.Street)
	assert.Equal(t, "Dallas", addr.City)
	assert.Equal(t, "TX", addr.State)
	assert.Equal(t, "75201", addr.PostalCode)
	assert.Equal(t, "United States", addr.Country)
	assert.Equal(t, "ChIJS5dFe_cZTIYRj2dH9qSb7Lk", addr.PlaceID)
	assert.Equal(t, ProviderName, addr.Provider)
}

func TestReverseGeocode_NoKey(t *testing.T) {
	c := testClient("http://unused.invalid")
	c.apiKey = ""

	_, err := c.ReverseGeocode(context.Background(), 32.7767, -96.7970)

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestReverseGeocode_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ReverseGeocode(context.Background(), 0, 0)

	assert.ErrorIs(t, err, domain.ErrNoResult)
}

func TestReverseGeocode_OverQueryLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","results":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ReverseGeocode(context.Background(), 32.7767, -96.7970)

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestReverseGeocode_RequestDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ReverseGeocode(context.Background(), 32.7767, -96.7970)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.Contains(t, err.Error(), "API key is invalid")
}

func TestReverseGeocode_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ReverseGeocode(context.Background(), 32.7767, -96.7970)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
