// Package spokeo implements domain.PropertyLookup using the Spokeo address
// search API. Like the other lookup providers the payload is passed through
// opaque and keyed by provider name in enriched results.
package spokeo

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

// ProviderName keys this lookup's payload in enriched results.
const ProviderName = "spokeo"

// Client implements domain.PropertyLookup against the Spokeo search API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Spokeo lookup client. An empty key produces a client
// that reports ErrProviderUnavailable on every call.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.spokeo.com/v1",
		logger:  logger,
	}
}

func (c *Client) Name() string { return ProviderName }

// LookupAddress fetches resident and contact data for an address. Spokeo
// searches on a single free-form query string, so the address is flattened
// to "street, city, state zip" before dispatch.
func (c *Client) LookupAddress(ctx context.Context, addr domain.Address) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: no spokeo key configured", domain.ErrProviderUnavailable)
	}

	params := url.Values{
		"q":        {searchQuery(addr)},
		"category": {"address"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("address search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("spokeo API error: status %d: %s", resp.StatusCode, body)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("spokeo API returned invalid JSON")
	}
	return payload, nil
}

// searchQuery flattens an address into Spokeo's "street, city, state zip"
// search form, omitting whichever parts are missing.
func searchQuery(addr domain.Address) string {
	var parts []string
	if addr.Street != "" {
		parts = append(parts, addr.Street)
	}
	if addr.City != "" {
		parts = append(parts, addr.City)
	}
	region := strings.TrimSpace(addr.State + " " + addr.PostalCode)
	if region != "" {
		parts = append(parts, region)
	}
	return strings.Join(parts, ", ")
}
