// Package whitepages implements domain.PropertyLookup using the Whitepages
// Pro reverse-address API. Payloads are passed through opaque: the enhanced
// lookup path stores them unparsed per provider.
package whitepages

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

// ProviderName keys this lookup's payload in enriched results.
const ProviderName = "whitepages"

// Client implements domain.PropertyLookup against the Whitepages Pro API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Whitepages lookup client. An empty key produces a
// client that reports ErrProviderUnavailable on every call.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://proapi.whitepages.com/v3",
		logger:  logger,
	}
}

func (c *Client) Name() string { return ProviderName }

// LookupAddress fetches property-owner data for an address. The returned
// payload is the provider's raw JSON response.
func (c *Client) LookupAddress(ctx context.Context, addr domain.Address) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: no whitepages key configured", domain.ErrProviderUnavailable)
	}

	street := addr.Street
	if street == "" {
		street = addr.City
	}
	params := url.Values{
		"address": {street},
		"city":    {addr.City},
		"state":   {addr.State},
	}
	if addr.PostalCode != "" {
		params.Set("zipcode", addr.PostalCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse_address?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse address lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("whitepages API error: status %d: %s", resp.StatusCode, body)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("whitepages API returned invalid JSON")
	}
	return payload, nil
}
