// Package openai implements domain.Narrator using an OpenAI-compatible
// chat-completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stormbuster/hailrisk/internal/domain"
	"github.com/stormbuster/hailrisk/internal/observability"
)

const systemPrompt = "You are a hail damage risk analyst writing for homeowners and " +
	"roofing contractors. Given hail statistics for a zipcode, write a short factual " +
	"narrative (2-3 sentences) followed by recommendations, one per line, each " +
	"starting with \"- \"."

// Client implements domain.Narrator against a chat-completions endpoint.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a narrative client. An empty key produces a client that
// fails every call, which the recommendation engine absorbs by falling back
// to rules; callers normally pass a nil Narrator instead when unconfigured.
func NewClient(apiKey, model string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.openai.com/v1",
		logger:  logger,
		metrics: metrics,
	}
}

// Narrate asks the model for a narrative and recommendation list.
func (c *Client) Narrate(ctx context.Context, level domain.RiskLevel, stats domain.EventStats) (domain.Narrative, error) {
	n, err := c.narrate(ctx, level, stats)
	if err != nil {
		c.metrics.NarrativeRequests.WithLabelValues("error").Inc()
		return domain.Narrative{}, err
	}
	c.metrics.NarrativeRequests.WithLabelValues("success").Inc()
	return n, nil
}

func (c *Client) narrate(ctx context.Context, level domain.RiskLevel, stats domain.EventStats) (domain.Narrative, error) {
	if c.apiKey == "" {
		return domain.Narrative{}, fmt.Errorf("%w: no API key configured", domain.ErrProviderUnavailable)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(level, stats)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return domain.Narrative{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return domain.Narrative{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Narrative{}, fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.Narrative{}, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return domain.Narrative{}, fmt.Errorf("chat completion API error: status %d: %s", resp.StatusCode, raw)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return domain.Narrative{}, fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return domain.Narrative{}, fmt.Errorf("chat completion returned no choices")
	}

	return parseNarrative(chatResp.Choices[0].Message.Content), nil
}

func userPrompt(level domain.RiskLevel, stats domain.EventStats) string {
	size := "unknown"
	if stats.AvgMagnitude != nil {
		size = fmt.Sprintf("%.2f inches (max %.2f)", *stats.AvgMagnitude, stats.MaxMagnitude)
	}
	return fmt.Sprintf("Risk level: %s. Hail events on record: %d. Average hail size: %s.",
		level, stats.Frequency, size)
}

// parseNarrative splits the model output into narrative text and "- "
// bullet recommendations.
func parseNarrative(content string) domain.Narrative {
	var n domain.Narrative
	var textLines []string

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") {
			if rec := strings.TrimSpace(strings.TrimPrefix(trimmed, "-")); rec != "" {
				n.Recommendations = append(n.Recommendations, rec)
			}
			continue
		}
		if trimmed != "" {
			textLines = append(textLines, trimmed)
		}
	}

	n.Text = strings.Join(textLines, " ")
	return n
}

// Chat-completions wire types.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
