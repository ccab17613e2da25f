package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/er-ebrahimi/architecture-ai/internal/acquirer"
	"github.com/er-ebrahimi/architecture-ai/internal/entity"
	"github.com/er-ebrahimi/architecture-ai/pkg/metrics"
)

const defaultAttemptTimeout = 30 * time.Second

// Extractor turns image bytes into validated ImageFeatures via an external
// vision-capable model. It is stateless; the provider list is supplied per
// call so callers can reorder providers for cost/quality tradeoffs.
type Extractor struct {
	client *http.Client
}

// NewExtractor creates an Extractor. Per-attempt timeouts come from each
// ProviderConfig, so the shared client carries none.
func NewExtractor() *Extractor {
	return &Extractor{client: &http.Client{}}
}

// chat-completions wire types, OpenAI-compatible.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract tries each provider in the given order and returns the first
// result that both parses and validates. Failed attempts (transport errors,
// non-2xx statuses, unparseable or schema-violating responses) are recorded
// and the next provider is consulted; once one provider succeeds, later ones
// are never contacted. When every provider fails, the returned error is an
// *AllProvidersError carrying the ordered per-provider causes.
func (e *Extractor) Extract(ctx context.Context, img *acquirer.Image, providers []ProviderConfig) (entity.ImageFeatures, error) {
	var attempts []*ProviderError

	for _, p := range providers {
		start := time.Now()
		features, err := e.attempt(ctx, img, p)
		metrics.ExtractionDuration.WithLabelValues(p.Name).Observe(time.Since(start).Seconds())

		if err == nil {
			metrics.ExtractionAttemptsTotal.WithLabelValues(p.Name, "success").Inc()
			return features, nil
		}

		metrics.ExtractionAttemptsTotal.WithLabelValues(p.Name, "failure").Inc()
		slog.Warn("Provider attempt failed, falling back",
			"provider", p.Name, "model", p.Model, "error", err)
		attempts = append(attempts, &ProviderError{Provider: p.Name, Model: p.Model, Err: err})

		// A caller-level cancellation aborts the whole fallback chain; a
		// per-attempt timeout only moves on to the next provider.
		if ctx.Err() != nil {
			return entity.ImageFeatures{}, ctx.Err()
		}
	}

	return entity.ImageFeatures{}, &AllProvidersError{Attempts: attempts}
}

// attempt performs one request against one provider.
func (e *Extractor) attempt(ctx context.Context, img *acquirer.Image, p ProviderConfig) (entity.ImageFeatures, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		img.ContentType, base64.StdEncoding.EncodeToString(img.Bytes))

	reqBody := chatRequest{
		Model: p.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: analysisPrompt()},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL, Detail: "high"}},
			},
		}},
		MaxTokens:   1000,
		Temperature: 0.1,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return entity.ImageFeatures{}, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(p.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return entity.ImageFeatures{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return entity.ImageFeatures{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return entity.ImageFeatures{}, fmt.Errorf("unexpected status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return entity.ImageFeatures{}, fmt.Errorf("decoding response envelope: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return entity.ImageFeatures{}, fmt.Errorf("%w: response has no choices", ErrNoJSONObject)
	}

	return parseFeatures(chatResp.Choices[0].Message.Content)
}
