package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apex/log"
)

// ClassificationResult is the classifier's answer for a report image
type ClassificationResult struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
}

// UrgencyResult is the urgency detector's answer for a report
type UrgencyResult struct {
	Urgency    string  `json:"urgency"`
	Confidence float64 `json:"confidence"`
}

// Fallbacks returned when the AI backend is unavailable or responds with
// garbage. Neutral values at confidence 0.5 never pass the escalation gate.
var (
	FallbackClassification = ClassificationResult{Classification: "unclassified", Confidence: 0.5}
	FallbackUrgency        = UrgencyResult{Urgency: "medium", Confidence: 0.5}
)

// Client is the AI backend contract. Implementations are fail-soft: they
// never return an error, resolving any transport or parsing failure to the
// documented fallback values.
type Client interface {
	Classify(ctx context.Context, imageURL string) ClassificationResult
	DetectUrgency(ctx context.Context, text, imageURL string) UrgencyResult
}

const (
	maxAttempts  = 3
	retryBackoff = 500 * time.Millisecond
)

// HTTPClient calls the analysis API over HTTP with a bounded timeout and a
// small retry budget.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPClient) Classify(ctx context.Context, imageURL string) ClassificationResult {
	var result ClassificationResult
	payload := map[string]string{"image_url": imageURL}
	if err := c.post(ctx, "/api/v1/classify", payload, &result); err != nil {
		log.WithError(err).Warn("classification failed, using fallback")
		return FallbackClassification
	}
	if result.Classification == "" {
		log.Warn("classification response missing classification, using fallback")
		return FallbackClassification
	}
	return result
}

func (c *HTTPClient) DetectUrgency(ctx context.Context, text, imageURL string) UrgencyResult {
	var result UrgencyResult
	payload := map[string]string{"text": text, "image_url": imageURL}
	if err := c.post(ctx, "/api/v1/urgency", payload, &result); err != nil {
		log.WithError(err).Warn("urgency detection failed, using fallback")
		return FallbackUrgency
	}
	if result.Urgency == "" {
		log.Warn("urgency response missing urgency, using fallback")
		return FallbackUrgency
	}
	return result
}

// post sends the request with retries. Exhausting the retry budget returns
// the last error; callers translate that into a fallback result.
func (c *HTTPClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt-1)):
			}
		}

		lastErr = c.doOnce(ctx, path, requestBody, out)
		if lastErr == nil {
			return nil
		}
		log.WithError(lastErr).WithField("attempt", attempt).Debug("analysis API call failed")
	}

	return lastErr
}

func (c *HTTPClient) doOnce(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("analysis API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
