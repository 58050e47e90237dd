package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/zll123456354/edge-privacy-gateway/internal/logger"
	"go.uber.org/zap"
)

// maxResponseSize bounds how much of an upstream body is read
const maxResponseSize = 1 << 20

var dataURIPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

type recognizeRequest struct {
	Image     string           `json:"image"`
	Configure recognizeOptions `json:"configure"`
}

type recognizeOptions struct {
	Side string `json:"side"`
}

// Client calls the external ID card recognition endpoint
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *logger.Logger
}

// NewClient creates a recognition client. Every call is bounded by timeout.
func NewClient(httpClient *http.Client, timeout time.Duration, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		timeout:    timeout,
		logger:     log,
	}
}

// Recognize sends the image to the upstream and returns the decoded document.
//
// The call is bound to a context deadline, so a timed-out request is cancelled rather
// than left running in the background. Every failure is returned as an error wrapping
// one of the package sentinels; callers are expected to degrade to Fallback.
func (c *Client) Recognize(ctx context.Context, cfg Config, image, side string) (Document, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(recognizeRequest{
		Image:     StripDataURI(image),
		Configure: recognizeOptions{Side: side},
	})
	if err != nil {
		return nil, fmt.Errorf("encode recognition request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build recognition request: %w", err)
	}
	req.Header.Set("Authorization", "APPCODE "+cfg.AppCode)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, c.classify(ctx, err)
	}

	c.logger.Debug("Recognition upstream responded",
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("upstream_duration", time.Since(start)),
		zap.Int("response_size", len(body)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: null body", ErrInvalidResponse)
	}

	return doc, nil
}

func (c *Client) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
	return fmt.Errorf("recognition request failed: %w", err)
}

// StripDataURI removes a leading data:image/<subtype>;base64, prefix from a trimmed image
func StripDataURI(image string) string {
	raw := strings.TrimSpace(image)
	if strings.HasPrefix(raw, "data:image/") {
		return dataURIPrefix.ReplaceAllString(raw, "")
	}
	return raw
}
