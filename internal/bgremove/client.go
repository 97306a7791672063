// Package bgremove talks to a rembg-compatible background removal service.
package bgremove

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrUnavailable = errors.New("background removal service is not configured")

const maxResponseBytes = 64 << 20

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client posts the raw image to Endpoint and expects a PNG with an alpha
// channel in return.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimSpace(cfg.Endpoint),
	}
}

func (c *Client) RemoveBackground(ctx context.Context, input []byte) ([]byte, error) {
	if c == nil || c.endpoint == "" {
		return nil, ErrUnavailable
	}
	if len(input) == 0 {
		return nil, errors.New("remove background: input is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("build background removal request: %w", err)
	}
	req.Header.Set("Content-Type", http.DetectContentType(input))
	req.Header.Set("Accept", "image/png")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("background removal request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read background removal response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("background removal returned status=%d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if len(body) == 0 {
		return nil, errors.New("background removal returned an empty body")
	}
	return body, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
