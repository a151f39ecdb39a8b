// Package callback sends JSON payloads to the platform's status and deploy
// endpoints.
package callback

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

	"github.com/hashicorp/go-cleanhttp"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}

	return msg
}

// Client posts JSON payloads. It never retries.
type Client struct {
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a Client whose requests are bounded by timeout. A nil
// logger uses slog.Default().
func New(timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http:    cleanhttp.DefaultClient(),
		timeout: timeout,
		logger:  logger,
	}
}

// SendJSON sends payload to url with method. A non-empty token is sent as a
// bearer token.
func (c *Client) SendJSON(ctx context.Context, method, url, token string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("sending callback", "method", method, "url", url)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return &StatusError{
			Method: method,
			URL:    url,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("callback accepted", "url", url, "status", resp.StatusCode)

	return nil
}
