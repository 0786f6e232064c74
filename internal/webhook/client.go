package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/zinc-sig/robotharness/internal/logging"
)

// Client delivers JSON payloads to a webhook endpoint
type Client struct {
	httpClient  *http.Client
	config      *Config
	retryConfig *RetryConfig
	verbose     bool
	out         io.Writer
	clock       clock.Clock
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces the clock used to wait between retries.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// WithOutput redirects the verbose [WEBHOOK] lines. Defaults to os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(c *Client) { c.out = w }
}

// requestTimeout bounds a single attempt; Config.Timeout bounds them all.
const requestTimeout = 10 * time.Second

// NewClient fills in the method, timeout and retry defaults of an unset
// config and applies opts.
func NewClient(config *Config, retryConfig *RetryConfig, verbose bool, opts ...Option) *Client {
	if config.Method == "" {
		config.Method = http.MethodPost
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		config:      config,
		retryConfig: retryConfig,
		verbose:     verbose,
		out:         os.Stderr,
		clock:       clock.NewClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) printf(format string, args ...any) {
	if c.verbose {
		fmt.Fprintf(c.out, "[WEBHOOK] "+format+"\n", args...)
	}
}

// Send posts payload as JSON. Transport errors and retryable statuses are
// retried with backoff until MaxRetries or the overall timeout runs out.
func (c *Client) Send(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	attempts := c.retryConfig.MaxRetries + 1
	var lastErr error
	for n := 1; n <= attempts; n++ {
		if n > 1 {
			if err := c.backoff(ctx, n-1); err != nil {
				return fmt.Errorf("webhook timeout after %d attempts: %w", n-1, err)
			}
		}

		retry, err := c.deliver(ctx, body, n)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}
	return fmt.Errorf("webhook failed after %d attempts: %w", attempts, lastErr)
}

// backoff waits before the given retry.
func (c *Client) backoff(ctx context.Context, retry int) error {
	delay := calculateBackoff(retry, c.retryConfig)
	c.printf("Retry %d/%d after %v", retry, c.retryConfig.MaxRetries, delay)

	select {
	case <-c.clock.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliver makes attempt n. retry reports whether a failed attempt may
// succeed when repeated.
func (c *Client) deliver(ctx context.Context, body []byte, n int) (retry bool, err error) {
	status, err := c.post(ctx, body)
	logging.Logger.Debug("webhook attempt", "url", c.config.URL, "attempt", n, "status", status, "error", err)

	switch {
	case err != nil:
		return true, fmt.Errorf("attempt %d failed: %w", n, err)
	case status >= 200 && status < 300:
		c.printf("Successfully sent (status: %d)", status)
		return false, nil
	case isRetryableStatus(status):
		return true, fmt.Errorf("attempt %d failed with status %d", n, status)
	default:
		c.printf("Non-retryable status %d, giving up", status)
		return false, fmt.Errorf("attempt %d failed with status %d", n, status)
	}
}

func (c *Client) post(ctx context.Context, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, c.config.Method, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	if token := c.config.AuthToken; token != "" {
		switch c.config.AuthType {
		case AuthBearer:
			req.Header.Set("Authorization", "Bearer "+token)
		case AuthAPIKey:
			req.Header.Set("X-API-Key", token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Drained bodies let the transport reuse the connection
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
