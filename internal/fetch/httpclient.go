// Package fetch turns upstream sources into normalized version strings and
// orchestrates fetching them concurrently.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Error variables for HTTP client errors
var (
	// ErrMaxRetriesExceeded is returned when all retry attempts have failed
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrRequestTimeout is returned when a request times out
	ErrRequestTimeout = errors.New("request timeout")
	// ErrBadStatus is returned for non-2xx responses that are not retryable
	ErrBadStatus = errors.New("unexpected HTTP status")
)

// Some download pages serve different markup to obvious bots; the original
// tracker always identified as a desktop browser, and the extraction
// patterns are tuned to what that returns.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int
	// BaseDelay is the initial delay before first retry (default: 1s)
	BaseDelay time.Duration
	// MaxDelay is the maximum delay between retries (default: 4s)
	MaxDelay time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
// Uses exponential backoff with delays of 1s, 2s, 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   4 * time.Second,
	}
}

// HTTPClient performs GET requests with retry logic on behalf of fetchers.
// It injects browser-like default headers and a Bearer token for GitHub
// API requests when a token is configured.
type HTTPClient struct {
	client      *http.Client
	retry       RetryConfig
	userAgent   string
	githubToken string
	// delayFunc allows overriding the backoff sleep for testing
	delayFunc func(time.Duration)
}

// HTTPClientOption is a functional option for configuring HTTPClient
type HTTPClientOption func(*HTTPClient)

// WithRetryConfig overrides the retry behavior
func WithRetryConfig(cfg RetryConfig) HTTPClientOption {
	return func(c *HTTPClient) { c.retry = cfg }
}

// WithUserAgent overrides the default User-Agent header
func WithUserAgent(ua string) HTTPClientOption {
	return func(c *HTTPClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithGitHubToken sets the token attached to api.github.com requests.
// An empty token means unauthenticated rate limits apply.
func WithGitHubToken(token string) HTTPClientOption {
	return func(c *HTTPClient) { c.githubToken = token }
}

// WithTransport sets a custom underlying http.Client (useful for testing)
func WithTransport(client *http.Client) HTTPClientOption {
	return func(c *HTTPClient) { c.client = client }
}

// WithDelayFunc sets a custom delay function (useful for testing)
func WithDelayFunc(fn func(time.Duration)) HTTPClientOption {
	return func(c *HTTPClient) { c.delayFunc = fn }
}

// NewHTTPClient creates a client with the default retry configuration
func NewHTTPClient(opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		client:    &http.Client{},
		retry:     DefaultRetryConfig(),
		userAgent: defaultUserAgent,
		delayFunc: time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetBody performs a GET and returns the response body.
// Network errors and 5xx/429 responses are retried with exponential
// backoff; the caller's context bounds the whole exchange including
// backoff sleeps.
func (c *HTTPClient) GetBody(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return nil, fmt.Errorf("%w: %v", classifyCtxErr(err), lastErr)
			}
			return nil, classifyCtxErr(err)
		}

		if attempt > 0 {
			if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, fmt.Errorf("%w: %v", classifyCtxErr(err), lastErr)
			}
		}

		body, err := c.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
}

func (c *HTTPClient) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")
	if c.githubToken != "" && isGitHubAPIURL(url) {
		req.Header.Set("Authorization", "Bearer "+c.githubToken)
		req.Header.Set("Accept", "application/vnd.github+json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeoutError(err) {
			return nil, fmt.Errorf("%w: %v", ErrRequestTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &statusError{code: resp.StatusCode, url: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// backoff calculates the delay for a given retry attempt:
// baseDelay * 2^(attempt-1), capped at MaxDelay.
func (c *HTTPClient) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := c.retry.BaseDelay * time.Duration(1<<(attempt-1))
	if delay > c.retry.MaxDelay {
		delay = c.retry.MaxDelay
	}
	return delay
}

func (c *HTTPClient) sleep(ctx context.Context, d time.Duration) error {
	if c.delayFunc != nil {
		c.delayFunc(d)
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d from %s", e.code, e.url)
}

func (e *statusError) Unwrap() error {
	return ErrBadStatus
}

// isRetryable reports whether a failed attempt is worth repeating:
// network errors, timeouts, 5xx responses, and rate limiting.
func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// isTimeoutError checks if an error is a timeout error
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	type timeoutError interface {
		Timeout() bool
	}
	var te timeoutError
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}

func classifyCtxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrRequestTimeout
	}
	return err
}

// isGitHubAPIURL checks if a URL is a GitHub API URL
func isGitHubAPIURL(url string) bool {
	return strings.HasPrefix(url, "https://api.github.com/") ||
		strings.HasPrefix(url, "http://api.github.com/")
}
