package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/cesargomez89/nowplaying/internal/constants"
)

// Client wraps an http.Client to provide request pacing and retries of
// transient failures. 429 responses are handed back to the caller untouched
// so it can apply its own backoff policy.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retries    int
	retryBase  time.Duration
}

// NewClient creates a paced, retrying HTTP client. A non-positive rps
// disables pacing.
func NewClient(httpClient *http.Client, rps float64) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
		retries:    constants.DefaultRetryCount,
		retryBase:  constants.DefaultRetryBase,
	}
}

// WithRetries overrides the attempt count and linear backoff step.
func (c *Client) WithRetries(attempts int, base time.Duration) *Client {
	c.retries = max(attempts, 1)
	c.retryBase = base
	return c
}

// Do executes an HTTP request with pacing and retries.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		case resp.StatusCode == http.StatusServiceUnavailable:
			wait := RetryAfter(resp)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("service unavailable (status %d)", resp.StatusCode)
			if attempt+1 < c.retries && !c.sleep(ctx, max(wait, c.backoff(attempt))) {
				return nil, ctx.Err()
			}
			continue
		default:
			return resp, nil
		}

		if attempt+1 < c.retries && !c.sleep(ctx, c.backoff(attempt)) {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Client) backoff(attempt int) time.Duration {
	return time.Duration(attempt+1) * c.retryBase
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// GetUnderlyingClient returns the underlying *http.Client.
func (c *Client) GetUnderlyingClient() *http.Client {
	return c.httpClient
}

// RetryAfter reads a Retry-After header and returns the duration to wait.
func RetryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		return time.Until(t)
	}
	return 0
}
