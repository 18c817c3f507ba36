// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages: request pacing
// and a bounded linear retry loop.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultMaxAttempts = 3
	snippetLimit       = 512
)

// StatusError reports a non-2xx response that was not retried further. Body
// holds the start of the response body.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

// Client wraps an *http.Client with pacing, a User-Agent header and a
// bounded retry loop. The zero Pacer means no pacing.
type Client struct {
	HTTP        *http.Client
	Pacer       *Pacer
	UserAgent   string
	MaxAttempts int
	RetryDelay  time.Duration
	Log         logrus.FieldLogger
}

// retryable reports whether a status code is worth another attempt.
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Do sends req once, paced, without retrying. Non-2xx responses are returned
// as-is; the caller owns the body.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.Pacer.Wait(ctx); err != nil {
		return nil, err
	}
	req = req.Clone(ctx)
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return c.httpClient().Do(req)
}

// DoWithRetry executes a bodiless request and retries on transport errors,
// HTTP 429 and 5xx with a fixed delay between attempts. At most MaxAttempts
// requests are sent (default 3). A final non-2xx response is closed and
// reported as *StatusError. If the context is cancelled during a wait the
// function returns ctx.Err().
func (c *Client) DoWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	delay := c.RetryDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.Do(ctx, req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		default:
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, snippetLimit))
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = &StatusError{Code: resp.StatusCode, URL: req.URL.String(), Body: string(snippet)}
			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
		}

		if attempt == attempts {
			break
		}
		c.logger().WithField("url", req.URL.String()).
			Warnf("request failed (%v), retrying in %v (attempt %d/%d)", lastErr, delay, attempt, attempts)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// Get fetches url with retries and returns the open response.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.DoWithRetry(ctx, req)
}

// GetBody fetches url with retries and returns the whole body.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Log != nil {
		return c.Log
	}
	return logrus.StandardLogger()
}
