// Package clients provides a retrying HTTP client for upstream APIs.
package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

const maxBodyBytes = 32 << 20

// Response is a fully read HTTP response. Reading the body inside each
// attempt means retried responses never leak connections.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// RetryConfig configures retry behavior for upstream calls.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig returns the retry settings used for third party APIs.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
	}
}

// ShouldRetry retries network errors, 5xx and 429 responses.
func ShouldRetry(resp *Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

// NewRetryPolicy builds the failsafe policy for cfg.
func NewRetryPolicy(cfg RetryConfig) retrypolicy.RetryPolicy[*Response] {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	return retrypolicy.NewBuilder[*Response]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(ShouldRetry).
		Build()
}

// HTTP executes requests through a retry policy.
type HTTP struct {
	client   *http.Client
	executor failsafe.Executor[*Response]
}

// NewHTTP wraps client. A nil client gets a 30 second timeout.
func NewHTTP(client *http.Client, cfg RetryConfig) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTP{client: client, executor: failsafe.With(NewRetryPolicy(cfg))}
}

// Do sends the request built by build, retrying on transient failures.
// When retries run out on a bad status the last response is returned
// without an error so callers can report it.
func (h *HTTP) Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	var (
		last    *Response
		lastErr error
	)
	resp, err := h.executor.WithContext(ctx).Get(func() (*Response, error) {
		last, lastErr = h.attempt(ctx, build)
		return last, lastErr
	})
	if err != nil {
		if lastErr == nil && last != nil {
			return last, nil
		}
		return nil, err
	}
	return resp, nil
}

func (h *HTTP) attempt(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}
