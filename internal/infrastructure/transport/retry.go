package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"SearchScorer/internal/domain"
)

const (
	DefaultMaxRetries = 3
	defaultTimeout    = 20 * time.Second
	maxBodyBytes      = 4 << 20
)

// ErrResponseTooLarge reports a response body above the client's limit.
var ErrResponseTooLarge = errors.New("response too large")

// Request describes one outbound call; it is rebuilt for every attempt.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client sends requests with exponential backoff on 429 and network faults.
// Other statuses are returned unchanged for the caller to interpret.
type Client struct {
	http       *http.Client
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
	maxBody    int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithMaxRetries sets the total number of attempts.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithSleep overrides how backoff waits are performed.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithMaxBodyBytes bounds how much of a response body is accepted.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient builds a retrying client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: defaultTimeout},
		maxRetries: DefaultMaxRetries,
		sleep:      sleepContext,
		maxBody:    maxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backoff is the wait after a failed attempt: 1s, 2s, 4s, ...
func Backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// Send performs the request. It fails with domain.ErrRateLimited when every
// attempt got 429 and with domain.ErrTransport when every attempt failed at the
// network level. Cancellation is returned immediately.
func (c *Client) Send(ctx context.Context, call Request) (*Response, error) {
	if _, err := http.NewRequestWithContext(ctx, methodOf(call), call.URL, nil); err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		resp, err := c.do(ctx, call)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrResponseTooLarge) {
				return nil, err
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrTransport, err)
			c.warn("request failed", "attempt", attempt+1, "max_retries", c.maxRetries, "error", err)
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w after %d attempts", domain.ErrRateLimited, attempt+1)
			c.warn("rate limited", "attempt", attempt+1, "max_retries", c.maxRetries)
		default:
			return resp, nil
		}

		if attempt == c.maxRetries-1 {
			break
		}
		if err := c.sleep(ctx, Backoff(attempt)); err != nil {
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no attempts made", domain.ErrTransport)
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, call Request) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, methodOf(call), call.URL, bytes.NewReader(call.Body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for key, values := range call.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: status %d, body exceeds %d bytes", ErrResponseTooLarge, resp.StatusCode, c.maxBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func methodOf(call Request) string {
	if call.Method == "" {
		return http.MethodPost
	}
	return call.Method
}

func (c *Client) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
