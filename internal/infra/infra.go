// Package infra provides shared infrastructure components used across
// the application: the rate-limited HTTP client and upstream errors.
package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRateLimit is the EDGAR fair-access ceiling in requests per second.
const DefaultRateLimit = 10

// ErrUpstreamUnavailable matches every UpstreamError via errors.Is.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// UpstreamError reports a failed request to a remote data source: a
// transport failure, a non-2xx status, or an undecodable body.
type UpstreamError struct {
	URL    string
	Status int // 0 when no response was received
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUpstreamUnavailable) match any UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// NewUpstreamError wraps err for url. A nil err yields nil.
func NewUpstreamError(url string, status int, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{URL: url, Status: status, Err: err}
}

// Doer performs HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// --- HTTP client ---

// HTTPClient issues GET requests through a shared token-bucket limiter so
// concurrent callers stay within the upstream's request budget.
type HTTPClient struct {
	doer    Doer
	limiter *rate.Limiter
	headers map[string]string
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithDoer replaces the underlying transport, mostly for tests.
func WithDoer(d Doer) ClientOption {
	return func(c *HTTPClient) { c.doer = d }
}

// WithTimeout sets the per-request timeout of the default transport.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.doer = &http.Client{Timeout: d} }
}

// WithRateLimit caps outgoing requests per second. Zero or negative
// disables limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *HTTPClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := max(int(perSecond), 1)
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) ClientOption {
	return func(c *HTTPClient) { c.headers[key] = value }
}

// NewHTTPClient creates a client with a 30s timeout and the default rate limit.
func NewHTTPClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		doer:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(DefaultRateLimit, DefaultRateLimit),
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DoGet performs a GET and returns the open body with the status code.
// Any failure, including a non-2xx status, is an *UpstreamError; the caller
// closes the body only on success.
func (c *HTTPClient) DoGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create GET request for %q: %w", url, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("rate limit GET %s: %w", url, err)
		}
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, 0, NewUpstreamError(url, 0, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, resp.StatusCode, NewUpstreamError(url, resp.StatusCode,
			fmt.Errorf("unexpected status %s: %s", resp.Status, snippet))
	}

	return resp.Body, resp.StatusCode, nil
}

// GetBytes performs a GET and reads the whole body.
func (c *HTTPClient) GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	body, status, err := c.DoGet(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, NewUpstreamError(url, status, fmt.Errorf("read body: %w", err))
	}
	return data, nil
}
