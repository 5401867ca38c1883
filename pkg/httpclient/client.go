// Package httpclient wraps outbound HTTP with logging, size limits, bounded
// retry, per-domain rate limiting and a per-run response cache.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/metrics"
	"github.com/Ramsey-B/banyan/pkg/normalizers"
	"github.com/Ramsey-B/banyan/pkg/ratelimit"
)

const (
	// DefaultTimeout is the default request timeout
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum response body size (10MB)
	MaxResponseSize = 10 * 1024 * 1024

	// defaultBackoff is the initial retry delay, doubled per attempt
	defaultBackoff = 500 * time.Millisecond

	// maxBackoff caps the retry delay regardless of Retry-After hints
	maxBackoff = 30 * time.Second
)

// Config holds HTTP client configuration
type Config struct {
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
	MaxRetries      int
	UserAgent       string
}

// DefaultConfig returns default HTTP client configuration
func DefaultConfig() Config {
	return Config{
		Timeout:         DefaultTimeout,
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
		MaxRetries:      3,
	}
}

// Client wraps the HTTP client with retry, rate limiting and caching
type Client struct {
	client     *http.Client
	logger     *zap.Logger
	limiter    *ratelimit.Limiter
	cache      *Cache
	maxRetries int
	userAgent  string
}

// NewClient creates a new HTTP client. Limiter and cache may be nil to
// disable rate limiting or caching.
func NewClient(cfg Config, logger *zap.Logger, limiter *ratelimit.Limiter, cache *Cache) *Client {
	transport := &http.Transport{
		MaxIdleConns:    cfg.MaxIdleConns,
		IdleConnTimeout: cfg.IdleConnTimeout,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger:     logger,
		limiter:    limiter,
		cache:      cache,
		maxRetries: cfg.MaxRetries,
		userAgent:  cfg.UserAgent,
	}
}

// Response represents an HTTP response
type Response struct {
	StatusCode    int
	Headers       http.Header
	Body          []byte
	ContentType   string
	ContentLength int64
	Duration      time.Duration
}

// IsNotFound reports a permanent-for-this-resource miss (404 or 403).
// Callers treat these as empty results, never as retryable failures.
func (r *Response) IsNotFound() bool {
	return r.StatusCode == http.StatusNotFound || r.StatusCode == http.StatusForbidden
}

// Get performs a GET request with caching, rate limiting and retry
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	if cached := c.cache.Get(rawURL); cached != nil {
		metrics.HTTPCacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.HTTPCacheHits.WithLabelValues("miss").Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		c.cache.Set(rawURL, resp)
	}
	return resp, nil
}

// Do executes a request, retrying transient failures (network errors, 5xx,
// 429) with bounded exponential backoff and honoring a Retry-After hint when
// the server provides one. Permanent statuses (404, 403) return immediately
// without retry.
func (c *Client) Do(ctx context.Context, req *http.Request) (*Response, error) {
	domain := normalizers.DomainOf(req.URL.String())

	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var lastErr error
	backoff := defaultBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			backoff = min(backoff*2, maxBackoff)
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, domain); err != nil {
				return nil, err
			}
		}

		resp, err := c.do(ctx, req)
		if err != nil {
			lastErr = err
			c.logger.Debug("request failed, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		if isTransientStatus(resp.StatusCode) && attempt < c.maxRetries {
			if hint := retryAfterHint(resp.Headers); hint > 0 {
				backoff = min(hint, maxBackoff)
			}
			lastErr = fmt.Errorf("transient status %d from %s", resp.StatusCode, req.URL.Host)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, req *http.Request) (*Response, error) {
	start := time.Now()

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	metrics.HTTPRequestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(req.Method).Observe(duration.Seconds())

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response too large: %d bytes (max %d)", resp.ContentLength, MaxResponseSize)
	}

	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response body too large: %d bytes (max %d)", len(body), MaxResponseSize)
	}

	c.logger.Debug("outbound request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration))

	return &Response{
		StatusCode:    resp.StatusCode,
		Headers:       resp.Header,
		Body:          body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: int64(len(body)),
		Duration:      duration,
	}, nil
}

func isTransientStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// retryAfterHint parses a Retry-After header as delay seconds or HTTP date
func retryAfterHint(headers http.Header) time.Duration {
	value := headers.Get("Retry-After")
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
