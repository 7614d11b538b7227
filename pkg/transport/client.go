// Package transport wraps net/http with the limits every outbound call in
// pickupwatch shares: a per-request timeout, at most one retry after a short
// pause, optional request pacing and an optional proxy.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pickupwatch/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrInvalidProxy indicates the proxy URL could not be parsed
	ErrInvalidProxy = errors.New("invalid proxy URL")

	// ErrCreateRequest indicates the request builder failed
	ErrCreateRequest = errors.New("failed to create HTTP request")
)

// Options configures a Client.
type Options struct {
	Timeout    time.Duration
	RetryDelay time.Duration
	MaxRetries int
	// Proxy is an outbound proxy URL such as http://127.0.0.1:7890.
	Proxy string
	// MinInterval spaces consecutive requests; zero disables pacing.
	MinInterval time.Duration
}

// RequestFunc builds a fresh request for every attempt so bodies can be resent.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Client is an HTTP client with bounded retries.
type Client struct {
	httpClient *http.Client
	retryDelay time.Duration
	maxRetries int
	limiter    *rate.Limiter
}

// New creates a client from opts.
func New(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil || proxyURL.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, opts.Proxy)
		}
		tr.Proxy = http.ProxyURL(proxyURL)
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: tr,
		},
		retryDelay: opts.RetryDelay,
		maxRetries: opts.MaxRetries,
	}
	if opts.MinInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	return c, nil
}

// Do sends the request produced by newReq. Transport errors and 5xx responses
// are retried up to MaxRetries times; the final response is returned to the
// caller, which owns closing its body.
func (c *Client) Do(ctx context.Context, newReq RequestFunc) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := newReq(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCreateRequest, err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			logger.Debug("HTTP request failed",
				zap.String("host", req.URL.Host),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError && attempt < c.maxRetries {
			logger.Debug("HTTP request returned server error, retrying",
				zap.String("host", req.URL.Host),
				zap.Int("status_code", resp.StatusCode))
			drain(resp)
			lastErr = fmt.Errorf("server returned %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
