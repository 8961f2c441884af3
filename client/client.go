// Package client is the HTTP call primitive shared by every packagecloud
// API operation.
//
// A Client sends one request per attempt and retries connection failures,
// timeouts and HTTP error statuses a fixed number of times with a fixed
// pause. Exhausted retries are reported as *TransportError; the client
// never terminates the process.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenk/backoff"
	"github.com/git-pkgs/packagecloud/config"
	"go.uber.org/zap"
)

// BodyFunc produces a fresh request body and its content type. It is
// called once per attempt so a retry resends the full payload.
type BodyFunc func() (body io.ReadCloser, contentType string, err error)

// Request describes one API call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   BodyFunc
}

// Client is an HTTP client with retry logic for the packagecloud API.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	token       string
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
	breaker     *Breaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithToken sets the API token, sent as the basic-auth username.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithMaxAttempts sets the total number of attempts per call.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the fixed pause between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBreaker routes every call through a per-host circuit breaker.
func WithBreaker(b *Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   config.DefaultTimeout,
			Transport: newTransport(),
		},
		userAgent:   config.DefaultUserAgent,
		maxAttempts: config.DefaultMaxAttempts,
		retryDelay:  config.DefaultRetryDelay,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultClient returns an unauthenticated client with a 30s timeout and
// 3 attempts spaced 1s apart.
func DefaultClient() *Client {
	return NewClient()
}

// FromConfig builds a client from cfg.
func FromConfig(cfg *config.Config, logger *zap.Logger) *Client {
	opts := []Option{
		WithToken(cfg.Token),
		WithUserAgent(cfg.UserAgent),
		WithMaxAttempts(cfg.MaxAttempts),
		WithRetryDelay(cfg.RetryDelay),
		WithLogger(logger),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}
	if cfg.CircuitBreaker {
		opts = append(opts, WithBreaker(NewBreaker()))
	}
	return NewClient(opts...)
}

// Logger returns the client's logger.
func (c *Client) Logger() *zap.Logger {
	return c.logger
}

// Do executes r, retrying retryable failures. On success the caller owns
// the response body.
func (c *Client) Do(ctx context.Context, r *Request) (*http.Response, error) {
	if c.breaker != nil {
		return c.breaker.Do(r.URL, func() (*http.Response, error) {
			return c.do(ctx, r)
		})
	}
	return c.do(ctx, r)
}

func (c *Client) do(ctx context.Context, r *Request) (*http.Response, error) {
	var policy backoff.BackOff = &backoff.StopBackOff{}
	if c.maxAttempts > 1 {
		policy = backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxAttempts-1))
	}
	policy.Reset()

	for attempt := 1; ; attempt++ {
		resp, permanent, err := c.attempt(ctx, r, attempt)
		if err == nil {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if permanent {
			return nil, err
		}

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			c.logger.Error("request failed",
				zap.String("method", r.Method),
				zap.String("url", r.URL),
				zap.Int("attempts", attempt),
				zap.Error(err))
			return nil, &TransportError{Method: method(r), URL: r.URL, Attempts: attempt, Err: err}
		}

		c.logger.Warn("retrying request",
			zap.String("method", r.Method),
			zap.String("url", r.URL),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))

		// A deadline shorter than the pause ends the call as a context
		// error, never as an exhausted TransportError.
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// attempt sends r once and reports whether a failure must not be retried.
func (c *Client) attempt(ctx context.Context, r *Request, n int) (*http.Response, bool, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, true, err
	}

	c.logger.Debug("request",
		zap.String("method", req.Method),
		zap.String("url", r.URL),
		zap.Int("attempt", n))

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, !retryable(err), err
	}

	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		_ = res.Body.Close()
		return nil, false, &HTTPError{StatusCode: res.StatusCode, URL: r.URL, Body: string(body)}
	}
	return res, false, nil
}

func (c *Client) newRequest(ctx context.Context, r *Request) (*http.Request, error) {
	var (
		body        io.ReadCloser
		contentType string
	)
	if r.Body != nil {
		b, ct, err := r.Body()
		if err != nil {
			return nil, fmt.Errorf("building request body: %w", err)
		}
		body, contentType = b, ct
	}

	req, err := http.NewRequestWithContext(ctx, method(r), r.URL, body)
	if err != nil {
		if body != nil {
			_ = body.Close()
		}
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for name, values := range r.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.SetBasicAuth(c.token, "")
	}
	return req, nil
}

func method(r *Request) string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// retryable reports whether a transport error is a connection failure or
// a timeout.
func retryable(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// DecodeJSON decodes the response body into v and closes it.
func DecodeJSON(resp *http.Response, v any) error {
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &MalformedResponseError{URL: requestURL(resp), Reason: "invalid JSON", Err: err}
	}
	return nil
}

func requestURL(resp *http.Response) string {
	if resp.Request != nil && resp.Request.URL != nil {
		u := *resp.Request.URL
		u.User = nil
		return u.String()
	}
	return ""
}

// GetJSON fetches rawURL and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	_, err := c.GetJSONHeader(ctx, rawURL, v)
	return err
}

// GetJSONHeader is GetJSON that also returns the response headers.
func (c *Client) GetJSONHeader(ctx context.Context, rawURL string, v any) (http.Header, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, URL: rawURL})
	if err != nil {
		return nil, err
	}
	if err := DecodeJSON(resp, v); err != nil {
		return resp.Header, err
	}
	return resp.Header, nil
}

// PostFormJSON posts form as application/x-www-form-urlencoded and decodes
// the JSON response into v. A nil v discards the body.
func (c *Client) PostFormJSON(ctx context.Context, rawURL string, form url.Values, v any) error {
	return c.postJSON(ctx, rawURL, Form(form), v)
}

// PostMultipartJSON posts parts as multipart/form-data and decodes the JSON
// response into v.
func (c *Client) PostMultipartJSON(ctx context.Context, rawURL string, parts []Part, v any) error {
	return c.postJSON(ctx, rawURL, Multipart(parts), v)
}

func (c *Client) postJSON(ctx context.Context, rawURL string, body BodyFunc, v any) error {
	resp, err := c.Do(ctx, &Request{Method: http.MethodPost, URL: rawURL, Body: body})
	if err != nil {
		return err
	}
	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Body.Close()
	}
	return DecodeJSON(resp, v)
}

// Delete issues a DELETE and returns the response status.
func (c *Client) Delete(ctx context.Context, rawURL string) (int, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodDelete, URL: rawURL})
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
