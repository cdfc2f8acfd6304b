// Package bridge is the HTTP client for the game-server bridge plugin.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/keshon/bridge-bot/internal/metrics"
	"github.com/keshon/bridge-bot/pkg/retrylimit"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout    = 5 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 500 * time.Millisecond

	// NoRetries disables retrying in Options.MaxRetries.
	NoRetries = -1

	maxResponseBody = 1 << 20
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration // per attempt
	MaxRetries int           // additional attempts after the first; NoRetries disables
	RetryDelay time.Duration // linear backoff base
	RateLimit  float64       // requests per second, 0 disables client-side limiting

	Transport http.RoundTripper
	Logger    *zerolog.Logger

	// Sleep replaces the backoff sleep, for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client executes authenticated requests against the bridge. Safe for
// concurrent use.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	retry   retrylimit.RetryConfig
	limiter *retrylimit.AdaptiveLimiter
	log     zerolog.Logger
}

// RequestOptions are the per-call parameters of Request.
type RequestOptions struct {
	Query   url.Values
	Body    any
	Timeout time.Duration
	NoAuth  bool
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		token:   opts.Token,
		timeout: opts.Timeout,
		http: &http.Client{
			Transport: transport,
			// 3xx is a rejection like any other non-2xx status
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		log: log,
	}

	c.retry = retrylimit.LinearRetryConfig(opts.MaxRetries, opts.RetryDelay)
	c.retry.Retryable = IsTransient
	c.retry.Sleep = opts.Sleep

	if opts.RateLimit > 0 {
		r := rate.Limit(opts.RateLimit)
		c.limiter = retrylimit.NewAdaptiveLimiter(r, 1, r, 1, 0.5)
	}
	return c
}

// BaseURL returns the normalized bridge URL.
func (c *Client) BaseURL() string { return c.baseURL }

// WorstCase returns the longest a single call can take when every attempt
// times out: the per-attempt deadlines plus the backoff sleeps.
func (c *Client) WorstCase() time.Duration {
	return time.Duration(c.retry.MaxAttempts)*c.timeout + c.retry.WorstCaseSleep()
}

// Request performs method on path and decodes a 2xx JSON body into out
// (out may be nil). It returns an *HTTPError for non-2xx responses and a
// *RequestError wrapping the last cause for everything else.
func (c *Client) Request(ctx context.Context, method, path string, opts RequestOptions, out any) error {
	target := c.baseURL + path
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var payload []byte
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		payload = b
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	cfg := c.retry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.log.Warn().
			Str("method", method).
			Str("path", path).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Err(err).
			Msg("bridge request failed, retrying")
	}

	start := time.Now()
	attempts := 0
	err := retrylimit.WithRetryConfig(ctx, func(ctx context.Context, attempt int) error {
		attempts = attempt
		metrics.BridgeAttempt(path)
		return c.do(ctx, method, path, target, payload, timeout, opts.NoAuth, out)
	}, c.limiter, cfg)
	took := time.Since(start)

	if err == nil {
		metrics.BridgeRequest(path, "ok", took)
		return nil
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		metrics.BridgeRequest(path, "http_error", took)
		return httpErr
	}

	metrics.BridgeRequest(path, "transport_error", took)
	cause := err
	var exhausted *retrylimit.ExhaustedError
	if errors.As(err, &exhausted) {
		cause = exhausted.Err
	}
	return &RequestError{
		Method:   method,
		Path:     path,
		BaseURL:  c.baseURL,
		Attempts: attempts,
		Err:      cause,
	}
}

// do runs one attempt under its own deadline.
func (c *Client) do(parent context.Context, method, path, target string, payload []byte, timeout time.Duration, noAuth bool, out any) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &retrylimit.FatalError{Err: err}
	}
	if !noAuth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(parent, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return classify(parent, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(method, path, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newHTTPError(method, path string, status int, data []byte) *HTTPError {
	e := &HTTPError{Method: method, Path: path, Status: status, Body: data}
	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &parsed) == nil {
		e.Message = parsed.Message
	}
	return e
}
