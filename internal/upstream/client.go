// Package upstream issues single logical requests against the remote process
// API with bounded retry and linear backoff on transient failures.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when the corresponding Options fields are unset.
const (
	DefaultMaxRetries     = 2
	DefaultBackoffUnit    = time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 15 * time.Second
	DefaultMaxBodyBytes   = 8 << 20
)

// ErrBodyTooLarge is reported when a response exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("upstream response body too large")

// Options tunes a Client. Zero values select the package defaults; a
// negative MaxRetries disables retries entirely.
type Options struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxRetries     int
	BackoffUnit    time.Duration
	MaxBodyBytes   int64
	Logger         zerolog.Logger
	// DialContext replaces the default net.Dialer; it still runs under
	// ConnectTimeout.
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)
	// Transport overrides the default dialer-backed transport (tests).
	Transport http.RoundTripper
}

// Request describes one logical call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	// Endpoint is a low-cardinality label for metrics and logs, e.g. "owned".
	Endpoint string
	// SingleAttempt disables retries for this call.
	SingleAttempt bool
}

// Client is safe for concurrent use. It holds no per-request state.
type Client struct {
	httpClient     *http.Client
	connectTimeout time.Duration
	readTimeout    time.Duration
	maxRetries     int
	backoffUnit    time.Duration
	maxBodyBytes   int64
	log            zerolog.Logger
}

// New constructs a Client from opts with defaults applied.
func New(opts Options) *Client {
	c := &Client{
		connectTimeout: opts.ConnectTimeout,
		readTimeout:    opts.ReadTimeout,
		maxRetries:     opts.MaxRetries,
		backoffUnit:    opts.BackoffUnit,
		maxBodyBytes:   opts.MaxBodyBytes,
		log:            opts.Logger,
	}
	if c.connectTimeout <= 0 {
		c.connectTimeout = DefaultConnectTimeout
	}
	if c.readTimeout <= 0 {
		c.readTimeout = DefaultReadTimeout
	}
	switch {
	case c.maxRetries == 0:
		c.maxRetries = DefaultMaxRetries
	case c.maxRetries < 0:
		c.maxRetries = 0
	}
	if c.backoffUnit <= 0 {
		c.backoffUnit = DefaultBackoffUnit
	}
	if c.maxBodyBytes <= 0 {
		c.maxBodyBytes = DefaultMaxBodyBytes
	}
	tr := opts.Transport
	if tr == nil {
		dial := opts.DialContext
		if dial == nil {
			dial = (&net.Dialer{KeepAlive: 30 * time.Second}).DialContext
		}
		connectTimeout := c.connectTimeout
		tr = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				dctx, cancel := context.WithTimeout(ctx, connectTimeout)
				defer cancel()
				return dial(dctx, network, addr)
			},
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   c.connectTimeout,
			ResponseHeaderTimeout: c.readTimeout,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}
	// Timeout stays 0: every attempt carries its own context deadline.
	c.httpClient = &http.Client{Transport: tr, Timeout: 0}
	return c
}

// MaxAttempts is the number of attempts a retryable call may make.
func (c *Client) MaxAttempts() int { return c.maxRetries + 1 }

// Call performs req, retrying server and transport failures. The returned
// Outcome is the last one observed; Attempts is 0 only when ctx was done
// before the first attempt.
func (c *Client) Call(ctx context.Context, req Request) Outcome {
	start := time.Now()
	ep := endpointLabel(req.Endpoint)
	maxAttempts := c.MaxAttempts()
	if req.SingleAttempt {
		maxAttempts = 1
	}

	var out Outcome
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		out = c.attempt(ctx, req)
		out.Attempts = attempt
		attemptsTotal.WithLabelValues(ep, out.Kind.String()).Inc()
		if !out.Kind.retryable() || attempt == maxAttempts {
			break
		}
		delay := time.Duration(attempt) * c.backoffUnit
		retriesTotal.WithLabelValues(ep).Inc()
		c.log.Warn().
			Str("endpoint", ep).
			Int("attempt", attempt).
			Int("status", out.Status).
			Str("kind", out.Kind.String()).
			Dur("backoff", delay).
			AnErr("cause", out.Err).
			Msg("upstream retry scheduled")
		if !sleepCtx(ctx, delay) {
			break
		}
	}
	if out.Attempts == 0 {
		out = Outcome{Kind: KindNone, Err: ctx.Err()}
	}
	callDuration.WithLabelValues(ep, out.Kind.String()).Observe(time.Since(start).Seconds())
	return out
}

func (c *Client) attempt(ctx context.Context, req Request) Outcome {
	actx, cancel := context.WithTimeout(ctx, c.connectTimeout+c.readTimeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	hreq, err := http.NewRequestWithContext(actx, method, req.URL, nil)
	if err != nil {
		// A malformed URL will not get better on retry.
		return Outcome{Kind: KindUnexpectedStatus, Err: fmt.Errorf("build request: %w", err)}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	resp, err := c.httpClient.Do(hreq)
	if err != nil {
		return Outcome{Kind: KindTransportError, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return Outcome{Kind: KindTransportError, Status: resp.StatusCode, Header: resp.Header, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBodyBytes {
		return Outcome{Kind: KindUnexpectedStatus, Status: resp.StatusCode, Header: resp.Header, Err: ErrBodyTooLarge}
	}
	return Outcome{
		Kind:   classifyStatus(resp.StatusCode),
		Status: resp.StatusCode,
		Body:   body,
		Header: resp.Header,
	}
}

// sleepCtx waits d on its own timer; it returns false if ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
