// Package fetch issues polite, retrying HTTP requests on behalf of the Steam sources.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/huangsam/patchpanel/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrUnavailable means the upstream could not produce data for the entity.
var ErrUnavailable = errors.New("upstream unavailable")

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 16 << 20

// Retry reasons reported to metrics and logs.
const (
	ReasonBlocked    = "blocked"
	ReasonForbidden  = "forbidden"
	ReasonServer     = "server_error"
	ReasonTimeout    = "timeout"
	ReasonConnection = "connection"
)

// Final fetch statuses reported to metrics.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
	StatusCanceled    = "canceled"
)

// DefaultUserAgents are rotated when a scraped page starts blocking.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
}

// Request describes one logical fetch.
type Request struct {
	URL     string
	Params  url.Values
	Scraped bool   // HTML page rather than an API; 403 is treated as blocking
	Source  string // label for logs and metrics
}

// Response is a successful upstream answer. Decoding is the caller's job.
type Response struct {
	StatusCode int
	Body       []byte
}

// StatusError is an HTTP response outside the 2xx range.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Options configures a Client.
type Options struct {
	Interval   time.Duration // minimum gap between two attempts of this client
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration // cap for transient failures; blocked scrapes are uncapped
	Timeout    time.Duration // per attempt
	UserAgents []string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
	Metrics    *metrics.Recorder
}

// Client is a rate-limited HTTP client. Each instance has its own limiter.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	timeout    time.Duration
	log        zerolog.Logger
	metrics    *metrics.Recorder

	uaMu       sync.Mutex
	userAgents []string
	uaIndex    int
}

// New creates a Client from opts.
func New(opts Options) *Client {
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	userAgents := opts.UserAgents
	if len(userAgents) == 0 {
		userAgents = DefaultUserAgents
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	maxDelay := opts.MaxDelay
	if maxDelay < opts.BaseDelay {
		maxDelay = opts.BaseDelay
	}
	return &Client{
		http:       httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: max(opts.MaxRetries, 0),
		baseDelay:  opts.BaseDelay,
		maxDelay:   maxDelay,
		timeout:    opts.Timeout,
		log:        logger,
		metrics:    opts.Metrics,
		userAgents: userAgents,
	}
}

// UserAgent returns the identity currently declared by the client.
func (c *Client) UserAgent() string {
	c.uaMu.Lock()
	defer c.uaMu.Unlock()
	return c.userAgents[c.uaIndex]
}

// rotateUserAgent switches to the next identity.
func (c *Client) rotateUserAgent() {
	c.uaMu.Lock()
	defer c.uaMu.Unlock()
	c.uaIndex = (c.uaIndex + 1) % len(c.userAgents)
}

// Fetch performs req, retrying transient and blocking failures.
// Exhausted retries and non-retryable statuses return an error wrapping ErrUnavailable.
// Cancellation of ctx returns the context error.
func (c *Client) Fetch(ctx context.Context, req Request) (Response, error) {
	target, err := buildURL(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	started := time.Now()
	var result Response
	var lastReason string
	attempts := 0

	operation := func() error {
		attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.attempt(ctx, target, req.Scraped)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			lastReason = classifyNetError(err)
			return err
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			result = resp
			return nil
		case resp.StatusCode == http.StatusForbidden && req.Scraped:
			lastReason = ReasonBlocked
			c.rotateUserAgent()
		case resp.StatusCode == http.StatusForbidden:
			lastReason = ReasonForbidden
		case resp.StatusCode >= 500:
			lastReason = ReasonServer
		default:
			return backoff.Permanent(&StatusError{StatusCode: resp.StatusCode, URL: target})
		}
		return &StatusError{StatusCode: resp.StatusCode, URL: target}
	}

	policy := &policyBackOff{
		blocked:   newExponential(c.baseDelay, time.Duration(math.MaxInt64)),
		transient: newExponential(c.baseDelay, c.maxDelay),
		reason:    &lastReason,
	}
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx)

	notify := func(err error, wait time.Duration) {
		c.metrics.ObserveRetry(req.Source, lastReason)
		c.log.Debug().
			Str("source", req.Source).
			Str("url", target).
			Int("attempt", attempts).
			Str("reason", lastReason).
			Dur("wait", wait).
			Err(err).
			Msg("retrying fetch")
	}

	err = backoff.RetryNotify(operation, b, notify)
	elapsed := time.Since(started)
	if err == nil {
		c.metrics.ObserveFetch(req.Source, StatusOK, elapsed)
		c.log.Debug().Str("source", req.Source).Str("url", target).Int("attempts", attempts).Dur("elapsed", elapsed).Msg("fetched")
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		c.metrics.ObserveFetch(req.Source, StatusCanceled, elapsed)
		return Response{}, ctxErr
	}
	c.metrics.ObserveFetch(req.Source, StatusUnavailable, elapsed)
	return Response{}, fmt.Errorf("%w: %s after %d attempt(s): %w", ErrUnavailable, req.Source, attempts, err)
}

// attempt issues a single HTTP GET bounded by the per-attempt timeout.
func (c *Client) attempt(ctx context.Context, target string, scraped bool) (Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("User-Agent", c.UserAgent())
	if scraped {
		httpReq.Header.Set("Accept", "text/html,application/xhtml+xml")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, err
	}
	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// buildURL merges the request params into the URL query.
func buildURL(req Request) (string, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", req.URL, err)
	}
	if len(req.Params) > 0 {
		q := u.Query()
		for k, vs := range req.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// classifyNetError names the transport failure for logs and metrics.
func classifyNetError(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return ReasonTimeout
	}
	return ReasonConnection
}
