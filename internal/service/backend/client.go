// Package backend talks to the dividend analytics API.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	xhttp "DivDash/pkg/http"
	"DivDash/pkg/logger"
	"DivDash/pkg/query"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned without calling the backend while the breaker is
// open.
var ErrCircuitOpen = errors.New("backend: circuit open")

// StatusError is a non-2xx backend response.
type StatusError = xhttp.StatusError

// Option configures Client.
type Option func(*Client)

// Client fetches raw JSON documents. It does not parse them; the query store
// validates every document against its schema.
type Client struct {
	baseURL  string
	token    string
	timeout  time.Duration
	hc       *http.Client
	settings gobreaker.Settings
	breaker  *gobreaker.CircuitBreaker
	http     *xhttp.Client
	log      *logger.Logger
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 15 * time.Second,
		log:     logger.Nop(),
		settings: gobreaker.Settings{
			Name:        "backend",
			MaxRequests: 5,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	httpOpts := []xhttp.ClientOption{xhttp.WithTimeout(c.timeout)}
	if c.token != "" {
		httpOpts = append(httpOpts, xhttp.WithHeader("Authorization", "Bearer "+c.token))
	}
	if c.hc != nil {
		httpOpts = append(httpOpts, xhttp.WithHTTPClient(c.hc))
	}
	c.http = xhttp.NewClient(httpOpts...)

	c.settings.IsSuccessful = isSuccessful
	c.settings.OnStateChange = func(name string, from, to gobreaker.State) {
		c.log.Warn("backend circuit state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}
	c.breaker = gobreaker.NewCircuitBreaker(c.settings)
	return c
}

// Get fetches the document at path.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.http.GetRaw(ctx, &xhttp.RequestOptions{
			URL:         c.baseURL + path,
			QueryParams: params,
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("GET %s: %w: %w", path, ErrCircuitOpen, err)
		}
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return out.([]byte), nil
}

// Fetcher binds path and params into a query fetch function.
func (c *Client) Fetcher(path string, params url.Values) query.Fetcher {
	return func(ctx context.Context) ([]byte, error) {
		return c.Get(ctx, path, params)
	}
}

// State returns the breaker state for health reporting.
func (c *Client) State() string {
	return c.breaker.State().String()
}

// isSuccessful keeps client errors and cancellations from tripping the
// breaker. Only transport failures and 5xx responses count.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.StatusCode < 500
	}
	return false
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBreaker overrides the circuit breaker thresholds. The breaker opens once
// at least minRequests calls in an interval failed at failureRatio or more.
func WithBreaker(maxRequests uint32, interval, timeout time.Duration, minRequests uint32, failureRatio float64) Option {
	return func(c *Client) {
		c.settings.MaxRequests = maxRequests
		c.settings.Interval = interval
		c.settings.Timeout = timeout
		c.settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= failureRatio
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}
