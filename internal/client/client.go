// ABOUTME: HTTP client for the opsdesk REST backend
// ABOUTME: Sends JSON requests and normalizes non-2xx responses into APIError

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk/internal/credentials"
)

// Version is reported in the User-Agent header.
var Version = "dev"

// DefaultTimeout bounds a single request when no other timeout is configured.
const DefaultTimeout = 30 * time.Second

// Client is the API client for the opsdesk backend. It is safe for
// concurrent use; every call reads the credential store independently.
type Client struct {
	baseURL    string
	store      credentials.Store
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger

	// Applied once after all options run, so option order does not matter.
	timeout time.Duration
	dial    func(ctx context.Context, network, address string) (net.Conn, error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. A client supplied through
// WithHTTPClient is copied rather than modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithDialContext routes connections through dial, e.g. a proxy dialer.
// It only applies when the transport is an *http.Transport (or nil); other
// transports are left alone and a warning is logged.
func WithDialContext(dial func(ctx context.Context, network, address string) (net.Conn, error)) Option {
	return func(c *Client) {
		c.dial = dial
	}
}

// New creates a new API client with the given base URL and credential store.
// A nil store means requests are sent without credentials.
func New(baseURL string, store credentials.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		store:   store,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: "opsdesk/" + Version,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.applyTransportSettings()
	return c
}

func (c *Client) applyTransportSettings() {
	if c.timeout <= 0 && c.dial == nil {
		return
	}

	hc := *c.httpClient
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	if c.dial != nil {
		switch t := hc.Transport.(type) {
		case nil:
			base := http.DefaultTransport.(*http.Transport).Clone()
			base.DialContext = c.dial
			hc.Transport = base
		case *http.Transport:
			clone := t.Clone()
			clone.DialContext = c.dial
			hc.Transport = clone
		default:
			c.logger.Warn("Custom dialer ignored, transport is not an *http.Transport",
				"transport", fmt.Sprintf("%T", t))
		}
	}
	c.httpClient = &hc
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL resolves endpoint against the base URL without sending anything.
func (c *Client) URL(endpoint string) string {
	return BuildURL(c.baseURL, endpoint)
}

// Store returns the credential store the client reads from.
func (c *Client) Store() credentials.Store {
	return c.store
}

// Send issues a request and decodes a successful response into out.
//
// Non-2xx responses return *APIError. A 204 response, or a nil out, skips
// decoding entirely. Transport failures and success bodies that are not valid
// JSON are returned as plain wrapped errors, never as *APIError.
func (c *Client) Send(ctx context.Context, method, endpoint string, body any, extra http.Header, out any) error {
	reader, err := serializeBody(body)
	if err != nil {
		return err
	}

	url := c.URL(endpoint)
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	headers := BuildHeaders(c.store, nil)
	headers.Set("Accept", "application/json")
	headers.Set("User-Agent", c.userAgent)
	headers.Set("X-Request-ID", requestID)
	mergeHeaders(headers, extra)
	req.Header = headers

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Request failed",
			"request_id", requestID,
			"method", method,
			"url", url,
			"error", err,
		)
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Request completed",
		"request_id", requestID,
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.Canceled) {
			return fmt.Errorf("request canceled: %w", ctxErr)
		}
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("request timed out: %w", ctxErr)
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("request timed out: %w", err)
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		body = nil
	}
	return newAPIError(resp.StatusCode, body)
}

// Do sends a request and decodes the response as T. On 204 the zero T is returned.
func Do[T any](ctx context.Context, c *Client, method, endpoint string, body any, extra http.Header) (T, error) {
	var out T
	if err := c.Send(ctx, method, endpoint, body, extra, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Get issues a GET request.
func Get[T any](ctx context.Context, c *Client, endpoint string) (T, error) {
	return Do[T](ctx, c, http.MethodGet, endpoint, nil, nil)
}

// Post issues a POST request with an optional body.
func Post[T any](ctx context.Context, c *Client, endpoint string, body any) (T, error) {
	return Do[T](ctx, c, http.MethodPost, endpoint, body, nil)
}

// Put issues a PUT request with an optional body.
func Put[T any](ctx context.Context, c *Client, endpoint string, body any) (T, error) {
	return Do[T](ctx, c, http.MethodPut, endpoint, body, nil)
}

// Patch issues a PATCH request with an optional body.
func Patch[T any](ctx context.Context, c *Client, endpoint string, body any) (T, error) {
	return Do[T](ctx, c, http.MethodPatch, endpoint, body, nil)
}

// Delete issues a DELETE request. The response body, if any, is not decoded.
func Delete(ctx context.Context, c *Client, endpoint string) error {
	return c.Send(ctx, http.MethodDelete, endpoint, nil, nil, nil)
}
