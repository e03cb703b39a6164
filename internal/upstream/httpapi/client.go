// Package httpapi reads the play history API over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"playdash/internal/core"
	"playdash/internal/log"
	"playdash/internal/observability"
	"playdash/internal/upstream"
)

// maxBodyBytes bounds a single response body.
const maxBodyBytes = 32 << 20

// Client fetches raw payloads from the upstream API.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *log.Logger
}

var _ upstream.Source = (*Client)(nil)

// New creates a client for baseURL with an overall per-request timeout.
func New(baseURL string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream base url %q", baseURL)
	}
	return &Client{
		base:   u,
		http:   newHTTPClientWithPooling(timeout),
		logger: log.OrDiscard(logger),
	}, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection reuse
// tuned for a single upstream host.
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

func (c *Client) Games(ctx context.Context) ([]byte, error) {
	return c.get(ctx, upstream.PathGames, upstream.PathGames)
}

func (c *Client) RecentActivities(ctx context.Context) ([]byte, error) {
	return c.get(ctx, upstream.PathRecent, upstream.PathRecent)
}

func (c *Client) History(ctx context.Context) ([]byte, error) {
	return c.get(ctx, upstream.PathHistory, upstream.PathHistory)
}

func (c *Client) MonthlyPlaytime(ctx context.Context) ([]byte, error) {
	return c.get(ctx, upstream.PathMonthly, upstream.PathMonthly)
}

func (c *Client) GameDaily(ctx context.Context, titleID string) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf(upstream.PathGameDaily, "{id}"), fmt.Sprintf(upstream.PathGameDaily, url.PathEscape(titleID)))
}

// get performs a GET of the already escaped path and returns the body of a
// 2xx response. Any other status, and any network error, is a
// TransportFailure. endpoint labels errors, logs and metrics.
func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+path, nil)
	if err != nil {
		return nil, core.NewTransportError(endpoint, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(ctx, endpoint, core.TransportFailure, start, err)
		return nil, core.NewTransportError(endpoint, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.record(ctx, endpoint, core.TransportFailure, start, err)
		return nil, core.NewTransportError(endpoint, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("unexpected status %s", resp.Status)
		c.record(ctx, endpoint, core.TransportFailure, start, err)
		return nil, core.NewTransportError(endpoint, resp.StatusCode, err)
	}

	c.record(ctx, endpoint, 0, start, nil)
	return body, nil
}

func (c *Client) record(ctx context.Context, endpoint string, kind core.FailureKind, start time.Time, err error) {
	d := time.Since(start)
	if err == nil {
		observability.RecordFetch(endpoint, "ok", d)
		c.logger.DebugContext(ctx, "Upstream fetch completed",
			log.FieldEndpoint, endpoint,
			log.FieldDuration, d.Milliseconds())
		return
	}
	observability.RecordFetch(endpoint, kind.String(), d)
	c.logger.WarnContext(ctx, "Upstream fetch failed",
		log.FieldEndpoint, endpoint,
		log.FieldDuration, d.Milliseconds(),
		log.FieldError, err)
}
