// Package gateway is the single HTTP client every remote call goes through. It attaches the
// stored access token, and on a 401 exchanges the refresh token once and re-issues the
// request exactly once. A failed exchange clears the persisted session and tells listeners.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"event-management/client/internal/security"
	"event-management/client/internal/storage"
)

// RefreshPath is the token exchange endpoint, relative to the base URL.
const RefreshPath = "/auth/token/refresh/"

const (
	headerRequestID = "X-Request-ID"
	contentTypeJSON = "application/json"
	meterName       = "eventhub.client/gateway"
)

// Listener is told about session changes the gateway makes on its own.
type Listener interface {
	// TokenRefreshed is called after a successful exchange. refresh is empty unless the server rotated it.
	TokenRefreshed(access, refresh string)
	// SessionExpired is called after the persisted session was cleared. Callers route to login.
	SessionExpired()
}

// Request is one API call. Path is relative to the base URL and keeps its trailing slash.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when non-nil. A json.RawMessage or []byte is sent as-is.
	Body any
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// Client sends API requests with credential attachment and one-shot refresh.
type Client struct {
	baseURL string
	store   storage.Repository
	http    *http.Client

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	proactiveSkew time.Duration
	proactive     bool
	now           func() time.Time

	mu        sync.RWMutex
	listeners []Listener

	refreshes singleflight.Group

	requestCount        metric.Int64Counter
	refreshCount        metric.Int64Counter
	refreshFailureCount metric.Int64Counter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped for tracing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each HTTP exchange.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithMeterProvider records request and refresh counters on mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Client) { c.meterProvider = mp }
}

// WithTracerProvider records client spans on tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracerProvider = tp }
}

// WithProactiveRefresh exchanges the refresh token before sending when the stored access
// token is a JWT expiring within skew. The exchange counts as the request's one refresh.
func WithProactiveRefresh(skew time.Duration) Option {
	return func(c *Client) {
		c.proactive = skew > 0
		c.proactiveSkew = skew
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a Client for baseURL that reads and writes credentials in store.
func New(baseURL string, store storage.Repository, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		http:    &http.Client{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	var otelOpts []otelhttp.Option
	if c.tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(c.tracerProvider))
	}
	if c.meterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(c.meterProvider))
	}
	wrapped := *c.http
	wrapped.Transport = otelhttp.NewTransport(base, otelOpts...)
	c.http = &wrapped

	c.initMetrics()
	return c
}

func (c *Client) initMetrics() {
	mp := c.meterProvider
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter(meterName)
	fallback := noop.NewMeterProvider().Meter(meterName)
	counter := func(name, desc string) metric.Int64Counter {
		ctr, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			log.Printf("gateway: counter %s: %v", name, err)
			ctr, _ = fallback.Int64Counter(name)
		}
		return ctr
	}
	c.requestCount = counter("eventhub.gateway.requests", "API requests by method and final status")
	c.refreshCount = counter("eventhub.gateway.refreshes", "Successful refresh token exchanges")
	c.refreshFailureCount = counter("eventhub.gateway.refresh_failures", "Failed refresh token exchanges")
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// AddListener registers l for refresh and expiry notifications.
func (c *Client) AddListener(l Listener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

func (c *Client) snapshotListeners() []Listener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Listener(nil), c.listeners...)
}

// Do sends req. Non-2xx responses return the Response together with an *APIError; transport
// failures return a wrapped error and a nil Response. A request is re-issued at most once.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("gateway: nil request")
	}
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: encode %s %s: %w", req.Method, req.Path, err)
	}

	// A proactive refresh happens before the first send and does not use up the retry.
	access := c.stored(ctx, storage.KeyAccessToken)
	if c.proactive && access != "" && security.ExpiresWithin(access, c.now(), c.proactiveSkew) {
		if next, err := c.refresh(ctx, access); err == nil {
			access = next
		} else {
			access = c.stored(ctx, storage.KeyAccessToken)
		}
	}

	resp, err := c.send(ctx, req, body, access)
	if err != nil {
		return nil, err
	}

	if resp.Status == http.StatusUnauthorized {
		switch {
		case c.stored(ctx, storage.KeyRefreshToken) == "":
			// Nothing to exchange; the 401 is returned unchanged.
		default:
			next, rerr := c.refresh(ctx, access)
			if rerr != nil {
				break
			}
			retry, err := c.send(ctx, req, body, next)
			if err != nil {
				return nil, err
			}
			resp = retry
			if resp.Status == http.StatusUnauthorized {
				c.expire(ctx)
			}
		}
	}

	c.requestCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", req.Method),
		attribute.Int("status", resp.Status),
	))
	if resp.Status < 200 || resp.Status > 299 {
		return resp, newAPIError(req.Method, req.Path, resp)
	}
	return resp, nil
}

// send performs a single exchange with access as the bearer token.
func (c *Client) send(ctx context.Context, req *Request, body []byte, access string) (*Response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, target, rd)
	if err != nil {
		return nil, fmt.Errorf("gateway: build %s %s: %w", req.Method, req.Path, err)
	}
	hreq.Header.Set("Content-Type", contentTypeJSON)
	hreq.Header.Set("Accept", contentTypeJSON)
	hreq.Header.Set(headerRequestID, uuid.NewString())
	if access != "" {
		hreq.Header.Set("Authorization", "Bearer "+access)
	}
	return c.roundTrip(hreq, req.Method, req.Path)
}

func (c *Client) roundTrip(hreq *http.Request, method, path string) (*Response, error) {
	hresp, err := c.http.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer hresp.Body.Close()
	data, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read %s %s: %w", method, path, err)
	}
	return &Response{Status: hresp.StatusCode, Header: hresp.Header, Body: data}, nil
}

// stored reads key from storage. Read errors are logged and read as absent.
func (c *Client) stored(ctx context.Context, key string) string {
	v, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.Printf("gateway: read %s: %v", key, err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func encodeBody(v any) ([]byte, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return b, nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(v)
	}
}
