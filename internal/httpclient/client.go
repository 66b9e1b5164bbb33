// Package httpclient provides an instrumented HTTP client for venue REST APIs.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/routefi/exchange-router/internal/apperror"
)

const (
	defaultDialKeepAlive  = 10 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "http_client_requests_total"
)

// Client makes JSON requests against one provider's base URL with OTEL
// instrumentation.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	providerName   string
	defaultHeaders map[string]string
	requestCounter metric.Int64Counter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// New creates an instrumented client for the given provider and base URL.
func New(providerName, baseURL string, opts ...Option) (*Client, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			KeepAlive: defaultDialKeepAlive,
		}).DialContext,
		MaxConnsPerHost: defaultMaxConnsPerHost,
		IdleConnTimeout: defaultIdleConnTimeout,
	}

	httpClient := &http.Client{
		Timeout: defaultRequestTimeout,
		Transport: otelhttp.NewTransport(
			transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}

	meter := otel.Meter(
		"instrumented_http_client",
		metric.WithInstrumentationAttributes(attribute.String("provider", providerName)),
	)

	requestCounter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		providerName:   providerName,
		defaultHeaders: map[string]string{"Accept": "application/json"},
		requestCounter: requestCounter,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GetJSON performs a GET against path with query params and decodes the
// JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidInput, c.providerName)
	}

	return c.doJSON(ctx, req, out)
}

// PostJSON performs a POST with a JSON body and decodes the JSON response
// into out (out may be nil).
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidInput, c.providerName)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidInput, c.providerName)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSON(ctx, req, out)
}

func (c *Client) doJSON(ctx context.Context, req *http.Request, out any) error {
	for k, v := range c.defaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.requestCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", c.providerName),
			attribute.String("method", req.Method),
			attribute.Int("status", status),
		))

	if err != nil {
		return apperror.External(apperror.CodeExternalServiceError, c.providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithContext(c.providerName))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperror.External(
			apperror.CodeExternalServiceError,
			c.providerName,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body),
		)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.External(apperror.CodeExternalServiceError, c.providerName, err)
	}

	return nil
}
