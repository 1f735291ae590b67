package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iliyamo/ticket-compare/internal/metrics"
)

const maxErrorBody = 1024

// NewHTTPClient returns a client with a bounded overall timeout and a
// transport tuned for a handful of long-lived upstream hosts.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// caller bundles what every provider client needs to issue a request.
type caller struct {
	name      string
	client    *http.Client
	limiter   *rate.Limiter // nil means unpaced
	metrics   *metrics.Provider
	userAgent string
}

// getJSON performs a GET and decodes the body into a Payload, classifying
// failures into the package sentinel errors.
func (c caller) getJSON(ctx context.Context, op, rawURL string, header http.Header) (Payload, error) {
	start := time.Now()
	p, outcome, err := c.do(ctx, rawURL, header)
	c.metrics.Observe(c.name, op, outcome, time.Since(start))
	return p, err
}

func (c caller) do(ctx context.Context, rawURL string, header http.Header) (Payload, string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, metrics.OutcomeUnavailable, fmt.Errorf("%s: rate wait: %w: %v", c.name, ErrUpstreamUnavailable, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, metrics.OutcomeUnavailable, fmt.Errorf("%s: build request: %w: %v", c.name, ErrUpstreamUnavailable, err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, metrics.OutcomeUnavailable, fmt.Errorf("%s: %w: %v", c.name, ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, metrics.OutcomeNotFound, fmt.Errorf("%s: %w", c.name, ErrNotFound)
	}
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, metrics.OutcomeUnavailable, fmt.Errorf("%s: %w: http %d: %s",
			c.name, ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var p Payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, metrics.OutcomeMalformed, fmt.Errorf("%s: %w: %v", c.name, ErrMalformedPayload, err)
	}
	if p == nil {
		// literal JSON null
		return nil, metrics.OutcomeMalformed, fmt.Errorf("%s: %w: empty body", c.name, ErrMalformedPayload)
	}
	return p, metrics.OutcomeOK, nil
}

// HTTPDeps carries the shared pieces every client is built from.
type HTTPDeps struct {
	Client  *http.Client
	Metrics *metrics.Provider
}

func (d *HTTPDeps) caller(name string, opts Options) caller {
	c := caller{name: name, userAgent: opts.UserAgent}
	if d != nil {
		c.client = d.Client
		c.metrics = d.Metrics
	}
	if c.client == nil {
		c.client = NewHTTPClient(0)
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return c
}
