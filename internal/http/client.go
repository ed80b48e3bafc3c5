// Package http is the scanner's single outbound HTTP path. Every crawl fetch,
// probe and check goes through Client so rate limiting, metrics and error
// categorization apply uniformly.
package http

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	scanerrors "github.com/PentesterFlow/OpenScanner/internal/errors"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
	"github.com/PentesterFlow/OpenScanner/internal/metrics"
	"github.com/PentesterFlow/OpenScanner/internal/ratelimit"
)

// DefaultUserAgent identifies scanner traffic.
const DefaultUserAgent = "OpenScanner/1.0 (+safe-mode)"

// ClientConfig holds configuration for Client.
type ClientConfig struct {
	Timeout         time.Duration
	MaxConnsPerHost int
	MaxRedirects    int
	MaxBodyBytes    int64
	UserAgent       string
	Headers         map[string]string
	SkipTLSVerify   bool

	Limiter *ratelimit.Limiter
	Metrics *metrics.Collector
	Logger  *logger.Logger
}

// DefaultClientConfig returns defaults tuned for a single-host scan.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:         10 * time.Second,
		MaxConnsPerHost: 20,
		MaxRedirects:    10,
		MaxBodyBytes:    5 * 1024 * 1024,
		UserAgent:       DefaultUserAgent,
		SkipTLSVerify:   true,
	}
}

// Client issues requests on behalf of every scan component.
type Client struct {
	client    *http.Client
	direct    *http.Client // never follows redirects
	userAgent string
	headers   map[string]string
	maxBody   int64
	limiter   *ratelimit.Limiter
	metrics   *metrics.Collector
	log       *logger.Logger
}

// NewClient creates a Client. Zero-valued limits fall back to the defaults.
func NewClient(config ClientConfig) *Client {
	def := DefaultClientConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.MaxConnsPerHost <= 0 {
		config.MaxConnsPerHost = def.MaxConnsPerHost
	}
	if config.MaxRedirects <= 0 {
		config.MaxRedirects = def.MaxRedirects
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = def.MaxBodyBytes
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	if config.Metrics == nil {
		config.Metrics = metrics.New()
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          config.MaxConnsPerHost * 2,
		MaxIdleConnsPerHost:   config.MaxConnsPerHost,
		MaxConnsPerHost:       config.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.SkipTLSVerify,
		},
	}

	maxRedirects := config.MaxRedirects
	return &Client{
		direct: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: config.UserAgent,
		headers:   config.Headers,
		maxBody:   config.MaxBodyBytes,
		limiter:   config.Limiter,
		metrics:   config.Metrics,
		log:       config.Logger.WithComponent("http"),
	}
}

// Request describes one outbound request. Form values go into the query
// string for GET and into an urlencoded body otherwise.
type Request struct {
	Method string
	URL    string
	Form   url.Values
	Header http.Header
	// NoFollow returns a 3xx response as-is instead of following it.
	NoFollow bool
}

// Response is a fully read HTTP response.
type Response struct {
	URL        string
	FinalURL   string
	StatusCode int
	Header     http.Header
	Cookies    []*http.Cookie
	Body       string
	TLS        *tls.ConnectionState
	Duration   time.Duration
}

// Get is shorthand for a GET with no form values.
func (c *Client) Get(ctx context.Context, targetURL string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: targetURL})
}

// Do sends req. Any response, whatever its status, is returned as evidence;
// the error is non-nil only when no response could be obtained, and is then
// always a *errors.ScanError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		scanErr := scanerrors.NewParseError(req.URL, "request_creation", err)
		c.metrics.RecordFailedFetch(scanErr.Type.String())
		return nil, scanErr
	}

	if err := c.limiter.Wait(ctx, httpReq.URL.Hostname()); err != nil {
		scanErr := scanerrors.Categorize(err, req.URL)
		c.metrics.RecordFailedFetch(scanErr.Type.String())
		return nil, scanErr
	}

	c.metrics.RecordRequest()
	hc := c.client
	if req.NoFollow {
		hc = c.direct
	}
	resp, err := hc.Do(httpReq)
	if err != nil {
		scanErr := scanerrors.NewFetchError(req.URL, err)
		c.metrics.RecordFailedFetch(scanErr.Type.String())
		c.log.ErrorEvent(scanErr, req.URL, "fetch")
		return nil, scanErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		scanErr := scanerrors.New(scanerrors.Network, req.URL, "body_read", "reading body failed", err)
		c.metrics.RecordFailedFetch(scanErr.Type.String())
		return nil, scanErr
	}

	out := &Response{
		URL:        req.URL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Cookies:    resp.Cookies(),
		Body:       string(body),
		TLS:        resp.TLS,
		Duration:   time.Since(start),
	}

	c.metrics.RecordResponse(out.StatusCode, int64(len(body)), out.Duration)
	c.log.RequestEvent(httpReq.Method, req.URL, out.StatusCode, out.Duration)
	return out, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	target, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if len(req.Form) > 0 {
		if method == http.MethodGet || method == http.MethodHead {
			q := target.Query()
			for k, vs := range req.Form {
				q.Del(k)
				for _, v := range vs {
					q.Add(k, v)
				}
			}
			target.RawQuery = q.Encode()
		} else {
			body = strings.NewReader(req.Form.Encode())
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	return httpReq, nil
}

// Metrics returns the collector the client records into.
func (c *Client) Metrics() *metrics.Collector {
	return c.metrics
}

// Limiter returns the limiter the client waits on; it may be nil.
func (c *Client) Limiter() *ratelimit.Limiter {
	return c.limiter
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
