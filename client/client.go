// Package client provides the HTTP client used to talk to the YouTube Data API.
package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/ytget/ytplfilter/internal/logger"
)

const (
	defaultTimeout = 30 * time.Second
	// One attempt: page requests are not retried unless asked for.
	defaultRetries = 1

	userAgentValue      = "ytplfilter/1.0 (+https://github.com/ytget/ytplfilter)"
	acceptEncodingValue = "br, gzip"
	initialBackoff      = 200 * time.Millisecond
	maxBackoff          = 3 * time.Second
	successMinCode      = http.StatusOK                  // 200
	retryableMinCode    = http.StatusInternalServerError // 500
)

// defaultTransport is a tuned HTTP transport reused across clients.
// Compression is negotiated by Get itself so brotli can be offered.
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ResponseHeaderTimeout: 10 * time.Second,
	ForceAttemptHTTP2:     true,
	DisableCompression:    true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Config holds optional client parameters. Zero values use defaults.
type Config struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string
	ProxyURL  string
}

// Client wraps http.Client with optional retry/backoff, default headers and
// transparent response decompression.
type Client struct {
	HTTPClient *http.Client
	Retries    int
	UserAgent  string
}

// New creates a new Client with a tuned Transport, default timeout and a single attempt per request.
func New() *Client {
	return &Client{
		HTTPClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: defaultTransport,
		},
		Retries:   defaultRetries,
		UserAgent: userAgentValue,
	}
}

// NewWith creates a new client with provided config. Zero values use defaults.
// An unparsable ProxyURL is ignored and the environment proxy is kept.
func NewWith(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = userAgentValue
	}

	tr := defaultTransport.Clone()
	if cfg.ProxyURL != "" {
		if proxyFunc, err := proxyFromURLString(cfg.ProxyURL); err == nil {
			tr.Proxy = proxyFunc
		} else {
			logger.WithComponent(logger.ComponentClient).Warn("ignoring invalid proxy url", logger.Fields{"proxy": cfg.ProxyURL, "error": err})
		}
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
		Retries:   retries,
		UserAgent: ua,
	}
}

// Wrap adapts an existing http.Client. A nil client yields New().
func Wrap(hc *http.Client) *Client {
	c := New()
	if hc != nil {
		c.HTTPClient = hc
	}
	return c
}

// Get performs a GET request for JSON. See Do for retries and decoding.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, nil, nil)
}

// PostJSON sends body as application/json. See Do for retries and decoding.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body []byte, header http.Header) (*http.Response, error) {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", "application/json")
	return c.Do(ctx, http.MethodPost, rawURL, body, h)
}

// Do performs a request. Values in header override the default headers.
// Transport failures and HTTP 5xx responses are retried with exponential
// backoff while attempts remain; with the default of one attempt nothing is
// retried. Any other response is returned as is, its body already
// decompressed.
func (c *Client) Do(ctx context.Context, method, rawURL string, body []byte, header http.Header) (*http.Response, error) {
	log := logger.WithComponent(logger.ComponentClient)

	retries := c.Retries
	if retries < 1 {
		retries = 1
	}
	ua := c.UserAgent
	if ua == "" {
		ua = userAgentValue
	}

	var (
		resp *http.Response
		err  error
	)
	backoff := initialBackoff
	for attempt := 0; attempt < retries; attempt++ {
		var (
			req     *http.Request
			reqBody io.Reader
		)
		if body != nil {
			reqBody = bytes.NewReader(body)
		}
		req, err = http.NewRequestWithContext(ctx, method, rawURL, reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", ua)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Encoding", acceptEncodingValue)
		for k, v := range header {
			req.Header[k] = v
		}

		resp, err = c.HTTPClient.Do(req)
		if err == nil && resp.StatusCode >= successMinCode && resp.StatusCode < retryableMinCode {
			if derr := decodeBody(resp); derr != nil {
				_ = resp.Body.Close()
				return nil, derr
			}
			return resp, nil
		}
		if attempt == retries-1 {
			break
		}
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		log.Debug("retrying request", logger.Fields{"attempt": attempt + 1, "backoff": backoff.String(), "error": err})
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	if err != nil {
		return nil, err
	}
	if derr := decodeBody(resp); derr != nil {
		_ = resp.Body.Close()
		return nil, derr
	}
	return resp, nil
}

type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (b *decodedBody) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// decodeBody replaces resp.Body with a decompressing reader according to Content-Encoding.
func decodeBody(resp *http.Response) error {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return nil
	case "br":
		resp.Body = &decodedBody{Reader: brotli.NewReader(resp.Body), closers: []io.Closer{resp.Body}}
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("create gzip reader: %w", err)
		}
		resp.Body = &decodedBody{Reader: gz, closers: []io.Closer{gz, resp.Body}}
	default:
		return fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

// proxyFromURLString parses a proxy URL and returns a Proxy function.
func proxyFromURLString(raw string) (func(*http.Request) (*url.URL, error), error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("proxy url %q needs scheme and host", raw)
	}
	return http.ProxyURL(u), nil
}
