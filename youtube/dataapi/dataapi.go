// Package dataapi reads playlist pages from the YouTube Data API v3 over plain HTTP.
package dataapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ytget/ytplfilter/client"
	"github.com/ytget/ytplfilter/errs"
	"github.com/ytget/ytplfilter/internal/logger"
	"github.com/ytget/ytplfilter/types"
)

const (
	// DefaultBaseURL is the Data API v3 root.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	playlistItemsPath = "/playlistItems"
	partSnippet       = "snippet"
	defaultMaxResults = 50
	maxErrorBody      = 64 << 10
)

// Client fetches playlistItems pages with an API key.
type Client struct {
	http       *client.Client
	apiKey     string
	fallback   []string
	baseURL    string
	maxResults int
	log        *logger.ComponentLogger
}

// New creates a Data API client. A nil c uses client.New().
func New(c *client.Client, apiKey string) *Client {
	if c == nil {
		c = client.New()
	}
	return &Client{
		http:       c,
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		maxResults: defaultMaxResults,
		log:        logger.WithComponent(logger.ComponentDataAPI),
	}
}

// WithBaseURL overrides the API root, mainly for tests.
func (c *Client) WithBaseURL(base string) *Client {
	if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
		c.baseURL = base
	}
	return c
}

// WithMaxResults sets the page size. Values outside 1..50 are clamped.
func (c *Client) WithMaxResults(n int) *Client {
	switch {
	case n < 1:
		n = 1
	case n > defaultMaxResults:
		n = defaultMaxResults
	}
	c.maxResults = n
	return c
}

// WithFallbackKeys registers keys tried in order when the current key runs out of quota.
func (c *Client) WithFallbackKeys(keys ...string) *Client {
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			c.fallback = append(c.fallback, k)
		}
	}
	return c
}

// WithLogger routes this client's logs through l.
func (c *Client) WithLogger(l *logger.Logger) *Client {
	if l != nil {
		c.log = l.WithComponent(logger.ComponentDataAPI)
	}
	return c
}

// Page requests one page of playlist items. An empty pageToken requests the first page.
func (c *Client) Page(ctx context.Context, playlistID, pageToken string) (*types.Page, error) {
	keys := append([]string{c.apiKey}, c.fallback...)

	var lastErr error
	for i, key := range keys {
		page, err := c.page(ctx, key, playlistID, pageToken)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !errors.Is(err, errs.ErrQuotaExceeded) || i == len(keys)-1 {
			break
		}
		c.log.Warn("api key out of quota, trying fallback key", logger.Fields{"fallback": i + 1})
	}
	return nil, lastErr
}

func (c *Client) page(ctx context.Context, key, playlistID, pageToken string) (*types.Page, error) {
	reqURL := c.pageURL(key, playlistID, pageToken)
	c.log.Debug("requesting page", logger.Fields{"playlist_id": playlistID, "page_token": pageToken})

	resp, err := c.http.Get(ctx, reqURL)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redactKey(ue.URL)
		}
		return nil, fmt.Errorf("playlistItems request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, decodeAPIError(resp)
	}

	var page types.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode playlistItems page: %v", errs.ErrMalformedPayload, err)
	}
	c.log.Debug("page received", logger.Fields{"items": len(page.Items), "next_page_token": page.NextPageToken})
	return &page, nil
}

func (c *Client) pageURL(key, playlistID, pageToken string) string {
	q := url.Values{}
	q.Set("part", partSnippet)
	q.Set("playlistId", playlistID)
	q.Set("key", key)
	q.Set("maxResults", strconv.Itoa(c.maxResults))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	return c.baseURL + playlistItemsPath + "?" + q.Encode()
}

// redactKey hides the API key of a request URL so it never reaches logs or errors.
func redactKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// errorEnvelope is the Google API error body.
type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
}

// decodeAPIError builds an *errs.APIError from a non-success response.
// Bodies that are not a Google error envelope keep only the status code.
func decodeAPIError(resp *http.Response) error {
	apiErr := &errs.APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}
	var env errorEnvelope
	if json.Unmarshal(body, &env) != nil {
		if msg := strings.TrimSpace(string(body)); msg != "" && len(msg) < 200 {
			apiErr.Message = msg
		}
		return apiErr
	}
	apiErr.Message = env.Error.Message
	if len(env.Error.Errors) > 0 {
		apiErr.Reason = env.Error.Errors[0].Reason
	}
	return apiErr
}
