// Package ytplfilter searches a YouTube playlist for videos whose title,
// description or channel match a keyword query.
//
//	s := ytplfilter.New(apiKey)
//	videos, err := s.Search(ctx, ytplfilter.Request{
//		PlaylistURL: "https://www.youtube.com/playlist?list=PL...",
//		Query:       `"live session" -remix`,
//		Fields:      filter.AllFields,
//	})
package ytplfilter

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/ytget/ytplfilter/client"
	"github.com/ytget/ytplfilter/errs"
	"github.com/ytget/ytplfilter/filter"
	"github.com/ytget/ytplfilter/internal/logger"
	"github.com/ytget/ytplfilter/playlist"
	"github.com/ytget/ytplfilter/query"
	"github.com/ytget/ytplfilter/types"
	"github.com/ytget/ytplfilter/youtube/dataapi"
)

// VideoRecord is one matching playlist entry.
type VideoRecord = types.VideoRecord

// Request is one search: a playlist URL (or bare ID), a query and the fields
// the query is matched against.
type Request struct {
	PlaylistURL string
	Query       string
	Fields      filter.Fields
}

// Searcher runs playlist searches. It holds no per-search state and may be
// used from several goroutines.
type Searcher struct {
	apiKey       string
	fallbackKeys []string
	http         *client.Client
	src          playlist.PageSource
	pageRate     rate.Limit
	pageBurst    int
	maxPages     int
	log          *logger.Logger
}

// New creates a Searcher that reads pages from the Data API with apiKey.
func New(apiKey string) *Searcher {
	return &Searcher{apiKey: apiKey, http: client.New()}
}

// WithHTTPClient sets a custom HTTP client for Data API requests.
func (s *Searcher) WithHTTPClient(hc *http.Client) *Searcher {
	s.http = client.Wrap(hc)
	return s
}

// WithClient sets a configured client (retries, user agent, proxy).
func (s *Searcher) WithClient(c *client.Client) *Searcher {
	if c == nil {
		c = client.New()
	}
	s.http = c
	return s
}

// Client returns the HTTP client used for Data API requests.
func (s *Searcher) Client() *client.Client {
	return s.http
}

// WithFallbackKeys adds keys used when the primary key runs out of quota.
func (s *Searcher) WithFallbackKeys(keys ...string) *Searcher {
	s.fallbackKeys = append(s.fallbackKeys, keys...)
	return s
}

// WithSource replaces the Data API with another page source. API key, client
// and fallback keys are then unused.
func (s *Searcher) WithSource(src playlist.PageSource) *Searcher {
	s.src = src
	return s
}

// WithRateLimit paces page requests. Zero disables pacing.
func (s *Searcher) WithRateLimit(r rate.Limit, burst int) *Searcher {
	s.pageRate = r
	s.pageBurst = burst
	return s
}

// WithMaxPages caps page requests per search. Zero means no cap.
func (s *Searcher) WithMaxPages(n int) *Searcher {
	s.maxPages = n
	return s
}

// WithLogger sets the logger for the searcher and the default source.
func (s *Searcher) WithLogger(l *logger.Logger) *Searcher {
	s.log = l
	return s
}

// Search resolves the playlist, parses the query and returns the matching
// records in playlist order. URL and query errors are reported before any
// request is made.
func (s *Searcher) Search(ctx context.Context, req Request) ([]VideoRecord, error) {
	playlistID, err := ResolvePlaylistID(req.PlaylistURL)
	if err != nil {
		return nil, fmt.Errorf("playlist url %q: %w", req.PlaylistURL, err)
	}
	terms, err := query.Parse(req.Query)
	if err != nil {
		return nil, err
	}
	s.queryLogger().Debug("query parsed", logger.Fields{"query": req.Query, "terms": len(terms), "fields": req.Fields})
	src, err := s.source()
	if err != nil {
		return nil, err
	}

	f := playlist.New(src).
		WithRateLimit(s.pageRate, s.pageBurst).
		WithMaxPages(s.maxPages).
		WithLogger(s.log)
	return f.Fetch(ctx, playlistID, req.Fields, terms)
}

func (s *Searcher) source() (playlist.PageSource, error) {
	if s.src != nil {
		return s.src, nil
	}
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: no api key", errs.ErrInvalidCredential)
	}
	return dataapi.New(s.http, s.apiKey).
		WithFallbackKeys(s.fallbackKeys...).
		WithLogger(s.log), nil
}

func (s *Searcher) queryLogger() *logger.ComponentLogger {
	if s.log != nil {
		return s.log.WithComponent(logger.ComponentQuery)
	}
	return logger.WithComponent(logger.ComponentQuery)
}
