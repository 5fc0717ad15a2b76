// Package playlist retrieves a whole playlist page by page and keeps the items
// that satisfy a keyword query.
package playlist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ytget/ytplfilter/errs"
	"github.com/ytget/ytplfilter/filter"
	"github.com/ytget/ytplfilter/internal/logger"
	"github.com/ytget/ytplfilter/query"
	"github.com/ytget/ytplfilter/types"
)

// Descriptions YouTube gives to entries whose video is gone or hidden.
const (
	UnavailableDescription = "This video is unavailable."
	PrivateDescription     = "This video is private."
)

// PageSource returns one page of a playlist. An empty pageToken asks for the
// first page; an empty NextPageToken in the result ends the playlist.
type PageSource interface {
	Page(ctx context.Context, playlistID, pageToken string) (*types.Page, error)
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc func(ctx context.Context, playlistID, pageToken string) (*types.Page, error)

// Page calls f.
func (f PageSourceFunc) Page(ctx context.Context, playlistID, pageToken string) (*types.Page, error) {
	return f(ctx, playlistID, pageToken)
}

// Fetcher walks all pages of a playlist sequentially.
type Fetcher struct {
	src      PageSource
	limiter  *rate.Limiter
	maxPages int
	log      *logger.Logger
}

// New creates a Fetcher reading from src.
func New(src PageSource) *Fetcher {
	return &Fetcher{src: src}
}

// WithRateLimit paces page requests to r per second with the given burst.
// A zero or infinite r disables pacing.
func (f *Fetcher) WithRateLimit(r rate.Limit, burst int) *Fetcher {
	if r <= 0 || r == rate.Inf {
		f.limiter = nil
		return f
	}
	if burst < 1 {
		burst = 1
	}
	f.limiter = rate.NewLimiter(r, burst)
	return f
}

// WithMaxPages caps the number of page requests per Fetch. Zero means no cap.
func (f *Fetcher) WithMaxPages(n int) *Fetcher {
	if n < 0 {
		n = 0
	}
	f.maxPages = n
	return f
}

// WithLogger sets the logger. Nil falls back to the global logger.
func (f *Fetcher) WithLogger(l *logger.Logger) *Fetcher {
	f.log = l
	return f
}

// Fetch returns, in upstream order, the records of every item of the playlist
// that matches terms over fields. Entries describing unavailable or private
// videos are dropped. Any page failure fails the whole call without a partial
// result.
func (f *Fetcher) Fetch(ctx context.Context, playlistID string, fields filter.Fields, terms []query.Term) ([]types.VideoRecord, error) {
	if playlistID == "" {
		return nil, errs.ErrEmptyPlaylistID
	}

	log := f.componentLogger().With(logger.Fields{"search_id": newSearchID(), "playlist_id": playlistID})
	started := time.Now()

	var (
		records []types.VideoRecord
		token   string
		pages   int
		scanned int
		seen    = make(map[string]bool)
	)
	for {
		if f.maxPages > 0 && pages >= f.maxPages {
			return nil, fmt.Errorf("%w: %d pages", errs.ErrTooManyPages, f.maxPages)
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := f.src.Page(ctx, playlistID, token)
		if err != nil {
			log.Error("page request failed", logger.Fields{"page": pages + 1, "error": err})
			return nil, fmt.Errorf("fetch page %d of playlist %s: %w", pages+1, playlistID, err)
		}
		if page == nil {
			return nil, fmt.Errorf("fetch page %d of playlist %s: %w: empty response", pages+1, playlistID, errs.ErrMalformedPayload)
		}
		pages++

		passed := 0
		for _, item := range page.Items {
			if filter.Match(item, fields, terms) {
				records = append(records, types.NewVideoRecord(item))
				passed++
			}
		}
		scanned += len(page.Items)
		log.Debug("page processed", logger.Fields{"page": pages, "items": len(page.Items), "passed": passed})

		if page.NextPageToken == "" {
			break
		}
		if seen[page.NextPageToken] {
			return nil, fmt.Errorf("playlist %s: %w: %q", playlistID, errs.ErrPaginationLoop, page.NextPageToken)
		}
		seen[page.NextPageToken] = true
		token = page.NextPageToken
	}

	records = DropUnavailable(records)
	log.Info("playlist fetched", logger.Fields{
		"pages":    pages,
		"scanned":  scanned,
		"matched":  len(records),
		"duration": time.Since(started).Round(time.Millisecond).String(),
	})
	return records, nil
}

// DropUnavailable removes records whose description is exactly one of the
// unavailable/private sentinels. Order is kept; records is reused.
func DropUnavailable(records []types.VideoRecord) []types.VideoRecord {
	out := records[:0]
	for _, r := range records {
		if r.Description == UnavailableDescription || r.Description == PrivateDescription {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (f *Fetcher) componentLogger() *logger.ComponentLogger {
	if f.log != nil {
		return f.log.WithComponent(logger.ComponentFetcher)
	}
	return logger.WithComponent(logger.ComponentFetcher)
}

func newSearchID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
