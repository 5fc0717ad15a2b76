// Package apiv3 reads playlist pages through the official google.golang.org/api client.
package apiv3

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/ytget/ytplfilter/errs"
	"github.com/ytget/ytplfilter/internal/logger"
	"github.com/ytget/ytplfilter/types"
)

const (
	partSnippet       = "snippet"
	defaultMaxResults = 50
)

// Source adapts a *youtube.Service to the page source contract.
type Source struct {
	svc        *youtube.Service
	maxResults int64
	log        *logger.ComponentLogger
}

// New wraps an existing service.
func New(svc *youtube.Service) *Source {
	return &Source{
		svc:        svc,
		maxResults: defaultMaxResults,
		log:        logger.WithComponent(logger.ComponentAPIv3),
	}
}

// NewWithKey builds a service authenticated by an API key. Extra options are
// applied after the key, e.g. option.WithEndpoint in tests.
func NewWithKey(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Source, error) {
	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return New(svc), nil
}

// KeyedHTTPClient returns a copy of hc whose requests carry apiKey. Pass it
// with option.WithHTTPClient, which overrides option.WithAPIKey.
func KeyedHTTPClient(hc *http.Client, apiKey string) *http.Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	keyed := *hc
	keyed.Transport = &transport.APIKey{Key: apiKey, Transport: base}
	return &keyed
}

// WithLogger routes this source's logs through l.
func (s *Source) WithLogger(l *logger.Logger) *Source {
	if l != nil {
		s.log = l.WithComponent(logger.ComponentAPIv3)
	}
	return s
}

// Page requests one page of playlist items. An empty pageToken requests the first page.
func (s *Source) Page(ctx context.Context, playlistID, pageToken string) (*types.Page, error) {
	call := s.svc.PlaylistItems.List([]string{partSnippet}).
		PlaylistId(playlistID).
		MaxResults(s.maxResults).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	s.log.Debug("requesting page", logger.Fields{"playlist_id": playlistID, "page_token": pageToken})
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("playlistItems.list: %w", convertError(err))
	}
	return convertPage(resp), nil
}

func convertPage(resp *youtube.PlaylistItemListResponse) *types.Page {
	page := &types.Page{
		Items:         make([]types.PlaylistItem, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, it := range resp.Items {
		if it == nil {
			continue
		}
		page.Items = append(page.Items, convertItem(it))
	}
	return page
}

func convertItem(it *youtube.PlaylistItem) types.PlaylistItem {
	out := types.PlaylistItem{ID: it.Id}
	sn := it.Snippet
	if sn == nil {
		return out
	}
	out.Snippet = types.Snippet{
		Title:                  sn.Title,
		Description:            sn.Description,
		ChannelTitle:           sn.ChannelTitle,
		VideoOwnerChannelTitle: sn.VideoOwnerChannelTitle,
		Position:               int(sn.Position),
	}
	if sn.ResourceId != nil {
		out.Snippet.ResourceID = types.ResourceID{Kind: sn.ResourceId.Kind, VideoID: sn.ResourceId.VideoId}
	}
	if sn.Thumbnails != nil && sn.Thumbnails.Default != nil {
		th := sn.Thumbnails.Default
		out.Snippet.Thumbnails.Default = &types.Thumbnail{URL: th.Url, Width: int(th.Width), Height: int(th.Height)}
	}
	return out
}

// convertError maps *googleapi.Error onto *errs.APIError; other errors pass through.
func convertError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	apiErr := &errs.APIError{StatusCode: gerr.Code, Message: gerr.Message}
	if len(gerr.Errors) > 0 {
		apiErr.Reason = gerr.Errors[0].Reason
	}
	return apiErr
}
