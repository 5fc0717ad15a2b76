package apiv3

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/ytget/ytplfilter/errs"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	src, err := NewWithKey(context.Background(), "test-key",
		option.WithEndpoint(server.URL+"/"),
	)
	require.NoError(t, err)
	return src
}

func TestPage(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/playlistItems", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "snippet", q.Get("part"))
		assert.Equal(t, "PL1", q.Get("playlistId"))
		assert.Equal(t, "50", q.Get("maxResults"))
		assert.Equal(t, "tok", q.Get("pageToken"))
		assert.Equal(t, "test-key", q.Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"nextPageToken": "tok2",
			"items": []map[string]any{{
				"id": "item1",
				"snippet": map[string]any{
					"title":                  "Title",
					"description":            "Desc",
					"videoOwnerChannelTitle": "Owner",
					"position":               3,
					"thumbnails": map[string]any{
						"default": map[string]any{"url": "https://i.ytimg.com/vi/v1/default.jpg", "width": 120, "height": 90},
					},
					"resourceId": map[string]any{"kind": "youtube#video", "videoId": "v1"},
				},
			}},
		})
	})

	page, err := src.Page(context.Background(), "PL1", "tok")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "tok2", page.NextPageToken)

	sn := page.Items[0].Snippet
	assert.Equal(t, "Title", sn.Title)
	assert.Equal(t, "Desc", sn.Description)
	assert.Equal(t, "Owner", sn.VideoOwnerChannelTitle)
	assert.Equal(t, 3, sn.Position)
	assert.Equal(t, "v1", sn.ResourceID.VideoID)
	require.NotNil(t, sn.Thumbnails.Default)
	assert.Equal(t, 120, sn.Thumbnails.Default.Width)
}

func TestPage_MissingSnippetParts(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"id":"a"},{"id":"b","snippet":{"title":"t"}}]}`))
	})

	page, err := src.Page(context.Background(), "PL1", "")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].ID)
	assert.Nil(t, page.Items[1].Snippet.Thumbnails.Default)
	assert.Empty(t, page.NextPageToken)
}

func TestPage_Error(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded","message":"quota"}]}}`))
	})

	_, err := src.Page(context.Background(), "PL1", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrQuotaExceeded), "got %v", err)

	var apiErr *errs.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestConvertErrorPassthrough(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, convertError(plain))
}

func TestKeyedHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	hc := KeyedHTTPClient(&http.Client{}, "custom-key")
	src, err := NewWithKey(context.Background(), "ignored",
		option.WithHTTPClient(hc),
		option.WithEndpoint(server.URL+"/"),
	)
	require.NoError(t, err)

	page, err := src.Page(context.Background(), "PL1", "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}
