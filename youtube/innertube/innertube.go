// Package innertube reads playlist pages from the youtubei browse endpoint
// used by the YouTube web client. It needs no Data API key, but playlist
// renderers carry no video descriptions.
package innertube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ytget/ytplfilter/client"
	"github.com/ytget/ytplfilter/errs"
	"github.com/ytget/ytplfilter/internal/logger"
	"github.com/ytget/ytplfilter/playlist"
	"github.com/ytget/ytplfilter/types"
)

const (
	// DefaultBaseURL is the web origin the browse endpoint lives on.
	DefaultBaseURL = "https://www.youtube.com"

	browsePath           = "/youtubei/v1/browse"
	playlistPath         = "/playlist"
	clientNameWEB        = "WEB"
	clientCodeWEB        = "1"
	defaultClientVersion = "2.20250312.04.00"
	browseIDPrefix       = "VL"
	maxConfigPageBytes   = 4 << 20

	privateVideoTitle = "[Private video]"
	deletedVideoTitle = "[Deleted video]"
)

var (
	apiKeyRe    = regexp.MustCompile(`"INNERTUBE_API_KEY":"([^"]+)"`)
	clientVerRe = regexp.MustCompile(`"INNERTUBE_CLIENT_VERSION":"([^"]+)"`)
)

// Source fetches playlist pages as the WEB client does.
type Source struct {
	http    *client.Client
	baseURL string
	log     *logger.ComponentLogger

	mu         sync.Mutex
	configured bool
	apiKey     string
	clientVer  string
}

// New creates a Source. A nil c uses client.New().
func New(c *client.Client) *Source {
	if c == nil {
		c = client.New()
	}
	return &Source{
		http:    c,
		baseURL: DefaultBaseURL,
		log:     logger.WithComponent(logger.ComponentInnertube),
	}
}

// WithBaseURL overrides the web origin, mainly for tests.
func (s *Source) WithBaseURL(base string) *Source {
	if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
		s.baseURL = base
	}
	return s
}

// WithClientVersion pins the WEB client version and skips reading it from
// the playlist page.
func (s *Source) WithClientVersion(version string) *Source {
	if version = strings.TrimSpace(version); version != "" {
		s.mu.Lock()
		s.clientVer = version
		s.configured = true
		s.mu.Unlock()
	}
	return s
}

// WithLogger routes this source's logs through l.
func (s *Source) WithLogger(l *logger.Logger) *Source {
	if l != nil {
		s.log = l.WithComponent(logger.ComponentInnertube)
	}
	return s
}

type browseRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
			HL            string `json:"hl"`
			GL            string `json:"gl"`
		} `json:"client"`
	} `json:"context"`
	BrowseID     string `json:"browseId,omitempty"`
	Continuation string `json:"continuation,omitempty"`
}

// Page requests one page of playlist items. The first page is addressed by
// playlist ID; later pages by the continuation token of the previous one.
func (s *Source) Page(ctx context.Context, playlistID, pageToken string) (*types.Page, error) {
	apiKey, clientVer := s.config(ctx, playlistID)

	var body browseRequest
	body.Context.Client.ClientName = clientNameWEB
	body.Context.Client.ClientVersion = clientVer
	body.Context.Client.HL = "en"
	body.Context.Client.GL = "US"
	if pageToken == "" {
		body.BrowseID = browseIDPrefix + playlistID
	} else {
		body.Continuation = pageToken
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("prettyPrint", "false")
	if apiKey != "" {
		q.Set("key", apiKey)
	}
	header := http.Header{}
	header.Set("X-YouTube-Client-Name", clientCodeWEB)
	header.Set("X-YouTube-Client-Version", clientVer)
	header.Set("Origin", s.baseURL)
	header.Set("Referer", s.baseURL+"/")

	s.log.Debug("requesting page", logger.Fields{"playlist_id": playlistID, "page_token": pageToken})
	resp, err := s.http.PostJSON(ctx, s.baseURL+browsePath+"?"+q.Encode(), payload, header)
	if err != nil {
		return nil, fmt.Errorf("browse request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(resp)
	}

	var root any
	if err := json.NewDecoder(resp.Body).Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: decode browse response: %v", errs.ErrMalformedPayload, err)
	}

	page := &types.Page{NextPageToken: findContinuationToken(root)}
	collectPlaylistVideoRenderers(root, &page.Items)
	if len(page.Items) == 0 && pageToken == "" {
		if msg := findErrorAlert(root); msg != "" {
			return nil, &errs.APIError{StatusCode: http.StatusNotFound, Reason: "playlistNotFound", Message: msg}
		}
	}
	s.log.Debug("page received", logger.Fields{"items": len(page.Items), "next_page_token": page.NextPageToken})
	return page, nil
}

// config returns the key and client version scraped once from the playlist
// page. Scraping failures fall back to no key and a known client version.
func (s *Source) config(ctx context.Context, playlistID string) (apiKey, clientVer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.configured {
		return s.apiKey, s.clientVer
	}

	pageURL := s.baseURL + playlistPath + "?" + url.Values{"list": {playlistID}}.Encode()
	resp, err := s.http.Do(ctx, http.MethodGet, pageURL, nil, http.Header{"Accept": {"text/html"}})
	if err == nil {
		body, rerr := io.ReadAll(io.LimitReader(resp.Body, maxConfigPageBytes))
		_ = resp.Body.Close()
		if rerr == nil {
			if m := apiKeyRe.FindSubmatch(body); len(m) == 2 {
				s.apiKey = string(m[1])
			}
			if m := clientVerRe.FindSubmatch(body); len(m) == 2 {
				s.clientVer = string(m[1])
			}
		}
	} else {
		s.log.Debug("playlist page not readable, using defaults", logger.Fields{"error": err})
	}
	if s.clientVer == "" {
		s.clientVer = defaultClientVersion
	}
	// Cancellation must not pin the fallback config for later calls.
	if ctx.Err() == nil {
		s.configured = true
	}
	return s.apiKey, s.clientVer
}

func statusError(resp *http.Response) error {
	apiErr := &errs.APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&envelope) == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
	}
	if resp.StatusCode == http.StatusNotFound {
		apiErr.Reason = "playlistNotFound"
	}
	return apiErr
}

func collectPlaylistVideoRenderers(node any, out *[]types.PlaylistItem) {
	switch v := node.(type) {
	case map[string]any:
		if r, ok := v["playlistVideoRenderer"].(map[string]any); ok {
			*out = append(*out, convertRenderer(r))
			return
		}
		// Sorted keys keep the walk deterministic.
		for _, key := range sortedKeys(v) {
			collectPlaylistVideoRenderers(v[key], out)
		}
	case []any:
		for _, val := range v {
			collectPlaylistVideoRenderers(val, out)
		}
	}
}

func convertRenderer(r map[string]any) types.PlaylistItem {
	var it types.PlaylistItem
	sn := &it.Snippet
	sn.ResourceID = types.ResourceID{Kind: "youtube#video"}
	sn.ResourceID.VideoID, _ = r["videoId"].(string)
	it.ID = sn.ResourceID.VideoID
	sn.Title = textOf(r["title"])
	sn.VideoOwnerChannelTitle = textOf(r["shortBylineText"])
	if n, err := strconv.Atoi(textOf(r["index"])); err == nil && n > 0 {
		sn.Position = n - 1
	}
	if th, ok := r["thumbnail"].(map[string]any); ok {
		if list, ok := th["thumbnails"].([]any); ok && len(list) > 0 {
			if first, ok := list[0].(map[string]any); ok {
				t := &types.Thumbnail{}
				t.URL, _ = first["url"].(string)
				if w, ok := first["width"].(float64); ok {
					t.Width = int(w)
				}
				if h, ok := first["height"].(float64); ok {
					t.Height = int(h)
				}
				sn.Thumbnails.Default = t
			}
		}
	}
	// Renderers carry no description; unplayable entries get the sentinel
	// descriptions the Data API uses so they are dropped the same way.
	if playable, ok := r["isPlayable"].(bool); ok && !playable {
		switch sn.Title {
		case privateVideoTitle:
			sn.Description = playlist.PrivateDescription
		default:
			sn.Description = playlist.UnavailableDescription
		}
	} else if sn.Title == privateVideoTitle {
		sn.Description = playlist.PrivateDescription
	} else if sn.Title == deletedVideoTitle {
		sn.Description = playlist.UnavailableDescription
	}
	return it
}

// textOf flattens {"simpleText": ...} and {"runs": [{"text": ...}]} nodes.
func textOf(node any) string {
	m, ok := node.(map[string]any)
	if !ok {
		return ""
	}
	if s, ok := m["simpleText"].(string); ok {
		return s
	}
	runs, _ := m["runs"].([]any)
	var b strings.Builder
	for _, run := range runs {
		if rm, ok := run.(map[string]any); ok {
			if s, ok := rm["text"].(string); ok {
				b.WriteString(s)
			}
		}
	}
	return b.String()
}

// findContinuationToken returns the token of the playlist's trailing
// continuationItemRenderer, or of the older nextContinuationData form.
func findContinuationToken(node any) string {
	switch v := node.(type) {
	case map[string]any:
		if r, ok := v["continuationItemRenderer"].(map[string]any); ok {
			if ep, ok := r["continuationEndpoint"].(map[string]any); ok {
				if cc, ok := ep["continuationCommand"].(map[string]any); ok {
					if tok, ok := cc["token"].(string); ok && tok != "" {
						return tok
					}
				}
			}
		}
		if nd, ok := v["nextContinuationData"].(map[string]any); ok {
			if tok, ok := nd["continuation"].(string); ok && tok != "" {
				return tok
			}
		}
		for _, key := range sortedKeys(v) {
			if t := findContinuationToken(v[key]); t != "" {
				return t
			}
		}
	case []any:
		for _, val := range v {
			if t := findContinuationToken(val); t != "" {
				return t
			}
		}
	}
	return ""
}

// findErrorAlert returns the text of the first ERROR alert, as sent for
// playlists that do not exist or are private.
func findErrorAlert(root any) string {
	m, ok := root.(map[string]any)
	if !ok {
		return ""
	}
	alerts, _ := m["alerts"].([]any)
	for _, a := range alerts {
		am, _ := a.(map[string]any)
		for _, key := range []string{"alertRenderer", "alertWithButtonRenderer"} {
			r, ok := am[key].(map[string]any)
			if !ok {
				continue
			}
			if typ, _ := r["type"].(string); typ == "ERROR" {
				return textOf(r["text"])
			}
		}
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
