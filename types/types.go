package types

// Thumbnail references a preview image and its dimensions.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Thumbnails holds the thumbnail variants of a playlist item.
// Only the default variant is consumed.
type Thumbnails struct {
	Default *Thumbnail `json:"default,omitempty"`
}

// ResourceID identifies the video a playlist item points to.
type ResourceID struct {
	Kind    string `json:"kind,omitempty"`
	VideoID string `json:"videoId"`
}

// Snippet is the snippet part of a playlistItems resource.
type Snippet struct {
	Title                  string     `json:"title"`
	Description            string     `json:"description"`
	ChannelTitle           string     `json:"channelTitle,omitempty"`
	VideoOwnerChannelTitle string     `json:"videoOwnerChannelTitle"`
	Position               int        `json:"position,omitempty"`
	Thumbnails             Thumbnails `json:"thumbnails"`
	ResourceID             ResourceID `json:"resourceId"`
}

// PlaylistItem is a raw upstream playlist entry as returned by the API.
type PlaylistItem struct {
	ID      string  `json:"id,omitempty"`
	Snippet Snippet `json:"snippet"`
}

// Page is one batch of raw items plus the cursor of the next batch.
// An empty NextPageToken marks the last page.
type Page struct {
	Items         []PlaylistItem `json:"items"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

// VideoRecord is the compact projection of a playlist item handed to renderers.
type VideoRecord struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelTitle string    `json:"channelTitle"`
	Thumbnail    Thumbnail `json:"thumbnail"`
	VideoID      string    `json:"videoId"`
}

// NewVideoRecord projects a raw item into a VideoRecord.
// A missing default thumbnail yields a zero Thumbnail.
func NewVideoRecord(item PlaylistItem) VideoRecord {
	s := item.Snippet
	rec := VideoRecord{
		Title:        s.Title,
		Description:  s.Description,
		ChannelTitle: s.VideoOwnerChannelTitle,
		VideoID:      s.ResourceID.VideoID,
	}
	if s.Thumbnails.Default != nil {
		rec.Thumbnail = *s.Thumbnails.Default
	}
	return rec
}

// WatchURL returns the canonical watch URL of the record's video.
func (r VideoRecord) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + r.VideoID
}
