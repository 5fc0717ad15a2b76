package types

import (
	"encoding/json"
	"testing"
)

func TestNewVideoRecord(t *testing.T) {
	item := PlaylistItem{
		Snippet: Snippet{
			Title:                  "Test Video",
			Description:            "about things",
			ChannelTitle:           "Playlist Owner",
			VideoOwnerChannelTitle: "Uploader",
			Thumbnails: Thumbnails{
				Default: &Thumbnail{URL: "https://i.ytimg.com/vi/abc123/default.jpg", Width: 120, Height: 90},
			},
			ResourceID: ResourceID{Kind: "youtube#video", VideoID: "abc123"},
		},
	}

	rec := NewVideoRecord(item)

	if rec.Title != "Test Video" {
		t.Errorf("Expected Title 'Test Video', got '%s'", rec.Title)
	}
	if rec.Description != "about things" {
		t.Errorf("Expected Description 'about things', got '%s'", rec.Description)
	}
	if rec.ChannelTitle != "Uploader" {
		t.Errorf("Expected ChannelTitle from video owner 'Uploader', got '%s'", rec.ChannelTitle)
	}
	if rec.VideoID != "abc123" {
		t.Errorf("Expected VideoID 'abc123', got '%s'", rec.VideoID)
	}
	if rec.Thumbnail.Width != 120 || rec.Thumbnail.Height != 90 {
		t.Errorf("Expected 120x90 thumbnail, got %dx%d", rec.Thumbnail.Width, rec.Thumbnail.Height)
	}
}

func TestNewVideoRecordWithoutThumbnail(t *testing.T) {
	rec := NewVideoRecord(PlaylistItem{Snippet: Snippet{Title: "x"}})

	if rec.Thumbnail != (Thumbnail{}) {
		t.Errorf("Expected zero thumbnail, got %+v", rec.Thumbnail)
	}
}

func TestPageDecode(t *testing.T) {
	body := `{
		"items": [
			{"snippet": {"title": "A", "description": "d", "videoOwnerChannelTitle": "c",
				"thumbnails": {"default": {"url": "u", "width": 120, "height": 90}},
				"resourceId": {"videoId": "v1"}}}
		],
		"nextPageToken": "CAUQAA"
	}`

	var page Page
	if err := json.Unmarshal([]byte(body), &page); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(page.Items))
	}
	if page.NextPageToken != "CAUQAA" {
		t.Errorf("Expected NextPageToken 'CAUQAA', got '%s'", page.NextPageToken)
	}
	if got := page.Items[0].Snippet.ResourceID.VideoID; got != "v1" {
		t.Errorf("Expected videoId 'v1', got '%s'", got)
	}
}

func TestVideoRecordJSON(t *testing.T) {
	rec := VideoRecord{Title: "t", VideoID: "v", Thumbnail: Thumbnail{URL: "u", Width: 1, Height: 2}}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"title":"t","description":"","channelTitle":"","thumbnail":{"url":"u","width":1,"height":2},"videoId":"v"}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

func TestWatchURL(t *testing.T) {
	rec := VideoRecord{VideoID: "dQw4w9WgXcQ"}
	if got := rec.WatchURL(); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("unexpected watch url %q", got)
	}
}
