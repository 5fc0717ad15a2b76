package ytplfilter

import (
	"strings"

	"github.com/ytget/ytplfilter/errs"
)

const listMarker = "list="

// Bare playlist identifiers start with one of these.
var playlistIDPrefixes = []string{"PL", "UU", "LL", "FL", "OLAK5uy_", "RD"}

// ExtractPlaylistID returns the text after the first "list=" in rawURL, up to
// the next '&' or the end of the string. The input is not otherwise parsed:
// "https://youtube.com/watch?v=x&list=ABC&index=2" yields "ABC".
func ExtractPlaylistID(rawURL string) (string, error) {
	i := strings.Index(rawURL, listMarker)
	if i < 0 {
		return "", errs.ErrNoPlaylistMarker
	}
	id := rawURL[i+len(listMarker):]
	if j := strings.IndexByte(id, '&'); j >= 0 {
		id = id[:j]
	}
	if id == "" {
		return "", errs.ErrEmptyPlaylistID
	}
	return id, nil
}

// ResolvePlaylistID accepts either a playlist URL or a bare playlist ID.
func ResolvePlaylistID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errs.ErrEmptyPlaylistID
	}
	id, err := ExtractPlaylistID(input)
	if err == nil || !isBareID(input) {
		return id, err
	}
	return input, nil
}

func isBareID(s string) bool {
	if strings.ContainsAny(s, "/?&=: ") {
		return false
	}
	for _, p := range playlistIDPrefixes {
		if strings.HasPrefix(s, p) && len(s) > len(p) {
			return true
		}
	}
	return false
}
