// Package sanitize turns playlist IDs and query text into file names that are
// safe on every desktop OS.
package sanitize

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxFilenameLength is the maximum allowed length in bytes for the filename base.
	MaxFilenameLength = 120
	// DefaultExt is used when no extension is given.
	DefaultExt = "json"
	// DefaultName replaces a base that sanitizes to nothing.
	DefaultName = "playlist"
)

var (
	unsafeChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)
	spaces      = regexp.MustCompile(`\s+`)
)

// ToSafeFilename builds a cross-platform safe filename from base and ext
// (with or without the leading dot). Long bases are cut on a rune boundary.
func ToSafeFilename(base, ext string) string {
	name := spaces.ReplaceAllString(base, " ")
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if len(name) > MaxFilenameLength {
		name = name[:MaxFilenameLength]
		for !utf8.ValidString(name) {
			name = name[:len(name)-1]
		}
		name = strings.TrimRight(name, " .")
	}
	if name == "" {
		name = DefaultName
	}
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = DefaultExt
	}
	return filepath.Clean(name + "." + ext)
}

// ResultsFilename names the file saved for a search over playlistID with the
// given raw query, e.g. "PLabc - go concurrency.json".
func ResultsFilename(playlistID, rawQuery string) string {
	base := strings.TrimSpace(playlistID)
	if q := strings.TrimSpace(rawQuery); q != "" {
		base += " - " + q
	}
	return ToSafeFilename(base, DefaultExt)
}
