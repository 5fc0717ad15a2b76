package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestToSafeFilename_Basics(t *testing.T) {
	got := ToSafeFilename("Hello:/\\*?\"<>| World", "json")
	if got != "Hello_ World.json" {
		t.Fatalf("got %q", got)
	}
}

func TestToSafeFilename_Defaults(t *testing.T) {
	cases := map[string]string{
		"":        "playlist.json",
		" ... ":   "playlist.json",
		"a\tb\nc": "a b c.json",
		"a\r\n b": "a b.json",
		"a\x01b":  "a_b.json",
	}
	for in, want := range cases {
		if got := ToSafeFilename(in, ""); got != want {
			t.Fatalf("%q -> got %q want %q", in, got, want)
		}
	}
	if got := ToSafeFilename("x", ".CSV"); got != "x.csv" {
		t.Fatalf("ext -> got %q", got)
	}
}

func TestToSafeFilename_Long(t *testing.T) {
	title := strings.Repeat("é", 200)
	got := ToSafeFilename(title, "json")
	if len(got) > MaxFilenameLength+len(".json") {
		t.Fatalf("too long: %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("cut inside a rune: %q", got)
	}
}

func TestResultsFilename(t *testing.T) {
	if got := ResultsFilename("PLabc", `"go concurrency" -rust`); got != "PLabc - _go concurrency_ -rust.json" {
		t.Fatalf("got %q", got)
	}
	if got := ResultsFilename("PLabc", "  "); got != "PLabc.json" {
		t.Fatalf("got %q", got)
	}
}
