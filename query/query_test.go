package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytplfilter/errs"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Term
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "foo", want: []Term{Plain("foo")}},
		{name: "plain and negated", raw: "foo -bar", want: []Term{Plain("foo"), Not("bar")}},
		{name: "phrase first", raw: `"hello world" test`, want: []Term{Plain("hello world"), Plain("test")}},
		{name: "phrase in middle", raw: `a "b c" d`, want: []Term{Plain("b c"), Plain("a"), Plain("d")}},
		{name: "two phrases", raw: `"x y" mid "z w"`, want: []Term{Plain("x y"), Plain("z w"), Plain("mid")}},
		{name: "negated phrase text", raw: `"-live set" mix`, want: []Term{Not("live set"), Plain("mix")}},
		{name: "consecutive spaces", raw: "foo   bar", want: []Term{Plain("foo"), Plain("bar")}},
		{name: "lone dash", raw: "foo -", want: []Term{Plain("foo")}},
		{name: "phrase glued to word", raw: `ab"c d"ef`, want: []Term{Plain("c d"), Plain("abef")}},
		{name: "case folded", raw: "Foo -BAR", want: []Term{Plain("foo"), Not("bar")}},
		{name: "double dash", raw: "--x", want: []Term{Not("-x")}},
		{name: "line breaks split", raw: "foo\tbar\r\nbaz", want: []Term{Plain("foo"), Plain("bar"), Plain("baz")}},
		{name: "line break in phrase", raw: "\"hello\nworld\"", want: []Term{Plain("hello world")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		target error
		offset int
	}{
		{name: "unterminated", raw: `foo "bar baz`, target: errs.ErrUnterminatedQuote, offset: 4},
		{name: "unterminated after phrase", raw: `"a b" c "d`, target: errs.ErrUnterminatedQuote, offset: 8},
		{name: "empty phrase", raw: `foo "" bar`, target: errs.ErrEmptyPhrase, offset: 4},
		{name: "single quote char", raw: `"`, target: errs.ErrUnterminatedQuote, offset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms, err := Parse(tt.raw)
			require.Error(t, err)
			assert.Nil(t, terms, "no partial result on syntax error")
			assert.True(t, errors.Is(err, tt.target), "got %v", err)

			var se *errs.SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.offset, se.Offset)
			assert.Equal(t, tt.raw, se.Query)
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	for _, raw := range []string{`"hello world" test -spam`, "a  b -c", `x "-y z"`} {
		first, err := Parse(raw)
		require.NoError(t, err)
		second, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, first, second, raw)
	}
}

func TestTermSatisfied(t *testing.T) {
	text := "say hello world now"

	assert.True(t, Plain("hello world").Satisfied(text))
	assert.False(t, Plain("goodbye").Satisfied(text))
	assert.True(t, Not("goodbye").Satisfied(text))
	assert.False(t, Not("hello").Satisfied(text))
	assert.True(t, Plain("").Satisfied(""), "empty term is vacuously true")
	assert.True(t, Not("").Satisfied("anything"), "empty negated term is vacuously true")
}

func TestTermString(t *testing.T) {
	assert.Equal(t, "foo", Plain("foo").String())
	assert.Equal(t, "-foo", Not("foo").String())
	assert.Equal(t, `"a b"`, Plain("a b").String())
	assert.Equal(t, `"-a b"`, Not("a b").String())
}

func TestTermString_RoundTrip(t *testing.T) {
	for _, term := range []Term{Plain("foo"), Not("foo"), Plain("a b"), Not("a b")} {
		got, err := Parse(term.String())
		require.NoError(t, err)
		assert.Equal(t, []Term{term}, got)
	}
}

func TestMustParse(t *testing.T) {
	assert.Equal(t, []Term{Plain("a")}, MustParse("a"))
	assert.Panics(t, func() { MustParse(`"`) })
}
