// Package query parses keyword queries into plain and negated terms.
//
// A query is a space separated list of terms. Text between double quotes is a
// single term with its inner spaces kept. A term starting with "-" is negated.
package query

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/ytget/ytplfilter/errs"
)

// controlSpaces maps ASCII control whitespace to a space byte for byte, so
// syntax error offsets still index the folded query.
var controlSpaces = strings.NewReplacer("\t", " ", "\n", " ", "\v", " ", "\f", " ", "\r", " ")

const (
	quote      = '"'
	separator  = " "
	negateMark = "-"
)

// Term is one parsed query term.
type Term struct {
	Text    string
	Negated bool
}

// Plain returns a term that must be contained.
func Plain(text string) Term { return Term{Text: text} }

// Not returns a term that must not be contained.
func Not(text string) Term { return Term{Text: text, Negated: true} }

// String renders the term back in query syntax, so that Parse(t.String())
// yields t again. Negated phrases keep the mark inside the quotes.
func (t Term) String() string {
	s := t.Text
	if t.Negated {
		s = negateMark + s
	}
	if strings.Contains(s, separator) {
		s = string(quote) + s + string(quote)
	}
	return s
}

// Satisfied reports whether text satisfies the term. Empty terms always do.
func (t Term) Satisfied(text string) bool {
	if t.Text == "" {
		return true
	}
	return strings.Contains(text, t.Text) != t.Negated
}

// Fold case-folds s the same way Parse folds queries.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Parse splits raw into terms. Quoted phrases are extracted first, in order of
// appearance; the remaining text is split on single spaces. Tabs and line
// breaks count as spaces, so no term ever holds one. Empty pieces are dropped.
// An unterminated or empty phrase yields an *errs.SyntaxError.
func Parse(raw string) ([]Term, error) {
	rest := controlSpaces.Replace(Fold(raw))
	var terms []Term

	// consumed counts bytes already cut out so offsets index the folded query.
	consumed := 0
	for {
		open := strings.IndexByte(rest, quote)
		if open < 0 {
			break
		}
		closing := strings.IndexByte(rest[open+1:], quote)
		if closing < 0 {
			return nil, &errs.SyntaxError{Query: raw, Offset: open + consumed, Err: errs.ErrUnterminatedQuote}
		}
		phrase := rest[open+1 : open+1+closing]
		if phrase == "" {
			return nil, &errs.SyntaxError{Query: raw, Offset: open + consumed, Err: errs.ErrEmptyPhrase}
		}
		terms = append(terms, newTerm(phrase))
		rest = rest[:open] + rest[open+closing+2:]
		consumed += closing + 2
	}

	for _, piece := range strings.Split(rest, separator) {
		if t := newTerm(piece); t.Text != "" {
			terms = append(terms, t)
		}
	}
	return terms, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(raw string) []Term {
	terms, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return terms
}

func newTerm(s string) Term {
	if text, ok := strings.CutPrefix(s, negateMark); ok {
		return Not(text)
	}
	return Plain(s)
}
