// Package normalize canonicalizes phrase text for substring matching.
//
// Normalization lower-cases with language-aware case folding, strips a fixed
// set of sentence punctuation (. , ! ? ; : " '), collapses whitespace runs into
// a single space and trims the result. Other punctuation, such as hyphens and
// parentheses, is kept.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalizer canonicalizes text for one language. The zero value is not
// usable; construct with New.
type Normalizer struct {
	tag language.Tag
}

// Default folds case using Turkish rules (I → ı, İ → i).
var Default = New(language.Turkish)

// New returns a Normalizer that folds case according to tag
func New(tag language.Tag) *Normalizer {
	return &Normalizer{tag: tag}
}

// Parse returns a Normalizer for a BCP 47 language tag such as "tr"
func Parse(tag string) (*Normalizer, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return nil, err
	}
	return New(t), nil
}

// Tag returns the language tag used for case folding
func (n *Normalizer) Tag() language.Tag {
	return n.tag
}

// Normalize returns the canonical matching form of text.
// It is safe for concurrent use.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}
	// A Caser keeps state between calls and cannot be shared.
	lower := cases.Lower(n.tag).String(text)
	stripped := strings.Map(func(r rune) rune {
		if isStripped(r) {
			return -1
		}
		return r
	}, lower)
	return strings.Join(strings.Fields(stripped), " ")
}

// Normalize canonicalizes text with the Default normalizer
func Normalize(text string) string {
	return Default.Normalize(text)
}

func isStripped(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ';', ':', '"', '\'':
		return true
	}
	return false
}
