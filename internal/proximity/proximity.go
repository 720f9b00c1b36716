// Package proximity implements windowed co-occurrence detection between two
// token classes, used for medical-claim matching (claim verb near a
// disease/condition noun).
package proximity

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/postcheck/internal/fuzzy"
)

// DefaultWindow is the token-distance window used for claim detection.
const DefaultWindow = 6

// Tokenize lowercases, NFKC-normalizes and splits text on any run of
// non-alphanumeric characters.
func Tokenize(text string) []string {
	folded := norm.NFKC.String(strings.ToLower(text))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// VerbNearNoun reports whether any fuzzy-matched verb token and fuzzy-matched
// noun token occur within window positions of each other. Quadratic over the
// matched index lists, which stays small for short-form post text.
func VerbNearNoun(text string, verbs, nouns []string, window int) bool {
	if window <= 0 {
		window = DefaultWindow
	}
	tokens := Tokenize(text)
	var verbIdx, nounIdx []int
	for i, tok := range tokens {
		if fuzzy.MatchAny(tok, verbs, 1) {
			verbIdx = append(verbIdx, i)
		}
		if fuzzy.MatchAny(tok, nouns, 1) {
			nounIdx = append(nounIdx, i)
		}
	}
	for _, v := range verbIdx {
		for _, n := range nounIdx {
			d := v - n
			if d < 0 {
				d = -d
			}
			if d <= window {
				return true
			}
		}
	}
	return false
}
