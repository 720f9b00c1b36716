// Package rewrite produces tone-preserving neutralizations of risky text.
// The medical rewriter swaps claim verbs and disease nouns for neutral
// wording while keeping the author's casing and punctuation energy.
package rewrite

import (
	"strings"
	"unicode"

	"github.com/hyperifyio/postcheck/internal/fuzzy"
)

// Casing classifies the dominant capitalization of a text.
type Casing int

const (
	CasingSentence Casing = iota
	CasingLower
	CasingTitle
)

// Style captures the reapplicable surface features of a text.
type Style struct {
	Casing       Casing
	Exclamations int // capped at 2
	HasModal     bool
}

var modals = map[string]bool{"may": true, "might": true, "could": true, "can": true}

// DetectStyle inspects casing, exclamation count and modal presence.
func DetectStyle(text string) Style {
	s := Style{}
	for _, r := range text {
		if r == '!' {
			s.Exclamations++
		}
	}
	if s.Exclamations > 2 {
		s.Exclamations = 2
	}
	words := strings.Fields(text)
	capitalized := 0
	for _, w := range words {
		if modals[strings.ToLower(strings.Trim(w, "!.,?"))] {
			s.HasModal = true
		}
		r := []rune(w)[0]
		if unicode.IsUpper(r) {
			capitalized++
		}
	}
	switch {
	case text == strings.ToLower(text):
		s.Casing = CasingLower
	case len(words) > 2 && float64(capitalized) > 0.6*float64(len(words)):
		s.Casing = CasingTitle
	default:
		s.Casing = CasingSentence
	}
	return s
}

// ApplyStyle reimposes casing and trailing exclamations on text. Applying the
// same style twice is a no-op, so repeated rewrite passes do not drift.
func ApplyStyle(text string, s Style) string {
	text = strings.TrimRight(strings.TrimSpace(text), "!")
	switch s.Casing {
	case CasingLower:
		text = strings.ToLower(text)
	case CasingTitle:
		words := strings.Fields(text)
		for i, w := range words {
			words[i] = capitalize(strings.ToLower(w))
		}
		text = strings.Join(words, " ")
	default:
		text = capitalize(text)
	}
	return text + strings.Repeat("!", s.Exclamations)
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// minRewriteLen is the shortest acceptable rewrite; anything below is
// replaced wholesale with the safe sentence.
const minRewriteLen = 15

const safeSentencePrefix = "designed to support "

// neutralFallback is the compliance sentence substituted when even a model
// rewrite cannot pass re-checking.
const neutralFallback = "this product is intended for general lifestyle use"

// Medical rewrites text so medical claims become neutral support language:
// claim verbs become support/supports, disease nouns become neutralNoun, and
// the original style is reapplied. The result is never empty.
func Medical(text string, verbs, nouns []string, neutralNoun string) string {
	style := DetectStyle(text)
	if strings.TrimSpace(neutralNoun) == "" {
		neutralNoun = "overall wellness"
	}

	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		core := strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		switch {
		case core != "" && fuzzy.MatchAny(core, verbs, 1):
			if strings.HasSuffix(core, "s") {
				out = append(out, "supports")
			} else {
				out = append(out, "support")
			}
		case core != "" && fuzzy.MatchAny(core, nouns, 1):
			out = append(out, neutralNoun)
		default:
			out = append(out, w)
		}
	}
	result := strings.Join(out, " ")

	// Collapse redundant constructions introduced by the substitutions.
	result = replaceFold(result, "help supports", "supports")
	result = replaceFold(result, "supports supports", "supports")
	result = replaceFold(result, "may supports", "may support")

	if !style.HasModal {
		result = replaceFold(result, "supports", "designed to support")
	}

	if len(strings.TrimSpace(result)) < minRewriteLen {
		result = safeSentencePrefix + neutralNoun
	}
	return ApplyStyle(result, style)
}

// DegradeToNeutral discards the content entirely and substitutes the fixed
// compliance sentence, keeping only the original's style.
func DegradeToNeutral(original string) string {
	return ApplyStyle(neutralFallback, DetectStyle(original))
}

// replaceFold is a whole-phrase case-insensitive replace over word
// boundaries.
func replaceFold(text, find, repl string) string {
	lower := strings.ToLower(text)
	find = strings.ToLower(find)
	var b strings.Builder
	for {
		i := strings.Index(lower, find)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		if !boundaryAt(lower, i, len(find)) {
			b.WriteString(text[:i+len(find)])
			text = text[i+len(find):]
			lower = lower[i+len(find):]
			continue
		}
		b.WriteString(text[:i])
		b.WriteString(repl)
		text = text[i+len(find):]
		lower = lower[i+len(find):]
	}
}

func boundaryAt(s string, i, n int) bool {
	alnum := func(b byte) bool {
		return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
	}
	if i > 0 && alnum(s[i-1]) {
		return false
	}
	if i+n < len(s) && alnum(s[i+n]) {
		return false
	}
	return true
}
