// Package rulebook loads per-platform policy rulebooks and the shared JSON
// fragments they reference, and compiles category patterns once at load time
// so request handling never sees a regex compile error.
package rulebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Limits caps field lengths and tag counts per platform.
type Limits struct {
	TitleMax         int `json:"title_max"`
	DescriptionMax   int `json:"description_max"`
	CaptionMax       int `json:"caption_max"`
	TagsMaxCount     int `json:"tags_max_count"`
	HashtagsMaxCount int `json:"hashtags_max_count"`
}

// RewriteDefaults carries platform-level rewriting knobs.
type RewriteDefaults struct {
	NeutralNoun string `json:"neutral_noun"`
}

// CategoryRewrite is a category-authored find/replace applied to the primary
// text field when the category matches.
type CategoryRewrite struct {
	Find    string `json:"find"`
	Replace string `json:"replace"`
}

// PatternSpec is one inline pattern entry: either a bare JSON string treated
// as a case-insensitive literal, or {"pattern": ..., "flags": ...} treated as
// a raw regex with caller-specified flags.
type PatternSpec struct {
	Pattern string
	Flags   string
	Literal bool
}

func (p *PatternSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PatternSpec{Pattern: s, Literal: true}
		return nil
	}
	var obj struct {
		Pattern string `json:"pattern"`
		Flags   string `json:"flags"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("pattern entry must be a string or {pattern,flags}: %w", err)
	}
	*p = PatternSpec{Pattern: obj.Pattern, Flags: obj.Flags}
	return nil
}

// Category is the unit of policy: a labelled, severity-ranked match rule.
type Category struct {
	ID          string           `json:"id"`
	Label       string           `json:"label"`
	Severity    string           `json:"severity"`
	PatternsRef string           `json:"patterns_ref,omitempty"`
	Patterns    []PatternSpec    `json:"patterns,omitempty"`
	Checks      []string         `json:"checks,omitempty"`
	Rewrite     *CategoryRewrite `json:"rewrite,omitempty"`

	// Populated at load time, never serialized.
	Compiled []*regexp.Regexp `json:"-"`
	Medical  bool             `json:"-"`
}

// Rulebook is one platform's policy document.
type Rulebook struct {
	Platform   string           `json:"platform"`
	Version    string           `json:"version"`
	Limits     Limits           `json:"limits"`
	Rewrite    *RewriteDefaults `json:"rewrite,omitempty"`
	Categories []Category       `json:"categories"`
}

// NeutralNoun returns the configured neutral replacement noun or the default.
func (rb *Rulebook) NeutralNoun() string {
	if rb != nil && rb.Rewrite != nil && strings.TrimSpace(rb.Rewrite.NeutralNoun) != "" {
		return rb.Rewrite.NeutralNoun
	}
	return "overall wellness"
}

// Fragment is a shared phrase list: either a flat array (Phrases) or named
// sections such as claim_verbs and diseases.
type Fragment struct {
	Phrases  []string
	Sections map[string][]string
}

func (f *Fragment) UnmarshalJSON(data []byte) error {
	var flat []string
	if err := json.Unmarshal(data, &flat); err == nil {
		*f = Fragment{Phrases: flat}
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("fragment must be an array or object of arrays: %w", err)
	}
	out := Fragment{Sections: map[string][]string{}}
	for key, raw := range obj {
		var arr []string
		if err := json.Unmarshal(raw, &arr); err != nil {
			// Non-array members (version markers etc.) are tolerated.
			continue
		}
		if key == "phrases" {
			out.Phrases = arr
		} else {
			out.Sections[key] = arr
		}
	}
	*f = out
	return nil
}

// Section resolves a named section, falling back to the flat phrase list for
// the empty name. Unknown sections resolve to nil.
func (f *Fragment) Section(name string) []string {
	if f == nil {
		return nil
	}
	if name == "" || name == "phrases" {
		return f.Phrases
	}
	return f.Sections[name]
}

// MedicalFragmentName is the shared fragment holding claim verbs and
// disease/condition nouns.
const MedicalFragmentName = "medical.json"

// Store reads rulebooks from <Dir>/<platform>.json and shared fragments from
// <Dir>/shared/<name>. Files are read fresh per call; there is no cache to
// invalidate.
type Store struct {
	Dir string
}

// LoadRulebook loads and compiles the rulebook for platform. A missing file
// returns (nil, nil); the caller turns that into a forced-red verdict.
func (s *Store) LoadRulebook(platform string) (*Rulebook, error) {
	name := strings.TrimSpace(platform)
	if name == "" || name != filepath.Base(name) {
		return nil, nil
	}
	raw, err := os.ReadFile(filepath.Join(s.Dir, name+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rulebook %s: %w", platform, err)
	}
	var rb Rulebook
	if err := json.Unmarshal(raw, &rb); err != nil {
		return nil, fmt.Errorf("parse rulebook %s: %w", platform, err)
	}
	if rb.Platform == "" {
		rb.Platform = name
	}
	for i := range rb.Categories {
		s.compile(&rb.Categories[i])
	}
	return &rb, nil
}

// LoadShared loads a shared fragment by exact filename. Missing files yield
// (nil, nil) so coverage degrades silently, per the rulebook contract.
func (s *Store) LoadShared(name string) (*Fragment, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) {
		return nil, nil
	}
	raw, err := os.ReadFile(filepath.Join(s.Dir, "shared", name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fragment %s: %w", name, err)
	}
	var f Fragment
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fragment %s: %w", name, err)
	}
	return &f, nil
}

// globalCategoriesFile holds categories applied identically to every
// platform, appended after the platform's own.
const globalCategoriesFile = "global.json"

// MergeGlobal returns rb with the shared global categories appended.
// Ordering decides which label appears first in output, not severity.
func (s *Store) MergeGlobal(rb *Rulebook) *Rulebook {
	if rb == nil {
		return nil
	}
	raw, err := os.ReadFile(filepath.Join(s.Dir, "shared", globalCategoriesFile))
	if err != nil {
		return rb
	}
	var global struct {
		Categories []Category `json:"categories"`
	}
	if err := json.Unmarshal(raw, &global); err != nil {
		log.Warn().Err(err).Msg("skipping malformed global category file")
		return rb
	}
	merged := *rb
	merged.Categories = append(append([]Category{}, rb.Categories...), global.Categories...)
	for i := range merged.Categories {
		if merged.Categories[i].Compiled == nil && !merged.Categories[i].Medical {
			s.compile(&merged.Categories[i])
		}
	}
	return &merged
}

// Medical loads the claim-verb and disease lists used by proximity
// detection. Missing fragments yield empty lists.
func (s *Store) Medical() (verbs, nouns []string) {
	frag, err := s.LoadShared(MedicalFragmentName)
	if err != nil {
		log.Warn().Err(err).Msg("medical fragment unreadable")
		return nil, nil
	}
	return frag.Section("claim_verbs"), frag.Section("diseases")
}

// compile resolves patterns_ref and inline patterns into regexes. Invalid
// entries are skipped with a warning; compilation never fails a load.
func (s *Store) compile(cat *Category) {
	if isMedicalRef(cat.PatternsRef) {
		cat.Medical = true
		return
	}
	var compiled []*regexp.Regexp
	for _, phrase := range s.resolveRef(cat.PatternsRef) {
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(phrase))
		if err != nil {
			log.Warn().Str("category", cat.ID).Str("phrase", phrase).Err(err).Msg("skipping uncompilable phrase")
			continue
		}
		compiled = append(compiled, re)
	}
	for _, spec := range cat.Patterns {
		expr := spec.Pattern
		if spec.Literal {
			expr = `(?i)` + regexp.QuoteMeta(expr)
		} else if pre := flagPrefix(spec.Flags); pre != "" {
			expr = pre + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			log.Warn().Str("category", cat.ID).Str("pattern", spec.Pattern).Err(err).Msg("skipping invalid pattern")
			continue
		}
		compiled = append(compiled, re)
	}
	cat.Compiled = compiled
}

// resolveRef resolves "file[#section]" to its phrase list.
func (s *Store) resolveRef(ref string) []string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	file, section := ref, ""
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		file, section = ref[:i], ref[i+1:]
	}
	frag, err := s.LoadShared(file)
	if err != nil {
		log.Warn().Str("ref", ref).Err(err).Msg("fragment unreadable")
		return nil
	}
	return frag.Section(section)
}

func isMedicalRef(ref string) bool {
	if ref == "" {
		return false
	}
	file := ref
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		file = ref[:i]
	}
	return strings.EqualFold(file, MedicalFragmentName) ||
		strings.EqualFold(strings.TrimSuffix(file, ".json"), "medical")
}

func flagPrefix(flags string) string {
	var b strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 's', 'm':
			b.WriteRune(f)
		}
		// JS-only flags like g/u have no Go equivalent and are implicit
		// (matching is already global) or unsupported; drop them.
	}
	if b.Len() == 0 {
		return ""
	}
	return "(?" + b.String() + ")"
}
