// Package engine evaluates a merged rulebook against post fields: category
// pattern matching, medical proximity detection, limit checks and severity
// aggregation.
package engine

import (
	"fmt"
	"regexp"

	"github.com/hyperifyio/postcheck/internal/fields"
	"github.com/hyperifyio/postcheck/internal/proximity"
	"github.com/hyperifyio/postcheck/internal/rewrite"
	"github.com/hyperifyio/postcheck/internal/rulebook"
)

// Finding is one detected issue with its severity and, for image findings,
// the offending URL.
type Finding struct {
	Severity Severity `json:"severity"`
	Label    string   `json:"label"`
	URL      string   `json:"url,omitempty"`
}

// Fix proposes a replacement value for one field.
type Fix struct {
	Field      string `json:"field"`
	Suggestion string `json:"suggestion"`
	Source     string `json:"source,omitempty"`
}

// Result accumulates one evaluation pass over the text rules.
type Result struct {
	Issues []string
	Fixes  []Fix
	High   bool
}

// Level folds the result into a traffic-light level.
func (r Result) Level() Level { return LevelFor(len(r.Issues), r.High) }

// FixFor returns the first fix targeting field.
func (r Result) FixFor(field string) (Fix, bool) {
	for _, f := range r.Fixes {
		if f.Field == field {
			return f, true
		}
	}
	return Fix{}, false
}

// checkURLScheme is the category check requiring an http(s) link prefix.
const checkURLScheme = "url_scheme_http_https"

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// Evaluator runs rulebook categories and limits over field payloads. The
// store supplies the medical fragment for proximity detection.
type Evaluator struct {
	Store *rulebook.Store
}

// MissingRulebook is the forced-red result for an unknown platform.
func MissingRulebook(platform string) Result {
	return Result{
		Issues: []string{fmt.Sprintf("No rulebook found for %s", platform)},
		High:   true,
	}
}

// Evaluate runs every category of the merged rulebook plus the limit checks
// against f and aggregates severity.
func (e *Evaluator) Evaluate(rb *rulebook.Rulebook, f fields.Fields) Result {
	var res Result
	if rb == nil {
		return res
	}

	text := f.SearchableText()
	primaryKey, primaryVal, hasPrimary := f.PrimaryTextField()
	seen := map[string]bool{}
	emit := func(label string, sev Severity) {
		if seen[label] {
			return
		}
		seen[label] = true
		res.Issues = append(res.Issues, label)
		if sev == SeverityHigh {
			res.High = true
		}
	}
	addFix := func(fix Fix) {
		for _, existing := range res.Fixes {
			if existing == fix {
				return
			}
		}
		res.Fixes = append(res.Fixes, fix)
	}

	var medVerbs, medNouns []string
	medicalLoaded := false

	for _, cat := range rb.Categories {
		sev := ParseSeverity(cat.Severity)

		if cat.Medical {
			if !medicalLoaded {
				medVerbs, medNouns = e.Store.Medical()
				medicalLoaded = true
			}
			if proximity.VerbNearNoun(text, medVerbs, medNouns, proximity.DefaultWindow) {
				emit(cat.Label, sev)
				if hasPrimary {
					suggestion := rewrite.Medical(primaryVal, medVerbs, medNouns, rb.NeutralNoun())
					if suggestion != primaryVal {
						addFix(Fix{Field: primaryKey, Suggestion: suggestion})
					}
				}
			}
		} else {
			// Patterns are tested independently, never pre-unioned.
			for _, re := range cat.Compiled {
				if re.MatchString(text) {
					emit(cat.Label, sev)
					break
				}
			}
		}

		for _, check := range cat.Checks {
			if check != checkURLScheme {
				continue
			}
			if link, ok := f.StringField("link"); ok && link != "" && !schemeRe.MatchString(link) {
				emit(cat.Label, sev)
			}
		}

		if cat.Rewrite != nil && hasPrimary && cat.Rewrite.Find != "" {
			if re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(cat.Rewrite.Find)); err == nil {
				replaced := re.ReplaceAllString(primaryVal, cat.Rewrite.Replace)
				if replaced != primaryVal {
					addFix(Fix{Field: primaryKey, Suggestion: replaced})
				}
			}
		}
	}

	e.checkLimits(rb, f, &res, seen)
	return res
}

// checkLimits evaluates the per-field length and count caps independently of
// categories. Overruns are medium issues with truncation fixes where a
// truncation makes sense.
func (e *Evaluator) checkLimits(rb *rulebook.Rulebook, f fields.Fields, res *Result, seen map[string]bool) {
	lengthLimit := func(field string, max int) {
		if max <= 0 {
			return
		}
		val, ok := f.StringField(field)
		if !ok || len([]rune(val)) <= max {
			return
		}
		label := fmt.Sprintf("%s exceeds %d characters", titleWord(field), max)
		if !seen[label] {
			seen[label] = true
			res.Issues = append(res.Issues, label)
		}
		res.Fixes = append(res.Fixes, Fix{Field: field, Suggestion: string([]rune(val)[:max])})
	}
	lengthLimit("title", rb.Limits.TitleMax)
	lengthLimit("description", rb.Limits.DescriptionMax)
	lengthLimit("caption", rb.Limits.CaptionMax)

	countLimit := func(field string, max int) {
		if max <= 0 {
			return
		}
		v, ok := f.Get(field)
		if !ok {
			return
		}
		if n := len(fields.StringItems(v)); n > max {
			label := fmt.Sprintf("Too many %s: %d (limit %d)", field, n, max)
			if !seen[label] {
				seen[label] = true
				res.Issues = append(res.Issues, label)
			}
		}
	}
	countLimit("tags", rb.Limits.TagsMaxCount)
	countLimit("hashtags", rb.Limits.HashtagsMaxCount)
}

func titleWord(field string) string {
	if field == "" {
		return field
	}
	return string(field[0]-'a'+'A') + field[1:]
}
