// Package verdict orchestrates one check request: text rules, image
// heuristics, fix re-checking and optional model augmentation, merged into a
// single traffic-light verdict. Every sub-scanner failure is contained here;
// the orchestrator always returns a structured verdict.
package verdict

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postcheck/internal/engine"
	"github.com/hyperifyio/postcheck/internal/fields"
	"github.com/hyperifyio/postcheck/internal/imagescan"
	"github.com/hyperifyio/postcheck/internal/model"
	"github.com/hyperifyio/postcheck/internal/rewrite"
	"github.com/hyperifyio/postcheck/internal/rulebook"
)

// Verdict is the aggregate outcome for one request. The slices are always
// present, possibly empty.
type Verdict struct {
	Level         engine.Level     `json:"level"`
	Issues        []string         `json:"issues"`
	Fixes         []engine.Fix     `json:"fixes"`
	ImageFindings []engine.Finding `json:"imageFindings"`
	Model         *model.Review    `json:"model,omitempty"`
}

// Options tune one check.
type Options struct {
	Strict     bool
	ScanImages bool
}

// Orchestrator wires the evaluators together. Scanner and Reviewer are
// optional; nil disables the corresponding stage.
type Orchestrator struct {
	Store    *rulebook.Store
	Engine   *engine.Evaluator
	Scanner  *imagescan.Scanner
	Reviewer *model.Reviewer
}

// Check computes a fresh verdict for the platform and field payload.
func (o *Orchestrator) Check(ctx context.Context, platform string, f fields.Fields, opts Options) Verdict {
	rb, err := o.Store.LoadRulebook(platform)
	if err != nil {
		log.Error().Str("platform", platform).Err(err).Msg("rulebook unreadable")
	}
	if rb == nil {
		missing := engine.MissingRulebook(platform)
		return finalize(Verdict{
			Level:  missing.Level(),
			Issues: missing.Issues,
		})
	}
	merged := o.Store.MergeGlobal(rb)

	res := o.Engine.Evaluate(merged, f)

	var imageFindings []engine.Finding
	if opts.ScanImages && o.Scanner != nil {
		imageFindings = o.scanImages(ctx, f)
	}
	imageIssues := make([]string, 0, len(imageFindings))
	imageHigh := false
	for _, finding := range imageFindings {
		imageIssues = append(imageIssues, fmt.Sprintf("%s: %s", finding.Label, finding.URL))
		if finding.Severity == engine.SeverityHigh {
			imageHigh = true
		}
	}

	v := Verdict{
		Issues:        append(append([]string{}, res.Issues...), imageIssues...),
		Fixes:         res.Fixes,
		ImageFindings: imageFindings,
	}
	v.Level = engine.LevelFor(len(v.Issues), res.High || imageHigh)

	primaryKey, primaryVal, hasPrimary := f.PrimaryTextField()

	// Re-check with the suggested fix applied; in strict mode a
	// same-or-better outcome is adopted, a worse one never is.
	if hasPrimary && opts.Strict {
		if fix, ok := res.FixFor(primaryKey); ok {
			fixedRes := o.Engine.Evaluate(merged, f.WithField(primaryKey, fix.Suggestion))
			issues := append(append([]string{}, fixedRes.Issues...), imageIssues...)
			level := engine.LevelFor(len(issues), fixedRes.High || imageHigh)
			if level <= v.Level {
				v.Issues = issues
				v.Level = level
			}
		}
	}

	if v.Level != engine.LevelGreen && o.Reviewer != nil {
		review := o.review(ctx, merged, f)
		v.Model = &review
		if review.Rewrite != "" && hasPrimary {
			suggestion := review.Rewrite
			res2 := o.Engine.Evaluate(merged, f.WithField(primaryKey, suggestion))
			issues := append(append([]string{}, res2.Issues...), imageIssues...)
			level := engine.LevelFor(len(issues), res2.High || imageHigh)
			if opts.Strict {
				if level != engine.LevelGreen {
					// The model rewrite still fails re-check: discard its
					// content for the neutral fallback and try once more.
					suggestion = rewrite.DegradeToNeutral(primaryVal)
					res2 = o.Engine.Evaluate(merged, f.WithField(primaryKey, suggestion))
					issues = append(append([]string{}, res2.Issues...), imageIssues...)
					level = engine.LevelFor(len(issues), res2.High || imageHigh)
				}
				if level < v.Level {
					v.Issues = issues
					v.Level = level
				}
			}
			v.Fixes = append(v.Fixes, engine.Fix{Field: primaryKey, Suggestion: suggestion, Source: "model"})
		}
	}

	return finalize(v)
}

// scanImages contains any panic or slow failure inside the image scanner.
func (o *Orchestrator) scanImages(ctx context.Context, f fields.Fields) (findings []engine.Finding) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("image scan panicked; continuing without image findings")
			findings = nil
		}
	}()
	return o.Scanner.Scan(ctx, f)
}

// review contains any panic inside the model call.
func (o *Orchestrator) review(ctx context.Context, rb *rulebook.Rulebook, f fields.Fields) (out model.Review) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("model review panicked; continuing without model output")
			out = model.Review{Name: o.Reviewer.Model, Error: fmt.Sprint(r)}
		}
	}()
	return o.Reviewer.Review(ctx, rb, f.SearchableText())
}

// finalize guarantees the response-shape invariants: non-nil slices.
func finalize(v Verdict) Verdict {
	if v.Issues == nil {
		v.Issues = []string{}
	}
	if v.Fixes == nil {
		v.Fixes = []engine.Fix{}
	}
	if v.ImageFindings == nil {
		v.ImageFindings = []engine.Finding{}
	}
	return v
}
