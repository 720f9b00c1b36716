package rewrite

import (
	"strings"
	"testing"
)

var (
	verbs = []string{"cure", "treat", "heal", "prevent", "diagnose"}
	nouns = []string{"cancer", "diabetes", "arthritis", "flu"}
)

func TestDetectStyle(t *testing.T) {
	cases := []struct {
		text    string
		casing  Casing
		exclaim int
		modal   bool
	}{
		{"this tea cures cancer", CasingLower, 0, false},
		{"This tea cures cancer fast", CasingSentence, 0, false},
		{"Miracle Cure For Cancer Today", CasingTitle, 0, false},
		{"Amazing deal!!!", CasingSentence, 2, false},
		{"This may help you", CasingSentence, 0, true},
		{"it could work", CasingLower, 0, true},
	}
	for _, c := range cases {
		got := DetectStyle(c.text)
		if got.Casing != c.casing || got.Exclamations != c.exclaim || got.HasModal != c.modal {
			t.Errorf("DetectStyle(%q) = %+v, want casing=%d exclaim=%d modal=%v",
				c.text, got, c.casing, c.exclaim, c.modal)
		}
	}
}

func TestApplyStyle_Idempotent(t *testing.T) {
	for _, text := range []string{
		"this tea cures cancer!",
		"Great Mug Deal!!!",
		"Plain sentence here.",
	} {
		style := DetectStyle(text)
		once := ApplyStyle(text, style)
		twice := ApplyStyle(once, style)
		if once != twice {
			t.Errorf("ApplyStyle drifts on %q: %q vs %q", text, once, twice)
		}
	}
}

func TestMedical_RemovesClaim(t *testing.T) {
	got := Medical("This tea cures cancer fast", verbs, nouns, "overall wellness")
	lower := strings.ToLower(got)
	if strings.Contains(lower, "cures") || strings.Contains(lower, "cancer") {
		t.Fatalf("rewrite still contains claim terms: %q", got)
	}
	if !strings.Contains(lower, "designed to support") {
		t.Fatalf("bare supports must be prefixed without a modal: %q", got)
	}
	if !strings.Contains(lower, "overall wellness") {
		t.Fatalf("disease noun must become the neutral noun: %q", got)
	}
}

func TestMedical_KeepsModal(t *testing.T) {
	got := Medical("May heal diabetes", verbs, nouns, "overall wellness")
	lower := strings.ToLower(got)
	if strings.Contains(lower, "designed to") {
		t.Fatalf("modal text must not gain the designed-to prefix: %q", got)
	}
	if !strings.HasPrefix(lower, "may support") {
		t.Fatalf("expected 'may support ...', got %q", got)
	}
}

func TestMedical_PreservesStyle(t *testing.T) {
	got := Medical("this tea cures cancer!", verbs, nouns, "overall wellness")
	if got != strings.ToLower(got) {
		t.Fatalf("lowercase input must stay lowercase: %q", got)
	}
	if !strings.HasSuffix(got, "!") || strings.HasSuffix(got, "!!") {
		t.Fatalf("single exclamation must be preserved: %q", got)
	}
}

func TestMedical_FuzzyTokens(t *testing.T) {
	// One edit away from both lists.
	got := Medical("this cuer cancre daily", verbs, nouns, "overall wellness")
	lower := strings.ToLower(got)
	if strings.Contains(lower, "cuer") || strings.Contains(lower, "cancre") {
		t.Fatalf("misspelled claim terms must still be replaced: %q", got)
	}
}

func TestMedical_ShortResultFallsBack(t *testing.T) {
	got := Medical("flu", verbs, nouns, "calm")
	if !strings.Contains(strings.ToLower(got), "designed to support calm") {
		t.Fatalf("sub-15-char rewrite must use the safe sentence, got %q", got)
	}
}

func TestMedical_NeverEmpty(t *testing.T) {
	for _, text := range []string{"", "cancer", "!!!", "cures"} {
		if got := Medical(text, verbs, nouns, ""); strings.TrimSpace(got) == "" {
			t.Fatalf("Medical(%q) produced empty output", text)
		}
	}
}

func TestDegradeToNeutral(t *testing.T) {
	got := DegradeToNeutral("MIRACLE CURE!!")
	if !strings.Contains(strings.ToLower(got), "general lifestyle use") {
		t.Fatalf("expected the fixed compliance sentence, got %q", got)
	}
	if !strings.HasSuffix(got, "!!") {
		t.Fatalf("style must be reapplied to the fallback: %q", got)
	}
	if lower := DegradeToNeutral("quiet caption"); lower != strings.ToLower(lower) {
		t.Fatalf("lowercase style must be reapplied: %q", lower)
	}
}

func TestReplaceFold_Boundaries(t *testing.T) {
	if got := replaceFold("supports supports", "supports supports", "supports"); got != "supports" {
		t.Fatalf("duplicate collapse failed: %q", got)
	}
	if got := replaceFold("resupports things", "supports", "X"); got != "resupports things" {
		t.Fatalf("substring inside a word must not match: %q", got)
	}
}
