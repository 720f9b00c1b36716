package rulebook

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "demo.json"), `{
		"platform": "demo",
		"version": "1",
		"limits": {"title_max": 20, "description_max": 100, "tags_max_count": 5},
		"rewrite": {"neutral_noun": "daily balance"},
		"categories": [
			{"id": "med", "label": "Medical claim", "severity": "high", "patterns_ref": "medical.json"},
			{"id": "weapons", "label": "Weapons", "severity": "high", "patterns_ref": "weapons.json#phrases"},
			{"id": "spam", "label": "Spammy wording", "severity": "medium",
			 "patterns": ["limited time offer", {"pattern": "act\\s+now", "flags": "i"}]},
			{"id": "bad", "label": "Broken", "severity": "medium",
			 "patterns": [{"pattern": "([unclosed", "flags": ""}]}
		]
	}`)
	writeFile(t, filepath.Join(dir, "shared", "medical.json"),
		`{"claim_verbs": ["cure", "treat", "heal"], "diseases": ["cancer", "diabetes"]}`)
	writeFile(t, filepath.Join(dir, "shared", "weapons.json"),
		`{"phrases": ["ghost gun", "switchblade"]}`)
	writeFile(t, filepath.Join(dir, "shared", "global.json"), `{
		"categories": [
			{"id": "hate", "label": "Hate speech", "severity": "high", "patterns": ["ethnic slur"]}
		]
	}`)
	return &Store{Dir: dir}
}

func TestLoadRulebook_CompilesAtLoad(t *testing.T) {
	s := testStore(t)
	rb, err := s.LoadRulebook("demo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rb == nil {
		t.Fatalf("expected rulebook")
	}
	byID := map[string]Category{}
	for _, c := range rb.Categories {
		byID[c.ID] = c
	}
	if !byID["med"].Medical {
		t.Fatalf("medical patterns_ref must flag the category for proximity detection")
	}
	if got := len(byID["weapons"].Compiled); got != 2 {
		t.Fatalf("weapons should compile 2 phrases, got %d", got)
	}
	if got := len(byID["spam"].Compiled); got != 2 {
		t.Fatalf("spam should compile 2 inline patterns, got %d", got)
	}
	if got := len(byID["bad"].Compiled); got != 0 {
		t.Fatalf("invalid regex must be skipped, not kept: %d", got)
	}
	if !byID["spam"].Compiled[0].MatchString("LIMITED TIME OFFER") {
		t.Fatalf("literal inline patterns must match case-insensitively")
	}
	if !byID["weapons"].Compiled[0].MatchString("a Ghost Gun kit") {
		t.Fatalf("ref phrases must match literally, case-insensitively")
	}
}

func TestLoadRulebook_Missing(t *testing.T) {
	s := testStore(t)
	rb, err := s.LoadRulebook("nope")
	if err != nil || rb != nil {
		t.Fatalf("missing rulebook must be (nil, nil), got %v/%v", rb, err)
	}
	if rb, err := s.LoadRulebook("../demo"); rb != nil || err != nil {
		t.Fatalf("path-traversing platform names must not resolve")
	}
}

func TestLoadShared_MissingIsEmpty(t *testing.T) {
	s := testStore(t)
	frag, err := s.LoadShared("absent.json")
	if err != nil || frag != nil {
		t.Fatalf("missing fragment must be (nil, nil), got %v/%v", frag, err)
	}
	if got := frag.Section("anything"); got != nil {
		t.Fatalf("nil fragment sections must be empty, got %v", got)
	}
}

func TestFragment_FlatArray(t *testing.T) {
	s := testStore(t)
	writeFile(t, filepath.Join(s.Dir, "shared", "flat.json"), `["a", "b"]`)
	frag, err := s.LoadShared("flat.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := frag.Section(""); len(got) != 2 {
		t.Fatalf("flat array must be the phrases list, got %v", got)
	}
}

func TestMergeGlobal_AppendsAfterPlatform(t *testing.T) {
	s := testStore(t)
	rb, _ := s.LoadRulebook("demo")
	merged := s.MergeGlobal(rb)
	if len(merged.Categories) != len(rb.Categories)+1 {
		t.Fatalf("expected one appended global category")
	}
	last := merged.Categories[len(merged.Categories)-1]
	if last.ID != "hate" {
		t.Fatalf("global categories must come after the platform's own, got %q last", last.ID)
	}
	if len(last.Compiled) != 1 {
		t.Fatalf("global categories must be compiled on merge")
	}
	// The original must stay untouched.
	if len(rb.Categories) != 4 {
		t.Fatalf("merge must not mutate the input rulebook")
	}
}

func TestMedical(t *testing.T) {
	s := testStore(t)
	verbs, nouns := s.Medical()
	if len(verbs) != 3 || len(nouns) != 2 {
		t.Fatalf("got %d verbs / %d nouns", len(verbs), len(nouns))
	}
}

func TestNeutralNoun(t *testing.T) {
	s := testStore(t)
	rb, _ := s.LoadRulebook("demo")
	if got := rb.NeutralNoun(); got != "daily balance" {
		t.Fatalf("configured neutral noun not honored: %q", got)
	}
	var empty *Rulebook
	if got := empty.NeutralNoun(); got != "overall wellness" {
		t.Fatalf("default neutral noun expected, got %q", got)
	}
}
