package proximity

import (
	"reflect"
	"testing"
)

var (
	verbs = []string{"cure", "treat", "heal", "prevent", "diagnose"}
	nouns = []string{"cancer", "diabetes", "arthritis", "anxiety", "covid"}
)

func TestTokenize(t *testing.T) {
	got := Tokenize("This tea CURES cancer, fast!!")
	want := []string{"this", "tea", "cures", "cancer", "fast"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenize_NonAlnumRuns(t *testing.T) {
	got := Tokenize("a--b__c  d/e")
	want := []string{"a", "b", "c", "d", "e"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestVerbNearNoun_Hit(t *testing.T) {
	if !VerbNearNoun("this tea cures cancer fast", verbs, nouns, DefaultWindow) {
		t.Fatalf("expected claim verb near disease noun to match")
	}
}

func TestVerbNearNoun_FuzzyHit(t *testing.T) {
	// Misspelled verb and noun, each within one edit.
	if !VerbNearNoun("this tea cuers cancre fast", verbs, nouns, DefaultWindow) {
		t.Fatalf("expected fuzzy-matched tokens to count")
	}
}

func TestVerbNearNoun_OutsideWindow(t *testing.T) {
	text := "cures one two three four five six seven eight nine ten cancer"
	if VerbNearNoun(text, verbs, nouns, 6) {
		t.Fatalf("matched tokens 11 apart must not satisfy window 6")
	}
	if !VerbNearNoun(text, verbs, nouns, 11) {
		t.Fatalf("window 11 should accept the same text")
	}
}

func TestVerbNearNoun_NoMatch(t *testing.T) {
	if VerbNearNoun("handmade ceramic mug with lead-free glaze", verbs, nouns, DefaultWindow) {
		t.Fatalf("clean text must not match")
	}
}
