package fuzzy

import "strings"

// Distance computes the Damerau-Levenshtein distance between a and b,
// case-insensitively. Insertions, deletions, substitutions and adjacent
// transpositions all cost 1.
func Distance(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	n, m := len(ra), len(rb)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}

	// Three rolling rows: two back (for transpositions), previous, current.
	prev2 := make([]int, m+1)
	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}
	for i := 1; i <= n; i++ {
		cur[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			best := cur[j-1] + 1 // insertion
			if d := prev[j] + 1; d < best { // deletion
				best = d
			}
			if d := prev[j-1] + cost; d < best { // substitution
				best = d
			}
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				if d := prev2[j-2] + 1; d < best { // transposition
					best = d
				}
			}
			cur[j] = best
		}
		prev2, prev, cur = prev, cur, prev2
	}
	return prev[m]
}

// MatchAny reports whether token is within maxEdits of any candidate.
// There is deliberately no minimum-length guard: very short tokens can match
// many candidates, a tolerated tradeoff for catching near-misspellings.
func MatchAny(token string, candidates []string, maxEdits int) bool {
	if maxEdits < 0 {
		maxEdits = 0
	}
	for _, c := range candidates {
		if Distance(token, c) <= maxEdits {
			return true
		}
	}
	return false
}
