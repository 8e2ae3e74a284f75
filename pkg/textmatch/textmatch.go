// Package textmatch provides fuzzy word comparison used by the chat lexicon.
// Scores are Ratcliff/Obershelp ratios computed over the characters of the
// two strings, so "fevr" against "fever" scores 0.89 and "cold" against
// "cough" scores 0.44.
package textmatch

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Similarity returns 2*M/T for a and b, where M is the number of characters
// in matching blocks and T the total number of characters. Two empty strings
// are identical.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

// Closest returns the candidate most similar to word whose score is at least
// cutoff. Ties on score resolve to the lexicographically greater candidate so
// the result does not depend on candidate order. A cutoff outside [0, 1]
// never matches.
func Closest(word string, candidates []string, cutoff float64) (string, bool) {
	if cutoff < 0 || cutoff > 1 {
		return "", false
	}

	best, bestScore, found := "", 0.0, false
	for _, cand := range candidates {
		score := difflib.NewMatcher(chars(cand), chars(word)).Ratio()
		if score < cutoff {
			continue
		}
		if !found || score > bestScore || (score == bestScore && cand > best) {
			best, bestScore, found = cand, score, true
		}
	}
	return best, found
}

func chars(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "")
}
