// Package similarity provides lexical relevance heuristics used when the
// semantic embedding model is unavailable and stored vectors are placeholders.
package similarity

import (
	"regexp"
	"strings"
)

// wordRe matches word tokens for the enhanced scorer.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Simple scores query against text by plain token overlap: both sides are
// lower-cased, split on whitespace and deduplicated; the score is the size
// of the intersection over the number of distinct query tokens. Range [0, 1].
func Simple(query, text string) float64 {
	querySet := fieldSet(query)
	textSet := fieldSet(text)

	var matched int
	for tok := range querySet {
		if textSet[tok] {
			matched++
		}
	}

	denom := len(querySet)
	if denom < 1 {
		denom = 1
	}
	return float64(matched) / float64(denom)
}

// Enhanced scores query against text with length-weighted token overlap:
// tokens come from a word-boundary regex, each shared token contributes
// min(len/5, 2.0), and the total is normalized by the summed weights of all
// query tokens. Longer shared tokens count more, capped at weight 2.0.
// Returns 0 when either side has no tokens or the denominator is zero.
func Enhanced(query, text string) float64 {
	querySet := wordSet(query)
	textSet := wordSet(text)
	if len(querySet) == 0 || len(textSet) == 0 {
		return 0
	}

	var score, denom float64
	for tok := range querySet {
		w := tokenWeight(tok)
		denom += w
		if textSet[tok] {
			score += w
		}
	}
	if denom == 0 {
		return 0
	}
	return score / denom
}

func tokenWeight(tok string) float64 {
	w := float64(len([]rune(tok))) / 5
	if w > 2.0 {
		w = 2.0
	}
	return w
}

// fieldSet tokenizes on whitespace, lower-cased.
func fieldSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(s)) {
		set[f] = true
	}
	return set
}

// wordSet tokenizes on word boundaries, lower-cased.
func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range wordRe.FindAllString(strings.ToLower(s), -1) {
		set[f] = true
	}
	return set
}
