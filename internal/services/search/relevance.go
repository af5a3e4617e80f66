package search

import (
	"regexp"
	"strings"
)

// Relevance points per match tier. A field scores the first tier it matches;
// per-field scores are summed across all searched fields with no upper cap.
const (
	scoreExact     = 100
	scorePrefix    = 80
	scoreWord      = 60
	scoreSubstring = 40
)

// Score sums match-quality points for the query across the given fields.
// Tiers per field, best first: exact case-insensitive match, prefix match,
// whole-word match, substring match.
func Score(query string, fields ...string) int {
	q := strings.ToLower(query)
	wordRe := wordPattern(query)
	total := 0
	for _, f := range fields {
		total += fieldScore(q, wordRe, f)
	}
	return total
}

func fieldScore(q string, wordRe *regexp.Regexp, field string) int {
	f := strings.ToLower(field)
	switch {
	case f == q:
		return scoreExact
	case strings.HasPrefix(f, q):
		return scorePrefix
	case wordRe != nil && wordRe.MatchString(field):
		return scoreWord
	case strings.Contains(f, q):
		return scoreSubstring
	}
	return 0
}

// wordPattern builds the whole-word matcher. The query is quoted so that
// regex metacharacters in user input are matched literally instead of being
// interpreted as pattern syntax.
func wordPattern(query string) *regexp.Regexp {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(query) + `\b`)
	if err != nil {
		return nil
	}
	return re
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
