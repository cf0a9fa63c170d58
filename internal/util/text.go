package util

import (
	"regexp"
	"strings"
)

var (
	reBreaks     = regexp.MustCompile(`[\r\n\t]`)
	reBoolTokens = regexp.MustCompile(`\b(?:TRUE|FALSE)\b`)
	reSpaceRuns  = regexp.MustCompile(`\s{2,}`)
	reSpaces     = regexp.MustCompile(`\s+`)
	reQuotes     = regexp.MustCompile(`^["“”']+|["“”']+$`)
)

// CleanReviewText flattens extracted review text to a single line.
// Stray TRUE/FALSE tokens come from broken source markup and are dropped.
func CleanReviewText(input string) string {
	if input == "" {
		return ""
	}
	s := strings.ReplaceAll(input, "\u00a0", " ")
	s = reBoolTokens.ReplaceAllString(s, "")
	s = reBreaks.ReplaceAllString(s, " ")
	s = reSpaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func NormalizeSpaces(input string) string {
	s := strings.ReplaceAll(input, "\u00a0", " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// TrimQuotes removes wrapping quote marks, e.g. from a review title line.
func TrimQuotes(input string) string {
	return strings.TrimSpace(reQuotes.ReplaceAllString(strings.TrimSpace(input), ""))
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
