package util

import (
	"regexp"
	"strconv"
	"strings"
)

var ratingNumberPattern = regexp.MustCompile(`\d+`)

// ParseRating pulls a 1–5 rating out of an icon count, a numeric string or
// an accessibility label such as "Rated 4 out of 5". The first integer in
// the text wins; anything outside 1–5 counts as no rating.
func ParseRating(input string) (string, bool) {
	line := strings.TrimSpace(input)
	if line == "" {
		return "", false
	}
	token := ratingNumberPattern.FindString(line)
	if token == "" {
		return "", false
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 1 || n > 5 {
		return "", false
	}
	return strconv.Itoa(n), true
}
