package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthAbbr = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var monthByName = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var (
	reISODate    = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T\s].*)?$`)
	reMonthFirst = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})$`)
	reDayFirst   = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?\s+([A-Za-z]+)\.?,?\s+(\d{4})$`)
	reMonthYear  = regexp.MustCompile(`^([A-Za-z]+)\.?,?\s+(\d{4})$`)
	reSlashed    = regexp.MustCompile(`^(\d{1,2})/([A-Za-z]{3,9})/(\d{4})$`)
	reDayWord    = regexp.MustCompile(`^(today|yesterday)(?:$|[^\p{L}\p{N}_'’])`)
	reRelative   = regexp.MustCompile(`\b(\d+|an?|one)\s+(minute|hour|day|week|month|year)s?\s+ago\b`)
	reDateClock  = regexp.MustCompile(`(?i)^(.*?)(?:\s*,)?(?:\s+at)?\s+(\d{1,2}:\d{2}(?::\d{2})?(?:\s*[ap]\.?\s*m\.?)?)$`)
)

// FormatDate renders t as DD/Mon/YYYY.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d/%s/%04d", t.Day(), monthAbbr[t.Month()-1], t.Year())
}

// NormalizeDate converts an ISO date, an English long-form date or a
// relative phrase ("3 days ago") to DD/Mon/YYYY. Relative phrases are
// resolved against now. Empty input yields "", input that is not a date at
// all is returned unchanged.
func NormalizeDate(raw string, now time.Time) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if t, ok := parseAbsoluteDate(s); ok {
		return FormatDate(t)
	}
	if t, ok := parseRelativeDate(s, now); ok {
		return FormatDate(t)
	}
	return raw
}

// SplitDateTime separates a combined value such as
// "January 5, 2026 at 3:00 PM" into a normalized date and clock.
func SplitDateTime(raw string, now time.Time) (string, string) {
	s := NormalizeSpaces(raw)
	if s == "" {
		return "", ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatDate(t), t.Format("15:04")
		}
	}
	if m := reDateClock.FindStringSubmatch(s); m != nil && strings.TrimSpace(m[1]) != "" {
		return NormalizeDate(m[1], now), NormalizeTime(m[2])
	}
	return NormalizeDate(raw, now), ""
}

func parseAbsoluteDate(s string) (time.Time, bool) {
	if m := reISODate.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], monthNumber(m[2]), m[3])
	}
	if m := reMonthFirst.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], monthByName[strings.ToLower(m[1])], m[2])
	}
	if m := reDayFirst.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], monthByName[strings.ToLower(m[2])], m[1])
	}
	if m := reSlashed.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], monthByName[strings.ToLower(m[2])], m[1])
	}
	if m := reMonthYear.FindStringSubmatch(s); m != nil {
		return buildDate(m[2], monthByName[strings.ToLower(m[1])], "1")
	}
	return time.Time{}, false
}

// maxRelativeDays bounds relative phrases to what still lands in a
// four-digit year.
const maxRelativeDays = 10000 * 366

func parseRelativeDate(s string, now time.Time) (time.Time, bool) {
	text := strings.ToLower(s)
	if m := reDayWord.FindStringSubmatch(text); m != nil {
		if m[1] == "yesterday" {
			return now.AddDate(0, 0, -1), true
		}
		return now, true
	}

	m := reRelative.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	n := 1
	if m[1] != "a" && m[1] != "an" && m[1] != "one" {
		parsed, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		n = parsed
	}

	var t time.Time
	switch m[2] {
	case "minute":
		t = backDays(now, n/(24*60), time.Duration(n%(24*60))*time.Minute)
	case "hour":
		t = backDays(now, n/24, time.Duration(n%24)*time.Hour)
	case "day":
		t = backDays(now, n, 0)
	case "week":
		if n > maxRelativeDays/7 {
			return time.Time{}, false
		}
		t = backDays(now, 7*n, 0)
	case "month":
		if n > maxRelativeDays/28 {
			return time.Time{}, false
		}
		t = now.AddDate(0, -n, 0)
	case "year":
		if n > maxRelativeDays/365 {
			return time.Time{}, false
		}
		t = now.AddDate(-n, 0, 0)
	default:
		return time.Time{}, false
	}
	if t.IsZero() || t.Year() < 0 || t.Year() > 9999 {
		return time.Time{}, false
	}
	return t, true
}

// backDays steps days and then rest back from now. It returns the zero time
// when the span is too large to be a date.
func backDays(now time.Time, days int, rest time.Duration) time.Time {
	if days > maxRelativeDays {
		return time.Time{}
	}
	return now.AddDate(0, 0, -days).Add(-rest)
}

func monthNumber(v string) time.Month {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 12 {
		return 0
	}
	return time.Month(n)
}

func buildDate(year string, month time.Month, day string) (time.Time, bool) {
	if month == 0 {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	t := time.Date(y, month, d, 0, 0, 0, 0, time.UTC)
	// time.Date rolls 31 Feb over into March.
	if t.Day() != d || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
