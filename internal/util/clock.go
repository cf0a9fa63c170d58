package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reClock12 = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*([ap])\.?\s*m\.?$`)
	reClock24 = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)
)

// NormalizeTime converts a 12-hour clock ("3:00 PM") to 24-hour HH:MM.
// 12 AM becomes 00, PM hours below 12 gain 12, and everything else keeps
// its hour as written, so "9:15 AM" stays "9:15".
func NormalizeTime(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	m := reClock12.FindStringSubmatch(s)
	if m == nil {
		if c := reClock24.FindStringSubmatch(s); c != nil {
			return c[1] + ":" + c[2]
		}
		return raw
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 12 {
		return raw
	}
	minutes := m[2]
	if minutes == "" {
		minutes = "00"
	}
	if n, _ := strconv.Atoi(minutes); n > 59 {
		return raw
	}

	pm := strings.EqualFold(m[3], "p")
	switch {
	case hour == 12 && !pm:
		return "00:" + minutes
	case pm && hour != 12:
		return strconv.Itoa(hour+12) + ":" + minutes
	default:
		return m[1] + ":" + minutes
	}
}
