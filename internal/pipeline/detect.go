package pipeline

import (
	"strings"

	"reviewsheet/internal"
)

type DetectResult struct {
	Platform internal.Platform
	Score    float64
	Reason   string
}

type marker struct {
	text   string
	weight float64
}

// Structural markers weigh more than the site name, which also shows up in
// links and footers of unrelated pages.
var detectMarkers = map[internal.Platform][]marker{
	internal.PlatformAirbnb: {
		{`aria-label="opens detailed review"`, 0.6}, {"d1ylbvwr", 0.2}, {"airbnb", 0.2},
	},
	internal.PlatformGetYourGuide: {
		{`data-testid="review-card"`, 0.5}, {"c-user-rating__rating", 0.3}, {"getyourguide", 0.2},
	},
	internal.PlatformViator: {
		{"reviewheader__reviewdate", 0.4}, {"jumpstart_ui__rating", 0.3}, {"viator", 0.2},
	},
	internal.PlatformGoogle: {
		{"data-review-id", 0.4}, {"jftief", 0.2}, {"wii7pd", 0.2}, {"google", 0.1},
	},
	internal.PlatformGuruwalk: {
		{"content visible only for gurus", 0.5}, {"guided by", 0.2}, {"guruwalk", 0.2},
	},
	internal.PlatformFreetour: {
		{"fba749", 0.5}, {"freetour", 0.3},
	},
}

const detectThreshold = 0.45

// DetectPlatform guesses which site a saved page came from. Ties go to the
// platform declared first.
func DetectPlatform(html string) DetectResult {
	lower := strings.ToLower(html)

	best := DetectResult{Reason: "rules_negative"}
	for _, p := range internal.Platforms {
		score := 0.0
		for _, m := range detectMarkers[p] {
			if strings.Contains(lower, m.text) {
				score += m.weight
			}
		}
		if score > 1 {
			score = 1
		}
		if score > best.Score {
			best.Score = score
			best.Platform = p
		}
	}

	if best.Score < detectThreshold {
		return DetectResult{Score: best.Score, Reason: "rules_negative"}
	}
	best.Reason = "rules_positive"
	return best
}
