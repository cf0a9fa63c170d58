package pipeline

import (
	"errors"
	"fmt"

	"reviewsheet/internal"
)

var ErrUnknownPlatform = errors.New("unknown platform")

// Policy declares which normalizers apply to a platform's bundles and what
// the defaults are. Matching logic itself lives in the catalog directory.
type Policy struct {
	Platform internal.Platform `json:"id"`
	// Literal is written to the Platform column.
	Literal string `json:"literal"`

	ResolveGuide  bool   `json:"resolveGuide"`
	DefaultRating string `json:"defaultRating"`
	MapTour       bool   `json:"mapTour"`
	QuoteReview   bool   `json:"quoteReview"`

	ResolveCity bool `json:"resolveCity"`
	// CityFromReview lets a review body name the city when the title
	// does not. City names in free text only count as whole words.
	CityFromReview bool   `json:"cityFromReview"`
	DefaultCity    string `json:"defaultCity"`
}

var policies = map[internal.Platform]Policy{
	internal.PlatformAirbnb: {
		Platform:      internal.PlatformAirbnb,
		Literal:       "Airbnb",
		ResolveGuide:  true,
		DefaultRating: "5",
		ResolveCity:   true,
		MapTour:       true,
	},
	internal.PlatformFreetour: {
		Platform:    internal.PlatformFreetour,
		Literal:     "freetour com",
		ResolveCity: true,
	},
	internal.PlatformGetYourGuide: {
		Platform:     internal.PlatformGetYourGuide,
		Literal:      "GYG",
		ResolveGuide: true,
		ResolveCity:  true,
		MapTour:      true,
	},
	internal.PlatformGuruwalk: {
		Platform:       internal.PlatformGuruwalk,
		Literal:        "Guruwalk",
		ResolveGuide:   true,
		ResolveCity:    true,
		CityFromReview: true,
		MapTour:        true,
	},
	internal.PlatformViator: {
		Platform:      internal.PlatformViator,
		Literal:       "Viator",
		ResolveGuide:  true,
		DefaultRating: "5",
		DefaultCity:   "zg",
		MapTour:       true,
		QuoteReview:   true,
	},
	internal.PlatformGoogle: {
		Platform:     internal.PlatformGoogle,
		Literal:      "Google",
		ResolveGuide: true,
		DefaultCity:  "zg",
	},
}

func PolicyFor(p internal.Platform) (Policy, error) {
	policy, ok := policies[p]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
	}
	return policy, nil
}

// Policies lists every platform policy in declaration order.
func Policies() []Policy {
	out := make([]Policy, 0, len(internal.Platforms))
	for _, p := range internal.Platforms {
		out = append(out, policies[p])
	}
	return out
}
