package internal

import "strings"

type Platform string

const (
	PlatformAirbnb       Platform = "airbnb"
	PlatformFreetour     Platform = "freetour"
	PlatformGetYourGuide Platform = "getyourguide"
	PlatformGuruwalk     Platform = "guruwalk"
	PlatformViator       Platform = "viator"
	PlatformGoogle       Platform = "google"
)

var Platforms = []Platform{
	PlatformAirbnb,
	PlatformFreetour,
	PlatformGetYourGuide,
	PlatformGuruwalk,
	PlatformViator,
	PlatformGoogle,
}

// ParsePlatform accepts an id ("gyg" and "freetour.com" aliases included)
// and reports whether it names a known platform.
func ParsePlatform(v string) (Platform, bool) {
	s := strings.ToLower(strings.TrimSpace(v))
	switch s {
	case "gyg", "get your guide":
		return PlatformGetYourGuide, true
	case "freetour.com", "freetour com":
		return PlatformFreetour, true
	}
	for _, p := range Platforms {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// RawFieldBundle is one discovered review before normalization.
// Every field is optional; an empty string means the source did not supply it.
type RawFieldBundle struct {
	RawDate            string `json:"rawDate,omitempty"`
	RawTime            string `json:"rawTime,omitempty"`
	RawDateTime        string `json:"rawDateTime,omitempty"`
	RawRatingIndicator string `json:"rawRatingIndicator,omitempty"`
	RawTourTitle       string `json:"rawTourTitle,omitempty"`
	RawLanguageCode    string `json:"rawLanguageCode,omitempty"`
	RawReviewText      string `json:"rawReviewText,omitempty"`
	RawGuideHintText   string `json:"rawGuideHintText,omitempty"`
	SourcePlatform     string `json:"sourcePlatform,omitempty"`
}

var Header = [9]string{"Date", "Time", "Guide", "Rating", "Tour", "City", "Language", "Platform", "Review"}

const (
	ColDate = iota
	ColTime
	ColGuide
	ColRating
	ColTour
	ColCity
	ColLanguage
	ColPlatform
	ColReview
)

// Record is the canonical 9-column review row.
type Record struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Guide    string `json:"guide"`
	Rating   string `json:"rating"`
	Tour     string `json:"tour"`
	City     string `json:"city"`
	Language string `json:"language"`
	Platform string `json:"platform"`
	Review   string `json:"review"`
}

func (r Record) Fields() [9]string {
	return [9]string{r.Date, r.Time, r.Guide, r.Rating, r.Tour, r.City, r.Language, r.Platform, r.Review}
}

const GuideNotFound = "N/A"
