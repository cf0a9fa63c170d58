package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"reviewsheet/internal"
)

const googlePage = `<html><body>
<div class="jftiEf" data-review-id="a1">
  <span class="kvMYJc" role="img" aria-label="4 stars"></span>
  <span class="rsqaWe">3 days ago</span>
  <span class="wiI7pd">Luca showed us
  the upper town. TRUE</span>
</div>
<div class="jftiEf" data-review-id="a2">
  <span class="rsqaWe">a month ago</span>
  <span class="wiI7pd">Nice</span>
</div>
<div class="jftiEf">no id, not a review</div>
</body></html>`

const airbnbPage = `<html><body>
<h1>Zagreb Food Tour · Tastings</h1>
<button aria-label="Opens detailed review">
  <div class="d1ylbvwr">January 5, 2026 · 9:15 AM</div>
  <div class="scbur3z"><svg></svg><svg></svg><svg></svg><svg></svg></div>
  <div class="cwk6og9"><span>Diana was</span> <b>brilliant</b><br>would book again</div>
</button>
<button aria-label="Opens detailed review">
  <div class="cwk6og9">Short one</div>
</button>
</body></html>`

const gygPage = `<html><body>
<div data-testid="review-card">
  <div data-testid="Travel date"><span class="text-body">January 5, 2026</span></div>
  <span class="c-user-rating__rating">5</span>
  <div class="text-ellipsis">Zagreb: Communism and Croatian Homeland War Tour</div>
  <div data-testid="Option"><div class="text-body"><span>Option: English | 3 hours</span></div></div>
  <div data-testid="review-card-comment">Katarina knew everything</div>
</div>
<div data-testid="review-card">
  <div class="absolute top-4 right-4">December 30, 2025</div>
  <div data-testid="review-card-comment">Fine</div>
</div>
</body></html>`

const viatorPage = `<html><body>
<div data-automation="review-filters">filters</div>
<div data-automation="review-0">
  <div class="ReviewHeader__reviewDate___x1">Jan 2026</div>
  <div class="ReviewHeader__reviewEntity___x2">Tripadvisor review: Best Zagreb tour</div>
  <svg class="jumpstart_ui__Rating__rating"></svg><svg class="jumpstart_ui__Rating__rating"></svg><svg class="jumpstart_ui__Rating__rating"></svg>
  <div class="ReviewView__reviewContent___x3"><p>Vid made it "fun"</p><button>Show all</button></div>
</div>
</body></html>`

const guruwalkPage = `<html><body><div class="list">
<div class="card">
  <div class="grid grid-flow-col"><svg class="text-secondary-500"></svg><svg class="text-secondary-500"></svg><svg class="text-secondary-500"></svg><svg class="text-secondary-500"></svg><svg class="text-gray-300"></svg></div>
  <div>Guided by Luka</div>
  <div>Anna - Jan 2026</div>
  <div>Amazing walk through Zagreb</div>
  <div>Content visible only for gurus</div>
  <div>Free Tour Zagreb / EN / January 5, 2026 at 10:00 AM</div>
</div>
</div></body></html>`

const freetourPage = `<html><body>
<ul class="reviews">
  <li>
    <p>"Great time"</p>
    <span style="color: #fba749">★★★★</span>
    <p>Old town walk / 2026-01-05 / 10:00 AM</p>
    <p>Reply</p>
    <p>Ena was lovely</p>
    <p>Report</p>
  </li>
  <li><span style="color:#fba749">★★★★★</span><p>no metadata here at all</p></li>
  <li>« 1 2 3 »</li>
</ul>
</body></html>`

func parsePage(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtractGoogle(t *testing.T) {
	got := extractGoogle(parsePage(t, googlePage))
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].RawRatingIndicator != "4 stars" || got[0].RawDate != "3 days ago" {
		t.Fatalf("first=%+v", got[0])
	}
	if got[1].RawRatingIndicator != "" || got[1].SourcePlatform != "google" {
		t.Fatalf("second=%+v", got[1])
	}
}

func TestExtractAirbnb(t *testing.T) {
	got := extractAirbnb(parsePage(t, airbnbPage))
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	want := internal.RawFieldBundle{
		RawDate:            "January 5, 2026",
		RawTime:            "9:15 AM",
		RawRatingIndicator: "4",
		RawTourTitle:       "Zagreb Food Tour",
		RawReviewText:      "Diana was brilliant\nwould book again",
		SourcePlatform:     "airbnb",
	}
	if got[0] != want {
		t.Fatalf("got %+v\nwant %+v", got[0], want)
	}
	if got[1].RawRatingIndicator != "" || got[1].RawTourTitle != "Zagreb Food Tour" {
		t.Fatalf("second=%+v", got[1])
	}
}

func TestExtractGetYourGuide(t *testing.T) {
	got := extractGetYourGuide(parsePage(t, gygPage))
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].RawDate != "January 5, 2026" || got[0].RawLanguageCode != "English" || got[0].RawRatingIndicator != "5" {
		t.Fatalf("first=%+v", got[0])
	}
	if got[1].RawDate != "December 30, 2025" || got[1].RawTourTitle != "" {
		t.Fatalf("second=%+v", got[1])
	}
}

func TestExtractViatorSkipsFilterRow(t *testing.T) {
	got := extractViator(parsePage(t, viatorPage))
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].RawRatingIndicator != "3" || got[0].RawReviewText != `Vid made it "fun"` {
		t.Fatalf("got=%+v", got[0])
	}
}

func TestExtractGuruwalk(t *testing.T) {
	got := extractGuruwalk(parsePage(t, guruwalkPage))
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	want := internal.RawFieldBundle{
		RawDate:            "January 5, 2026",
		RawTime:            "10:00 AM",
		RawRatingIndicator: "4",
		RawTourTitle:       "Free Tour Zagreb",
		RawLanguageCode:    "EN",
		RawReviewText:      "Amazing walk through Zagreb",
		RawGuideHintText:   "Guided by Luka",
		SourcePlatform:     "guruwalk",
	}
	if got[0] != want {
		t.Fatalf("got %+v\nwant %+v", got[0], want)
	}
}

func TestExtractFreetour(t *testing.T) {
	got := extractFreetour(parsePage(t, freetourPage))
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	want := internal.RawFieldBundle{
		RawDate:            "2026-01-05",
		RawTime:            "10:00 AM",
		RawRatingIndicator: "4",
		RawTourTitle:       "Old town walk",
		RawReviewText:      "Ena was lovely",
		SourcePlatform:     "freetour",
	}
	if got[0] != want {
		t.Fatalf("got %+v\nwant %+v", got[0], want)
	}
}

func TestDetectPlatform(t *testing.T) {
	pages := map[internal.Platform]string{
		internal.PlatformGoogle:       googlePage,
		internal.PlatformAirbnb:       airbnbPage,
		internal.PlatformGetYourGuide: gygPage,
		internal.PlatformViator:       viatorPage,
		internal.PlatformGuruwalk:     guruwalkPage,
		internal.PlatformFreetour:     freetourPage,
	}
	for want, page := range pages {
		t.Run(string(want), func(t *testing.T) {
			got := DetectPlatform(page)
			if got.Platform != want || got.Reason != "rules_positive" {
				t.Fatalf("got %+v", got)
			}
		})
	}
	if got := DetectPlatform("<p>nothing to see</p>"); got.Platform != "" {
		t.Fatalf("got %+v", got)
	}
}

func TestHTMLPageToRecords(t *testing.T) {
	doc, err := HTMLSource{HTML: []byte(guruwalkPage)}.Bundles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	records, _ := NewAssembler(nil, mustPolicy(t, internal.PlatformGuruwalk), WithClock(fixedClock)).Assemble(doc.Bundles, Overrides{})
	want := internal.Record{
		Date: "05/Jan/2026", Time: "10:00", Guide: "Luka Pelicarić", Rating: "4", Tour: "Free Tour Zagreb",
		City: "zg", Language: "eng", Platform: "Guruwalk", Review: "Amazing walk through Zagreb",
	}
	if records[0] != want {
		t.Fatalf("got %+v\nwant %+v", records[0], want)
	}
}
