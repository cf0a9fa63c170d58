package pipeline

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"reviewsheet/internal"
)

// Selectors follow the live sites' markup at the time of writing; when a
// site changes its layout the matching extractor simply finds fewer cards.

type pageExtractor func(doc *goquery.Document) []internal.RawFieldBundle

var pageExtractors = map[internal.Platform]pageExtractor{
	internal.PlatformAirbnb:       extractAirbnb,
	internal.PlatformFreetour:     extractFreetour,
	internal.PlatformGetYourGuide: extractGetYourGuide,
	internal.PlatformGuruwalk:     extractGuruwalk,
	internal.PlatformViator:       extractViator,
	internal.PlatformGoogle:       extractGoogle,
}

var blockTags = map[string]bool{
	"div": true, "p": true, "section": true, "article": true, "header": true, "footer": true,
	"ul": true, "ol": true, "li": true, "tr": true, "table": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var reInlineSpace = regexp.MustCompile(`\s+`)

// blockText approximates rendered text: block elements start new lines,
// whitespace inside a line collapses, blank lines are dropped.
func blockText(sel *goquery.Selection) string {
	var sb strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch name := goquery.NodeName(c); {
			case name == "#text":
				sb.WriteString(reInlineSpace.ReplaceAllString(c.Text(), " "))
			case name == "script" || name == "style":
			case name == "br":
				sb.WriteByte('\n')
			case blockTags[name]:
				sb.WriteByte('\n')
				walk(c)
				sb.WriteByte('\n')
			default:
				walk(c)
			}
		})
	}
	walk(sel)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, q := range selectors {
		if t := strings.TrimSpace(blockText(sel.Find(q).First())); t != "" {
			return t
		}
	}
	return ""
}

func countOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func extractAirbnb(doc *goquery.Document) []internal.RawFieldBundle {
	title := strings.TrimSpace(strings.Split(doc.Find("h1").First().Text(), "·")[0])

	var out []internal.RawFieldBundle
	doc.Find(`button[aria-label="Opens detailed review"]`).Each(func(_ int, card *goquery.Selection) {
		b := internal.RawFieldBundle{
			RawTourTitle:   title,
			RawReviewText:  blockText(card.Find(".cwk6og9").First()),
			SourcePlatform: string(internal.PlatformAirbnb),
		}
		if meta := card.Find(".d1ylbvwr").First(); meta.Length() > 0 {
			parts := strings.Split(meta.Text(), "·")
			b.RawDate = strings.TrimSpace(parts[0])
			if len(parts) > 1 {
				b.RawTime = strings.TrimSpace(parts[1])
			}
		}
		if stars := card.Find(".scbur3z").First(); stars.Length() > 0 {
			b.RawRatingIndicator = countOrEmpty(stars.Find("svg").Length())
		}
		out = append(out, b)
	})
	return out
}

func extractGetYourGuide(doc *goquery.Document) []internal.RawFieldBundle {
	var out []internal.RawFieldBundle
	doc.Find(`[data-testid="review-card"]`).Each(func(_ int, card *goquery.Selection) {
		b := internal.RawFieldBundle{
			RawDate:            firstText(card, `[data-testid="Travel date"] .text-body`, ".absolute.top-4.right-4"),
			RawRatingIndicator: firstText(card, ".c-user-rating__rating"),
			RawTourTitle:       firstText(card, ".text-ellipsis"),
			RawReviewText:      blockText(card.Find(`[data-testid="review-card-comment"]`).First()),
			SourcePlatform:     string(internal.PlatformGetYourGuide),
		}
		// "Option: English | 3 hours" -> "English"
		if option := firstText(card, `[data-testid="Option"] .text-body span`); option != "" {
			words := strings.Fields(strings.Split(option, "|")[0])
			if len(words) > 0 {
				b.RawLanguageCode = words[len(words)-1]
			}
		}
		out = append(out, b)
	})
	return out
}

var reViatorCard = regexp.MustCompile(`\d+$`)

func extractViator(doc *goquery.Document) []internal.RawFieldBundle {
	var out []internal.RawFieldBundle
	doc.Find(`div[data-automation^="review-"]`).Each(func(_ int, card *goquery.Selection) {
		// the filter row shares the prefix; real cards end in a number
		if id, _ := card.Attr("data-automation"); !reViatorCard.MatchString(id) {
			return
		}
		b := internal.RawFieldBundle{
			RawDate:            firstText(card, `[class*="ReviewHeader__reviewDate"]`),
			RawRatingIndicator: countOrEmpty(card.Find("svg.jumpstart_ui__Rating__rating").Length()),
			RawTourTitle:       firstText(card, `[class*="ReviewHeader__reviewEntity"]`),
			SourcePlatform:     string(internal.PlatformViator),
		}
		if content := card.Find(`[class*="ReviewView__reviewContent___"]`).First(); content.Length() > 0 {
			clone := content.Clone()
			clone.Find("button").Remove()
			b.RawReviewText = blockText(clone)
		}
		out = append(out, b)
	})
	return out
}

func extractGoogle(doc *goquery.Document) []internal.RawFieldBundle {
	var out []internal.RawFieldBundle
	doc.Find(".jftiEf[data-review-id]").Each(func(_ int, el *goquery.Selection) {
		label, _ := el.Find(`.kvMYJc[role="img"]`).First().Attr("aria-label")
		out = append(out, internal.RawFieldBundle{
			RawDate:            strings.TrimSpace(el.Find(".rsqaWe").First().Text()),
			RawRatingIndicator: strings.TrimSpace(label),
			RawReviewText:      strings.TrimSpace(el.Find(".wiI7pd").First().Text()),
			SourcePlatform:     string(internal.PlatformGoogle),
		})
	})
	return out
}

const guruwalkMarker = "Content visible only for gurus"

var (
	reGuruwalkInfo   = regexp.MustCompile(`^(.*?) / ([A-Z]{2}) / (.*?) at (.*)$`)
	reGuruwalkGuide  = regexp.MustCompile(`Guided by (.*?)(?:\n|\|)`)
	reGuruwalkReview = regexp.MustCompile(`-\s[A-Z][a-z]{2}\s\d{4}\n([\s\S]*?)` + guruwalkMarker)
)

func extractGuruwalk(doc *goquery.Document) []internal.RawFieldBundle {
	var cards []*goquery.Selection
	doc.Find("div").Each(func(_ int, div *goquery.Selection) {
		text := blockText(div)
		if strings.Contains(text, guruwalkMarker) && strings.Contains(text, "Guided by") && len(text) < 2000 {
			cards = append(cards, div)
		}
	})

	var out []internal.RawFieldBundle
	for i, card := range cards {
		innermost := true
		for j, other := range cards {
			if i != j && card.Contains(other.Nodes[0]) {
				innermost = false
				break
			}
		}
		if innermost {
			out = append(out, guruwalkBundle(card))
		}
	}
	return out
}

func guruwalkBundle(card *goquery.Selection) internal.RawFieldBundle {
	text := blockText(card)
	b := internal.RawFieldBundle{SourcePlatform: string(internal.PlatformGuruwalk)}

	card.Find(".grid.grid-flow-col").EachWithBreak(func(_ int, w *goquery.Selection) bool {
		if w.Find("svg").Length() == 0 {
			return true
		}
		b.RawRatingIndicator = strconv.Itoa(w.Find("svg.text-secondary-500").Length())
		return false
	})

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != guruwalkMarker || i+1 >= len(lines) {
			continue
		}
		if m := reGuruwalkInfo.FindStringSubmatch(lines[i+1]); m != nil {
			b.RawTourTitle = strings.TrimSpace(m[1])
			b.RawLanguageCode = m[2]
			b.RawDate = strings.TrimSpace(m[3])
			b.RawTime = strings.TrimSpace(m[4])
		}
		break
	}

	if m := reGuruwalkGuide.FindStringSubmatch(text + "\n"); m != nil {
		b.RawGuideHintText = "Guided by " + strings.TrimSpace(m[1])
	}
	if m := reGuruwalkReview.FindStringSubmatch(text); m != nil {
		b.RawReviewText = strings.TrimSpace(m[1])
	}
	return b
}

const freetourStar = `[style*="fba749"]`

var reISODate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

func extractFreetour(doc *goquery.Document) []internal.RawFieldBundle {
	// the review list is the element with the most star-bearing children
	var container *goquery.Selection
	best := 0
	doc.Find("div, ul, section").Each(func(_ int, el *goquery.Selection) {
		score := 0
		el.Children().Each(func(_ int, child *goquery.Selection) {
			if child.Find(freetourStar).Length() > 0 {
				score++
			}
		})
		if score > best {
			best, container = score, el
		}
	})
	if container == nil {
		return nil
	}

	var out []internal.RawFieldBundle
	container.Children().Each(func(_ int, card *goquery.Selection) {
		text := blockText(card)
		if text == "" || strings.HasPrefix(text, "«") || strings.HasPrefix(text, "»") || utf8.RuneCountInString(text) < 10 {
			return
		}
		b := internal.RawFieldBundle{SourcePlatform: string(internal.PlatformFreetour)}

		if star := card.Find(freetourStar).First(); star.Length() > 0 {
			n := utf8.RuneCountInString(strings.TrimSpace(star.Text()))
			if n == 0 {
				n = star.Children().Length()
			}
			b.RawRatingIndicator = countOrEmpty(n)
		}

		lines := strings.Split(text, "\n")
		for _, line := range lines {
			if !reISODate.MatchString(line) || !strings.Contains(line, "/") {
				continue
			}
			// "Tour name / 2026-01-05 / 10:00 AM"
			if parts := strings.Split(line, " / "); len(parts) >= 3 {
				b.RawTourTitle = strings.TrimSpace(parts[0])
				b.RawDate = strings.TrimSpace(parts[1])
				b.RawTime = strings.TrimSpace(parts[2])
			}
			break
		}
		if b.RawDate == "" && b.RawTourTitle == "" {
			return
		}

		for i, line := range lines {
			if line == "Reply" {
				review := strings.Join(lines[i+1:], "\n")
				b.RawReviewText = strings.TrimSpace(strings.TrimSuffix(review, "Report"))
				break
			}
		}
		out = append(out, b)
	})
	return out
}
