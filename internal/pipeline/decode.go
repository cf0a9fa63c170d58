package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"reviewsheet/internal"
)

var ErrUnsupportedInput = errors.New("unsupported input")

/********** alias registry (single source of truth) **********/

var bundleAliases = map[string][]string{
	"date":     {"rawDate", "date", "publishedAt", "publishedAtDate", "travelDate"},
	"time":     {"rawTime", "time"},
	"datetime": {"rawDateTime", "dateTime", "datetime"},
	"rating":   {"rawRatingIndicator", "rating", "stars", "score", "rating.value"},
	"tour":     {"rawTourTitle", "tour", "tourTitle", "title", "product.title"},
	"lang":     {"rawLanguageCode", "language", "lang", "languageCode"},
	"text":     {"rawReviewText", "review", "text", "reviewText", "comment"},
	"guide":    {"rawGuideHintText", "guideHint", "guidedBy", "guide"},
	"platform": {"sourcePlatform", "platform", "reviewOrigin", "source"},
}

var documentAliases = map[string][]string{
	"platform": {"platform", "sourcePlatform"},
	"city":     {"city", "cityOverride"},
	"bundles":  {"bundles", "reviews", "items"},
}

// BundleDocument is a decoded dump: the bundles plus optional run-level
// platform and city supplied by whoever produced it.
type BundleDocument struct {
	Platform string
	City     string
	Bundles  []internal.RawFieldBundle
}

// DecodeBundles accepts a JSON array of bundles or an object wrapping one.
// Field names are matched through the alias registry and scalar values of
// any JSON type are kept as text, so {"rating": 4} and {"rating": "4"}
// decode alike.
func DecodeBundles(blob []byte) (BundleDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return BundleDocument{}, fmt.Errorf("%w: decode bundles: %v", ErrUnsupportedInput, err)
	}

	var doc BundleDocument
	var items []any
	switch v := root.(type) {
	case []any:
		items = v
	case map[string]any:
		doc.Platform = firstAlias(v, documentAliases, "platform")
		doc.City = firstAlias(v, documentAliases, "city")
		for _, p := range documentAliases["bundles"] {
			if arr, ok := lookupAny(v, p).([]any); ok {
				items = arr
				break
			}
		}
		if items == nil {
			return BundleDocument{}, fmt.Errorf("%w: object without bundles", ErrUnsupportedInput)
		}
	default:
		return BundleDocument{}, fmt.Errorf("%w: expected array or object", ErrUnsupportedInput)
	}

	doc.Bundles = make([]internal.RawFieldBundle, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return BundleDocument{}, fmt.Errorf("%w: bundle %d is not an object", ErrUnsupportedInput, i)
		}
		doc.Bundles = append(doc.Bundles, bundleFromMap(m))
	}
	return doc, nil
}

func bundleFromMap(m map[string]any) internal.RawFieldBundle {
	return internal.RawFieldBundle{
		RawDate:            firstAlias(m, bundleAliases, "date"),
		RawTime:            firstAlias(m, bundleAliases, "time"),
		RawDateTime:        firstAlias(m, bundleAliases, "datetime"),
		RawRatingIndicator: firstAlias(m, bundleAliases, "rating"),
		RawTourTitle:       firstAlias(m, bundleAliases, "tour"),
		RawLanguageCode:    firstAlias(m, bundleAliases, "lang"),
		RawReviewText:      firstAlias(m, bundleAliases, "text"),
		RawGuideHintText:   firstAlias(m, bundleAliases, "guide"),
		SourcePlatform:     firstAlias(m, bundleAliases, "platform"),
	}
}

/********** tiny helpers **********/

// lookupAny: nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func firstAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := scalarString(lookupAny(m, p)); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
