package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reviewsheet/internal"
)

func TestDecodeBundles(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		platform string
		city     string
		first    internal.RawFieldBundle
		n        int
	}{
		{
			name:  "array with canonical names",
			in:    `[{"rawDate":"2026-01-05","rawTime":"3:00 PM","rawRatingIndicator":4,"rawTourTitle":"Zagreb Food Tour"}]`,
			first: internal.RawFieldBundle{RawDate: "2026-01-05", RawTime: "3:00 PM", RawRatingIndicator: "4", RawTourTitle: "Zagreb Food Tour"},
			n:     1,
		},
		{
			name:     "wrapped with aliases",
			in:       `{"platform":"google","city":"zg","reviews":[{"publishedAt":"3 days ago","stars":5,"text":"Lovely","reviewOrigin":"Google"},{}]}`,
			platform: "google",
			city:     "zg",
			first:    internal.RawFieldBundle{RawDate: "3 days ago", RawRatingIndicator: "5", RawReviewText: "Lovely", SourcePlatform: "Google"},
			n:        2,
		},
		{
			name:  "nested rating",
			in:    `[{"rating":{"value":4.0},"guidedBy":"Guided by Vid","flag":true}]`,
			first: internal.RawFieldBundle{RawRatingIndicator: "4.0", RawGuideHintText: "Guided by Vid"},
			n:     1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeBundles([]byte(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			if len(doc.Bundles) != tt.n {
				t.Fatalf("len=%d", len(doc.Bundles))
			}
			if doc.Platform != tt.platform || doc.City != tt.city {
				t.Fatalf("platform=%q city=%q", doc.Platform, doc.City)
			}
			if doc.Bundles[0] != tt.first {
				t.Fatalf("got %+v\nwant %+v", doc.Bundles[0], tt.first)
			}
		})
	}
}

func TestDecodeBundlesRejects(t *testing.T) {
	for _, in := range []string{`not json`, `"text"`, `{"foo":[]}`, `[1,2]`} {
		if _, err := DecodeBundles([]byte(in)); !errors.Is(err, ErrUnsupportedInput) {
			t.Fatalf("%s: err=%v", in, err)
		}
	}
}

func TestSourceForFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "dump.json")
	if err := os.WriteFile(jsonPath, []byte(`[{"rawReviewText":"ok","sourcePlatform":"viator"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	htmlPath := filepath.Join(dir, "page.html")
	if err := os.WriteFile(htmlPath, []byte(googlePage), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := SourceForFile("auto", jsonPath, "")
	if err != nil {
		t.Fatal(err)
	}
	doc, err := src.Bundles(context.Background())
	if err != nil || len(doc.Bundles) != 1 {
		t.Fatalf("json doc=%+v err=%v", doc, err)
	}

	src, err = SourceForFile("", htmlPath, "")
	if err != nil {
		t.Fatal(err)
	}
	doc, err = src.Bundles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Platform != string(internal.PlatformGoogle) || len(doc.Bundles) != 2 {
		t.Fatalf("html doc=%+v", doc)
	}

	if _, err := SourceForFile("pdf", jsonPath, ""); !errors.Is(err, ErrUnsupportedInput) {
		t.Fatalf("err=%v", err)
	}
}

func TestHTMLSourceUnknownPage(t *testing.T) {
	_, err := HTMLSource{HTML: []byte("<html><body><p>hello</p></body></html>")}.Bundles(context.Background())
	if !errors.Is(err, ErrUnknownPlatform) {
		t.Fatalf("err=%v", err)
	}
}

func TestSourcesHonourCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (JSONSource{Blob: []byte(`[]`)}).Bundles(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
	if _, err := (HTMLSource{HTML: []byte(googlePage)}).Bundles(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
}
