package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"reviewsheet/internal"
)

// BundleSource yields the bundles of one run. Implementations may block
// while content settles; they must honour ctx.
type BundleSource interface {
	Bundles(ctx context.Context) (BundleDocument, error)
}

// JSONSource serves a bundle dump, e.g. the body posted by the extension.
type JSONSource struct {
	Blob []byte
}

func (s JSONSource) Bundles(ctx context.Context) (BundleDocument, error) {
	if err := ctx.Err(); err != nil {
		return BundleDocument{}, err
	}
	return DecodeBundles(s.Blob)
}

// HTMLSource extracts bundles from a saved review page. An empty Platform
// is filled in by DetectPlatform.
type HTMLSource struct {
	Platform internal.Platform
	HTML     []byte
}

func (s HTMLSource) Bundles(ctx context.Context) (BundleDocument, error) {
	if err := ctx.Err(); err != nil {
		return BundleDocument{}, err
	}

	platform := s.Platform
	if platform == "" {
		det := DetectPlatform(string(s.HTML))
		if det.Platform == "" {
			return BundleDocument{}, fmt.Errorf("%w: page does not look like a known review site", ErrUnknownPlatform)
		}
		platform = det.Platform
	}
	extract, ok := pageExtractors[platform]
	if !ok {
		return BundleDocument{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(s.HTML))
	if err != nil {
		return BundleDocument{}, fmt.Errorf("parse page: %w", err)
	}
	return BundleDocument{Platform: string(platform), Bundles: extract(doc)}, nil
}

// SourceForFile picks a source by input type ("json", "html" or "auto",
// which goes by the file extension).
func SourceForFile(inputType, path string, platform internal.Platform) (BundleSource, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if inputType == "" || inputType == "auto" {
		inputType = inputTypeFromExt(path)
	}
	switch inputType {
	case "json":
		return JSONSource{Blob: blob}, nil
	case "html":
		return HTMLSource{Platform: platform, HTML: blob}, nil
	default:
		return nil, fmt.Errorf("%w: input type %q", ErrUnsupportedInput, inputType)
	}
}

func inputTypeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".html", ".htm":
		return "html"
	default:
		return ""
	}
}
