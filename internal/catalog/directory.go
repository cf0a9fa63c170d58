package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"reviewsheet/internal"
	"reviewsheet/internal/util"
)

//go:embed directory.yaml
var defaultYAML []byte

var (
	ErrEmptyDirectory = errors.New("directory has no guides, cities or tours")
	ErrMissingName    = errors.New("guide name is required")
	ErrNoVariants     = errors.New("guide needs at least one variant")
	ErrMissingCode    = errors.New("code is required")
	ErrNoKeywords     = errors.New("at least one keyword is required")
)

type GuideEntry struct {
	Name     string   `yaml:"name" json:"name"`
	Variants []string `yaml:"variants" json:"variants"`
}

type KeywordEntry struct {
	Code     string   `yaml:"code" json:"code"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

type document struct {
	Version       string         `yaml:"version"`
	Guides        []GuideEntry   `yaml:"guides"`
	Cities        []KeywordEntry `yaml:"cities"`
	Tours         []KeywordEntry `yaml:"tours"`
	StripPrefixes []string       `yaml:"strip_prefixes"`
}

type guidePattern struct {
	entry GuideEntry
	re    *regexp.Regexp
}

type cityPattern struct {
	code string
	re   *regexp.Regexp
}

// Directory holds the ordered guide, city and tour lookup tables.
// It is immutable once built and safe to share between goroutines.
type Directory struct {
	Version  string
	guides   []guidePattern
	cities   []KeywordEntry
	cityRes  []cityPattern
	tours    []KeywordEntry
	prefixes []string
}

var defaultDirectory = sync.OnceValue(func() *Directory {
	d, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded directory: %v", err))
	}
	return d
})

// Default returns the directory bundled with the binary.
func Default() *Directory {
	return defaultDirectory()
}

func LoadFile(path string) (*Directory, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := Parse(blob)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func Parse(blob []byte) (*Directory, error) {
	var doc document
	if err := yaml.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("parse directory: %w", err)
	}
	return build(doc)
}

func build(doc document) (*Directory, error) {
	if len(doc.Guides) == 0 && len(doc.Cities) == 0 && len(doc.Tours) == 0 {
		return nil, ErrEmptyDirectory
	}

	d := &Directory{Version: strings.TrimSpace(doc.Version)}
	for i, g := range doc.Guides {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return nil, fmt.Errorf("guides[%d]: %w", i, ErrMissingName)
		}
		variants := cleanKeywords(g.Variants)
		if len(variants) == 0 {
			return nil, fmt.Errorf("guides[%d] %s: %w", i, name, ErrNoVariants)
		}
		entry := GuideEntry{Name: name, Variants: variants}
		d.guides = append(d.guides, guidePattern{entry: entry, re: compileVariants(variants)})
	}

	var err error
	if d.cities, err = buildKeywordTable("cities", doc.Cities); err != nil {
		return nil, err
	}
	for _, c := range d.cities {
		d.cityRes = append(d.cityRes, cityPattern{code: c.Code, re: compileVariants(c.Keywords)})
	}
	if d.tours, err = buildKeywordTable("tours", doc.Tours); err != nil {
		return nil, err
	}
	for _, p := range doc.StripPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			d.prefixes = append(d.prefixes, p)
		}
	}
	return d, nil
}

func buildKeywordTable(section string, entries []KeywordEntry) ([]KeywordEntry, error) {
	out := make([]KeywordEntry, 0, len(entries))
	for i, e := range entries {
		code := strings.TrimSpace(e.Code)
		if code == "" {
			return nil, fmt.Errorf("%s[%d]: %w", section, i, ErrMissingCode)
		}
		keywords := cleanKeywords(e.Keywords)
		if len(keywords) == 0 {
			return nil, fmt.Errorf("%s[%d] %s: %w", section, i, code, ErrNoKeywords)
		}
		out = append(out, KeywordEntry{Code: code, Keywords: keywords})
	}
	return out, nil
}

func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.ToLower(util.NormalizeSpaces(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// compileVariants builds one whole-word pattern for all spellings of a
// guide or city. Word edges are Unicode-aware, so "lukaš" never matches "luka".
func compileVariants(variants []string) *regexp.Regexp {
	sorted := append([]string(nil), variants...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	alts := make([]string, 0, len(sorted))
	for _, v := range sorted {
		words := strings.Fields(v)
		for i := range words {
			words[i] = regexp.QuoteMeta(words[i])
		}
		alts = append(alts, strings.Join(words, `\s*`))
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(?:` + strings.Join(alts, "|") + `)(?:[^\p{L}\p{N}_]|$)`)
}

// ResolveGuide returns the canonical name of the first directory entry that
// appears as a whole word in the texts. Texts are tried in order, so a
// dedicated attribution string should come before the review body.
func (d *Directory) ResolveGuide(texts ...string) string {
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, g := range d.guides {
			if g.re.MatchString(text) {
				return g.entry.Name
			}
		}
	}
	return internal.GuideNotFound
}

// ResolveCity returns the code of the first city keyword contained in the
// texts, or "" when none is found.
func (d *Directory) ResolveCity(texts ...string) string {
	for _, text := range texts {
		if code := matchKeyword(d.cities, text); code != "" {
			return code
		}
	}
	return ""
}

// ResolveCityInText looks for a city name standing as a whole word in free
// text such as a review body, where substrings like "pula" in "popular"
// must not count.
func (d *Directory) ResolveCityInText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	for _, c := range d.cityRes {
		if c.re.MatchString(text) {
			return c.code
		}
	}
	return ""
}

// ResolveTour maps a known product title to its short code. Other titles
// come back cleaned: boilerplate prefixes and wrapping quotes removed,
// whitespace collapsed.
func (d *Directory) ResolveTour(title string) string {
	if code := matchKeyword(d.tours, title); code != "" {
		return code
	}
	return d.CleanTitle(title)
}

func (d *Directory) CleanTitle(title string) string {
	s := util.NormalizeSpaces(title)
	for changed := true; changed; {
		changed = false
		for _, p := range d.prefixes {
			if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
				s = strings.TrimSpace(s[len(p):])
				changed = true
			}
		}
	}
	return util.TrimQuotes(s)
}

func matchKeyword(table []KeywordEntry, text string) string {
	lower := strings.ToLower(util.NormalizeSpaces(text))
	if lower == "" {
		return ""
	}
	for _, e := range table {
		for _, k := range e.Keywords {
			if strings.Contains(lower, k) {
				return e.Code
			}
		}
	}
	return ""
}

func (d *Directory) Guides() []GuideEntry {
	out := make([]GuideEntry, 0, len(d.guides))
	for _, g := range d.guides {
		out = append(out, GuideEntry{Name: g.entry.Name, Variants: append([]string(nil), g.entry.Variants...)})
	}
	return out
}

func (d *Directory) Cities() []KeywordEntry { return copyKeywordTable(d.cities) }

func (d *Directory) Tours() []KeywordEntry { return copyKeywordTable(d.tours) }

func (d *Directory) StripPrefixes() []string { return append([]string(nil), d.prefixes...) }

func copyKeywordTable(in []KeywordEntry) []KeywordEntry {
	out := make([]KeywordEntry, 0, len(in))
	for _, e := range in {
		out = append(out, KeywordEntry{Code: e.Code, Keywords: append([]string(nil), e.Keywords...)})
	}
	return out
}
