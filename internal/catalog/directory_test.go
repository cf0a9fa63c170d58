package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reviewsheet/internal"
)

func TestResolveGuide(t *testing.T) {
	d := Default()
	cases := []struct {
		name string
		text string
		want string
	}{
		{name: "canonical spelling", text: "Our guide Luka was great", want: "Luka Pelicarić"},
		{name: "transliteration", text: "Our guide Luca was great", want: "Luka Pelicarić"},
		{name: "case insensitive", text: "LOOKA knew everything", want: "Luka Pelicarić"},
		{name: "not a whole word", text: "Lukasz was our driver", want: internal.GuideNotFound},
		{name: "diacritic suffix", text: "Lukaš showed us around", want: internal.GuideNotFound},
		{name: "ivana not iva", text: "Ivana was amazing", want: "Ivana Čakarić"},
		{name: "iva", text: "thanks Iva!", want: "Iva Pavlović"},
		{name: "surname initial", text: "Nikolina F. was lovely", want: "Nikolina Folnović"},
		{name: "first declared wins", text: "Vid and Darko both joined", want: "Darko Crnolatac"},
		{name: "no guide", text: "Lovely walk around town", want: internal.GuideNotFound},
		{name: "empty", text: "", want: internal.GuideNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := d.ResolveGuide(tc.text); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestResolveGuidePrefersAttribution(t *testing.T) {
	got := Default().ResolveGuide("Guided by Vid", "Darko joined us for a bit")
	if got != "Vid Dorić" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveCity(t *testing.T) {
	d := Default()
	cases := map[string]string{
		"Zagreb Food Tour":                          "zg",
		"Generic City Walk":                         "",
		"Free Spirit Walking Tour Dubrovnik":        "du",
		"Zagreb: Communism & Croatian Homeland War": "zg",
		"Old town Split and Diocletian's palace":    "st",
		"":                                          "",
	}
	for input, want := range cases {
		if got := d.ResolveCity(input); got != want {
			t.Fatalf("ResolveCity(%q)=%q want %q", input, got, want)
		}
	}

	if got := d.ResolveCity("Generic City Walk", "we loved Zadar"); got != "zd" {
		t.Fatalf("fallback text: got %q", got)
	}
}

func TestResolveCityInText(t *testing.T) {
	d := Default()
	cases := map[string]string{
		"A very popular spot":            "",
		"Best walk in Zagreb!":           "zg",
		"We took the ferry to split.":    "st",
		"dubrovnik-bound after the tour": "du",
		"Rovinjska street food":          "",
		"":                               "",
	}
	for input, want := range cases {
		if got := d.ResolveCityInText(input); got != want {
			t.Fatalf("ResolveCityInText(%q)=%q want %q", input, got, want)
		}
	}
}

func TestResolveTour(t *testing.T) {
	d := Default()
	cases := []struct {
		input string
		want  string
	}{
		{input: "Zagreb Food Tour", want: "food"},
		{input: "Zagreb: Communism and Croatian Homeland War Tour", want: "war"},
		{input: "Communism & Croatian Homeland War", want: "war"},
		{input: "Big Zagreb Private Tour", want: "big"},
		{input: "Old Zagreb Private Tour", want: "old"},
		{input: "Free Spirit Walking Tour Zagreb", want: "free"},
		{input: "Zagreb: Guided City Tour with WWII Tunnels", want: "best"},
		{input: "Tripadvisor review:   Sunset   Kayak Tour ", want: "Sunset Kayak Tour"},
		{input: `  "Upper Town Night Walk"  `, want: "Upper Town Night Walk"},
		{input: "", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			if got := d.ResolveTour(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDefaultDirectoryIsVersioned(t *testing.T) {
	d := Default()
	if d.Version == "" {
		t.Fatal("missing version")
	}
	if len(d.Guides()) == 0 || len(d.Cities()) == 0 || len(d.Tours()) == 0 {
		t.Fatal("empty tables")
	}
	if Default() != d {
		t.Fatal("default directory rebuilt")
	}
}

func TestGuidesReturnsCopy(t *testing.T) {
	d := Default()
	g := d.Guides()
	g[0].Name = "changed"
	if d.Guides()[0].Name == "changed" {
		t.Fatal("directory mutated through accessor")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dir.yaml")
	blob := []byte(`version: test
guides:
  - name: Marko Horvat
    variants: [marko, marco]
cities:
  - code: os
    keywords: [osijek]
`)
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.ResolveGuide("Marco was fun"); got != "Marko Horvat" {
		t.Fatalf("guide=%q", got)
	}
	if got := d.ResolveCity("Osijek by night"); got != "os" {
		t.Fatalf("city=%q", got)
	}
	if got := d.ResolveTour("Osijek by night"); got != "Osijek by night" {
		t.Fatalf("tour=%q", got)
	}
}

func TestParseValidation(t *testing.T) {
	cases := []struct {
		name string
		blob string
		want error
	}{
		{name: "empty", blob: "version: x\n", want: ErrEmptyDirectory},
		{name: "guide without name", blob: "guides:\n  - variants: [a]\n", want: ErrMissingName},
		{name: "guide without variants", blob: "guides:\n  - name: A\n", want: ErrNoVariants},
		{name: "city without code", blob: "cities:\n  - keywords: [x]\n", want: ErrMissingCode},
		{name: "tour without keywords", blob: "tours:\n  - code: x\n", want: ErrNoKeywords},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.blob))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
		})
	}
}
