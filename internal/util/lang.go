package util

import (
	"strings"

	"golang.org/x/text/language"
)

// languageCodes keeps the spreadsheet's historical codes; "esp" is not ISO
// 639-3 but existing sheets already use it.
var languageCodes = map[string]string{
	"en": "eng", "english": "eng", "eng": "eng",
	"es": "esp", "spanish": "esp", "español": "esp", "esp": "esp", "spa": "esp",
	"de": "deu", "german": "deu", "deutsch": "deu", "ger": "deu",
	"fr": "fra", "french": "fra", "français": "fra", "fre": "fra",
	"it": "ita", "italian": "ita", "italiano": "ita",
	"pt": "por", "portuguese": "por", "português": "por",
	"hr": "hrv", "croatian": "hrv", "hrvatski": "hrv",
	"nl": "nld", "dutch": "nld",
	"pl": "pol", "polish": "pol",
}

// NormalizeLanguage maps a language code or English language name to a
// lowercase three-letter code. Unknown values yield "".
func NormalizeLanguage(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if code, ok := languageCodes[s]; ok {
		return code
	}

	tag, err := language.Parse(s)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	iso3 := strings.ToLower(base.ISO3())
	if iso3 == "und" || len(iso3) != 3 {
		return ""
	}
	return iso3
}
