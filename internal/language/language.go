package language

import (
	"fmt"
	"slices"
	"strings"
)

// Language is a transcription language the realtime service is asked for.
// Regions lists the region subtags commonly requested with it (e.g. "nl-BE").
type Language struct {
	Code       string // ISO 639-1 code
	Name       string
	NativeName string
	Regions    []string
}

var languages = []Language{
	{Code: "ar", Name: "Arabic", NativeName: "العربية", Regions: []string{"SA", "AE", "EG"}},
	{Code: "ca", Name: "Catalan", NativeName: "Català", Regions: []string{"ES"}},
	{Code: "cs", Name: "Czech", NativeName: "Čeština", Regions: []string{"CZ"}},
	{Code: "da", Name: "Danish", NativeName: "Dansk", Regions: []string{"DK"}},
	{Code: "de", Name: "German", NativeName: "Deutsch", Regions: []string{"DE", "AT", "CH"}},
	{Code: "el", Name: "Greek", NativeName: "Ελληνικά", Regions: []string{"GR"}},
	{Code: "en", Name: "English", NativeName: "English", Regions: []string{"US", "GB", "AU", "IE", "IN"}},
	{Code: "es", Name: "Spanish", NativeName: "Español", Regions: []string{"ES", "MX", "AR", "US"}},
	{Code: "fi", Name: "Finnish", NativeName: "Suomi", Regions: []string{"FI"}},
	{Code: "fr", Name: "French", NativeName: "Français", Regions: []string{"FR", "BE", "CA", "CH"}},
	{Code: "hi", Name: "Hindi", NativeName: "हिन्दी", Regions: []string{"IN"}},
	{Code: "hu", Name: "Hungarian", NativeName: "Magyar", Regions: []string{"HU"}},
	{Code: "it", Name: "Italian", NativeName: "Italiano", Regions: []string{"IT", "CH"}},
	{Code: "ja", Name: "Japanese", NativeName: "日本語", Regions: []string{"JP"}},
	{Code: "ko", Name: "Korean", NativeName: "한국어", Regions: []string{"KR"}},
	{Code: "nl", Name: "Dutch", NativeName: "Nederlands", Regions: []string{"NL", "BE"}},
	{Code: "no", Name: "Norwegian", NativeName: "Norsk", Regions: []string{"NO"}},
	{Code: "pl", Name: "Polish", NativeName: "Polski", Regions: []string{"PL"}},
	{Code: "pt", Name: "Portuguese", NativeName: "Português", Regions: []string{"PT", "BR"}},
	{Code: "ro", Name: "Romanian", NativeName: "Română", Regions: []string{"RO"}},
	{Code: "ru", Name: "Russian", NativeName: "Русский", Regions: []string{"RU"}},
	{Code: "sv", Name: "Swedish", NativeName: "Svenska", Regions: []string{"SE"}},
	{Code: "tr", Name: "Turkish", NativeName: "Türkçe", Regions: []string{"TR"}},
	{Code: "uk", Name: "Ukrainian", NativeName: "Українська", Regions: []string{"UA"}},
	{Code: "zh", Name: "Chinese", NativeName: "中文", Regions: []string{"CN", "TW"}},
}

var codeIndex map[string]Language

func init() {
	codeIndex = make(map[string]Language, len(languages))
	for _, lang := range languages {
		codeIndex[lang.Code] = lang
	}
}

// Lookup returns the Language for a base code or a tag such as "nl-BE".
func Lookup(tag string) (Language, bool) {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(tag)), "-")
	lang, ok := codeIndex[base]
	return lang, ok
}

// Normalize canonicalizes a language tag to "xx" or "xx-YY". Any well-formed
// tag is accepted; the service decides which ones it serves.
func Normalize(tag string) (string, error) {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if tag == "" {
		return "", fmt.Errorf("language is required")
	}

	base, region, hasRegion := strings.Cut(tag, "-")
	if !isAlpha(base) || len(base) < 2 || len(base) > 3 {
		return "", fmt.Errorf("invalid language %q: expected a code like \"en\" or \"nl-NL\"", tag)
	}
	base = strings.ToLower(base)
	if !hasRegion {
		return base, nil
	}
	if !isAlpha(region) || len(region) != 2 {
		return "", fmt.Errorf("invalid region in language %q", tag)
	}
	return base + "-" + strings.ToUpper(region), nil
}

// Known reports whether tag's base language is in the built-in list.
func Known(tag string) bool {
	_, ok := Lookup(tag)
	return ok
}

// List returns all built-in languages
func List() []Language {
	result := make([]Language, len(languages))
	copy(result, languages)
	return result
}

// Tags returns every base code and code-region combination, sorted.
func Tags() []string {
	var tags []string
	for _, lang := range languages {
		tags = append(tags, lang.Code)
		for _, region := range lang.Regions {
			tags = append(tags, lang.Code+"-"+region)
		}
	}
	slices.Sort(tags)
	return tags
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}
