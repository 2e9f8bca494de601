// Package i18n resolves multilingual text for generated code, templates and
// menu nodes. Language maps come either from jsonb columns or from the
// localization resource store.
package i18n

import (
	"encoding/json"
	"sort"
	"strings"
)

// preferredLanguages is the fixed fallback order used wherever a single string
// must be picked without a user preference (generated code, menu names).
var preferredLanguages = []string{"ja", "en", "zh"}

// Resolve picks the first non-blank value from a language map using the fixed
// fallback order ja, en, zh, then any remaining key. Language keys compare
// case-insensitively; blank means empty or whitespace-only. Returns fallback
// when the map is nil, empty or all-blank.
func Resolve(translations map[string]string, fallback string) string {
	if len(translations) == 0 {
		return fallback
	}

	normalized := NormalizeTranslations(translations)
	for _, lang := range preferredLanguages {
		if v, ok := normalized[lang]; ok {
			return v
		}
	}

	rest := make([]string, 0, len(normalized))
	for lang := range normalized {
		rest = append(rest, lang)
	}
	sort.Strings(rest)
	for _, lang := range rest {
		return normalized[lang]
	}

	return fallback
}

// ResolveForLanguage looks up targetLang in the map, falling back to en, then
// to the fixed preference order.
func ResolveForLanguage(translations map[string]string, targetLang, fallback string) string {
	normalized := NormalizeTranslations(translations)
	if len(normalized) == 0 {
		return fallback
	}

	target := strings.ToLower(strings.TrimSpace(targetLang))
	if v, ok := normalized[target]; ok {
		return v
	}
	if v, ok := normalized["en"]; ok {
		return v
	}
	return Resolve(translations, fallback)
}

// ResolveDisplayName resolves a display name from either a localization key or
// a raw jsonb blob. A set key delegates to the localizer. Otherwise rawJSON is
// parsed as a language map; any parse or lookup failure degrades to returning
// the raw input unchanged.
func ResolveDisplayName(key, rawJSON, targetLang string, loc Localizer) string {
	if strings.TrimSpace(key) != "" {
		return loc.T(key, targetLang)
	}

	trimmed := strings.TrimSpace(rawJSON)
	if trimmed == "" {
		return rawJSON
	}

	var translations map[string]string
	if err := json.Unmarshal([]byte(trimmed), &translations); err != nil {
		return rawJSON
	}

	return ResolveForLanguage(translations, targetLang, rawJSON)
}

// NormalizeTranslations lowercases language keys and drops blank keys and
// values. Returns nil when nothing usable remains.
func NormalizeTranslations(source map[string]string) map[string]string {
	if len(source) == 0 {
		return nil
	}

	result := make(map[string]string, len(source))
	for lang, value := range source {
		lang = strings.ToLower(strings.TrimSpace(lang))
		value = strings.TrimSpace(value)
		if lang == "" || value == "" {
			continue
		}
		result[lang] = value
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// MergeTranslations overlays resource values onto code defaults: non-blank
// resource entries win, fallback supplies the rest.
func MergeTranslations(resource, fallback map[string]string) map[string]string {
	normalizedResource := NormalizeTranslations(resource)
	normalizedFallback := NormalizeTranslations(fallback)

	if normalizedFallback == nil {
		return normalizedResource
	}
	if normalizedResource == nil {
		return normalizedFallback
	}

	result := make(map[string]string, len(normalizedFallback)+len(normalizedResource))
	for lang, value := range normalizedFallback {
		result[lang] = value
	}
	for lang, value := range normalizedResource {
		result[lang] = value
	}
	return result
}
