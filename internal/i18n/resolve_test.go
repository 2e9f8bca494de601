package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticLocalizer struct {
	dict    map[string]string
	version int64
}

func (l *staticLocalizer) T(key, lang string) string {
	if v, ok := l.dict[key]; ok {
		return v
	}
	return key
}

func (l *staticLocalizer) GetDictionary(lang string) map[string]string { return l.dict }

func (l *staticLocalizer) InvalidateCache() { l.version++ }

func (l *staticLocalizer) GetCacheVersion() int64 { return l.version }

func TestResolvePreferenceOrder(t *testing.T) {
	assert.Equal(t, "日本語", Resolve(map[string]string{"en": "English", "ja": "日本語", "zh": "中文"}, ""))
	assert.Equal(t, "English", Resolve(map[string]string{"en": "English", "zh": "中文"}, ""))
	assert.Equal(t, "中文", Resolve(map[string]string{"zh": "中文"}, ""))
}

func TestResolveFallsBackToAnySortedKey(t *testing.T) {
	assert.Equal(t, "Deutsch", Resolve(map[string]string{"fr": "Français", "de": "Deutsch"}, ""))
}

func TestResolveCaseInsensitiveKeys(t *testing.T) {
	assert.Equal(t, "日本語", Resolve(map[string]string{"JA": "日本語", "EN": "English"}, ""))
}

func TestResolveBlankValuesSkipped(t *testing.T) {
	assert.Equal(t, "English", Resolve(map[string]string{"ja": "   ", "en": "English"}, ""))
	assert.Equal(t, "fallback", Resolve(map[string]string{"ja": "", "en": "  "}, "fallback"))
	assert.Equal(t, "fallback", Resolve(nil, "fallback"))
	assert.Equal(t, "fallback", Resolve(map[string]string{}, "fallback"))
}

func TestResolveForLanguage(t *testing.T) {
	m := map[string]string{"ja": "日本語", "en": "English", "de": "Deutsch"}
	assert.Equal(t, "Deutsch", ResolveForLanguage(m, "de", ""))
	assert.Equal(t, "English", ResolveForLanguage(m, "fr", ""))
	assert.Equal(t, "日本語", ResolveForLanguage(map[string]string{"ja": "日本語"}, "fr", ""))
}

func TestResolveDisplayNameWithKey(t *testing.T) {
	loc := &staticLocalizer{dict: map[string]string{"field.revenue": "Revenue"}}

	assert.Equal(t, "Revenue", ResolveDisplayName("field.revenue", "", "en", loc))
	assert.Equal(t, "missing.key", ResolveDisplayName("missing.key", "", "en", loc))
}

func TestResolveDisplayNameWithRawJSON(t *testing.T) {
	loc := &staticLocalizer{}

	assert.Equal(t, "売上", ResolveDisplayName("", `{"ja":"売上","en":"Revenue"}`, "ja", loc))
	assert.Equal(t, "Revenue", ResolveDisplayName("", `{"ja":"売上","en":"Revenue"}`, "fr", loc))
}

func TestResolveDisplayNameDegradesToRawInput(t *testing.T) {
	loc := &staticLocalizer{}

	assert.Equal(t, "plain text", ResolveDisplayName("", "plain text", "en", loc))
	assert.Equal(t, "{broken", ResolveDisplayName("", "{broken", "en", loc))
	assert.Equal(t, "", ResolveDisplayName("", "", "en", loc))
}

func TestNormalizeTranslations(t *testing.T) {
	normalized := NormalizeTranslations(map[string]string{"EN": " English ", "ja": "", " ": "x"})
	assert.Equal(t, map[string]string{"en": "English"}, normalized)
	assert.Nil(t, NormalizeTranslations(map[string]string{"en": "  "}))
	assert.Nil(t, NormalizeTranslations(nil))
}

func TestMergeTranslationsResourceWins(t *testing.T) {
	merged := MergeTranslations(
		map[string]string{"en": "From resource"},
		map[string]string{"en": "Default", "ja": "デフォルト"},
	)
	assert.Equal(t, map[string]string{"en": "From resource", "ja": "デフォルト"}, merged)
}
