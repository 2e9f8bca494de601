package i18n

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/aethra/basis/internal/models"
)

// Localizer resolves localization keys to display text. GetCacheVersion is
// monotonic and bumps on any resource change so derived caches can tell when
// their projections are stale.
type Localizer interface {
	T(key, lang string) string
	GetDictionary(lang string) map[string]string
	InvalidateCache()
	GetCacheVersion() int64
}

const dictionaryCachePrefix = "i18n:dict:"

// DBLocalizer is a Localizer backed by the localization resource table.
type DBLocalizer struct {
	db      *gorm.DB
	cache   *gocache.Cache
	version atomic.Int64
}

// NewDBLocalizer creates a localizer over the given database.
func NewDBLocalizer(db *gorm.DB) *DBLocalizer {
	l := &DBLocalizer{
		db:    db,
		cache: gocache.New(30*time.Minute, 10*time.Minute),
	}
	l.version.Store(1)
	return l
}

// T resolves a key for one language. Missing keys echo back unchanged so a
// broken resource never blanks out the UI.
func (l *DBLocalizer) T(key, lang string) string {
	if key == "" {
		return ""
	}

	dict := l.GetDictionary(lang)
	if v, ok := dict[key]; ok && v != "" {
		return v
	}

	if lang != "en" {
		if v, ok := l.GetDictionary("en")[key]; ok && v != "" {
			return v
		}
	}

	return key
}

// GetDictionary returns the full key → text map for one language.
func (l *DBLocalizer) GetDictionary(lang string) map[string]string {
	cacheKey := dictionaryCacheKey(lang, l.version.Load())
	if cached, ok := l.cache.Get(cacheKey); ok {
		return cached.(map[string]string)
	}

	dict := l.loadDictionary(lang)
	l.cache.Set(cacheKey, dict, gocache.DefaultExpiration)
	return dict
}

// InvalidateCache drops every cached dictionary and bumps the version.
func (l *DBLocalizer) InvalidateCache() {
	l.version.Add(1)
	l.cache.Flush()
}

// GetCacheVersion returns the current resource version.
func (l *DBLocalizer) GetCacheVersion() int64 {
	return l.version.Load()
}

// UpsertResource writes one localization resource and invalidates readers.
func (l *DBLocalizer) UpsertResource(ctx context.Context, key string, translations map[string]string) error {
	var resource models.LocalizationResource
	err := l.db.WithContext(ctx).Where("key = ?", key).First(&resource).Error
	switch {
	case err == nil:
		resource.Translations = models.JSONBFromStrings(MergeTranslations(translations, resource.Translations.Strings()))
		err = l.db.WithContext(ctx).Save(&resource).Error
	case err == gorm.ErrRecordNotFound:
		resource = models.LocalizationResource{
			Key:          key,
			Translations: models.JSONBFromStrings(NormalizeTranslations(translations)),
		}
		err = l.db.WithContext(ctx).Create(&resource).Error
	}
	if err != nil {
		return err
	}

	l.InvalidateCache()
	return nil
}

func (l *DBLocalizer) loadDictionary(lang string) map[string]string {
	var resources []models.LocalizationResource
	if err := l.db.Find(&resources).Error; err != nil {
		slog.Warn("[i18n] failed to load localization resources", "error", err)
		return map[string]string{}
	}

	dict := make(map[string]string, len(resources))
	for _, resource := range resources {
		translations := NormalizeTranslations(resource.Translations.Strings())
		if v := ResolveForLanguage(translations, lang, ""); v != "" {
			dict[resource.Key] = v
		}
	}
	return dict
}

func dictionaryCacheKey(lang string, version int64) string {
	return dictionaryCachePrefix + lang + ":" + strconv.FormatInt(version, 10)
}
