package i18n

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/aethra/basis/internal/models"
)

const (
	fieldCachePrefix    = "fieldmeta:"
	fieldCacheKeyPrefix = "fieldmeta:keys:"
)

// FieldMetadataDTO is the resolved view of one field. In multilingual mode
// DisplayNameTranslations carries the full map; in single-language mode
// DisplayName carries the resolved text.
type FieldMetadataDTO struct {
	PropertyName            string            `json:"propertyName"`
	DataType                string            `json:"dataType"`
	IsRequired              bool              `json:"isRequired"`
	SortOrder               int               `json:"sortOrder"`
	Source                  string            `json:"source"`
	DisplayName             string            `json:"displayName,omitempty"`
	DisplayNameKey          string            `json:"displayNameKey,omitempty"`
	DisplayNameTranslations map[string]string `json:"displayNameTranslations,omitempty"`
	Length                  *int              `json:"length,omitempty"`
	IsEntityRef             bool              `json:"isEntityRef"`
	ReferencedEntityID      *uuid.UUID        `json:"referencedEntityId,omitempty"`
	IsPrimaryKey            bool              `json:"isPrimaryKey"`
}

// keySet tracks every cache key derived from one full type name so that
// Invalidate can evict the multilingual entry and all per-language
// projections atomically. Access is guarded by FieldMetadataCache.mu.
type keySet struct {
	keys map[string]struct{}
}

func (s *keySet) add(key string) {
	s.keys[key] = struct{}{}
}

func (s *keySet) drain() []string {
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	s.keys = map[string]struct{}{}
	return keys
}

// FieldMetadataCache caches resolved field metadata per full type name, with
// derived per-language projections keyed by (type, lang, localizer version).
type FieldMetadataCache struct {
	db    *gorm.DB
	cache *gocache.Cache

	// mu serializes key-set lookup-and-create against eviction, so two
	// concurrent first fetches cannot overwrite each other's key set.
	mu sync.Mutex
}

// NewFieldMetadataCache creates the cache over the given database.
func NewFieldMetadataCache(db *gorm.DB) *FieldMetadataCache {
	return &FieldMetadataCache{
		db:    db,
		cache: gocache.New(30*time.Minute, 10*time.Minute),
	}
}

// GetFields returns the field metadata for a type. An empty lang returns the
// multilingual form; a concrete lang returns a projection where keys are
// resolved through the localizer and inline maps through the fixed fallback.
func (c *FieldMetadataCache) GetFields(
	ctx context.Context,
	fullTypeName string,
	loc Localizer,
	lang string,
) ([]FieldMetadataDTO, error) {
	fullTypeName = strings.TrimSpace(fullTypeName)
	if fullTypeName == "" {
		return nil, nil
	}
	lang = strings.ToLower(strings.TrimSpace(lang))

	cacheKey := c.buildCacheKey(fullTypeName, lang, loc)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]FieldMetadataDTO), nil
	}

	fields, err := c.loadFields(ctx, fullTypeName, loc, lang)
	if err != nil {
		return nil, err
	}

	c.trackKey(fullTypeName, cacheKey)
	c.cache.Set(cacheKey, fields, gocache.DefaultExpiration)
	return fields, nil
}

// Invalidate evicts the multilingual entry and every derived per-language
// entry for a type. Unknown types are a no-op.
func (c *FieldMetadataCache) Invalidate(fullTypeName string) {
	fullTypeName = strings.TrimSpace(fullTypeName)
	if fullTypeName == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	setKey := fieldCacheKeyPrefix + fullTypeName
	if cached, ok := c.cache.Get(setKey); ok {
		for _, key := range cached.(*keySet).drain() {
			c.cache.Delete(key)
		}
	}
	c.cache.Delete(setKey)
	c.cache.Delete(fieldCachePrefix + fullTypeName)
}

// EntryCount reports the number of live cache entries, key sets included.
func (c *FieldMetadataCache) EntryCount() int {
	return c.cache.ItemCount()
}

func (c *FieldMetadataCache) buildCacheKey(fullTypeName, lang string, loc Localizer) string {
	if lang == "" {
		return fieldCachePrefix + fullTypeName
	}
	return fieldCachePrefix + fullTypeName + ":" + lang + ":" + strconv.FormatInt(loc.GetCacheVersion(), 10)
}

func (c *FieldMetadataCache) trackKey(fullTypeName, cacheKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	setKey := fieldCacheKeyPrefix + fullTypeName
	cached, ok := c.cache.Get(setKey)
	if !ok {
		cached = &keySet{keys: map[string]struct{}{}}
		c.cache.Set(setKey, cached, gocache.DefaultExpiration)
	}
	cached.(*keySet).add(cacheKey)
}

func (c *FieldMetadataCache) loadFields(
	ctx context.Context,
	fullTypeName string,
	loc Localizer,
	lang string,
) ([]FieldMetadataDTO, error) {
	var definition models.EntityDefinition
	err := c.db.WithContext(ctx).
		Preload("Fields").
		Where("full_type_name = ?", fullTypeName).
		First(&definition).Error
	if err == gorm.ErrRecordNotFound {
		slog.Warn("[fieldcache] entity definition not found", "fullTypeName", fullTypeName)
		return []FieldMetadataDTO{}, nil
	}
	if err != nil {
		return nil, err
	}

	fields := definition.ActiveFields()
	result := make([]FieldMetadataDTO, 0, len(fields))
	for _, f := range fields {
		dto := FieldMetadataDTO{
			PropertyName:       f.PropertyName,
			DataType:           f.DataType,
			IsRequired:         f.IsRequired,
			SortOrder:          f.SortOrder,
			Source:             f.Source,
			DisplayNameKey:     f.DisplayNameKey,
			Length:             f.Length,
			IsEntityRef:        f.IsEntityRef,
			ReferencedEntityID: f.ReferencedEntityID,
			IsPrimaryKey:       f.IsPrimaryKey,
		}

		if lang == "" {
			dto.DisplayNameTranslations = NormalizeTranslations(f.DisplayName.Strings())
		} else {
			dto.DisplayName = resolveFieldDisplayName(f, lang, loc)
		}

		result = append(result, dto)
	}
	return result, nil
}

func resolveFieldDisplayName(f models.FieldMetadata, lang string, loc Localizer) string {
	if f.DisplayNameKey != "" {
		return loc.T(f.DisplayNameKey, lang)
	}
	if len(f.DisplayName) > 0 {
		raw, _ := json.Marshal(f.DisplayName.Strings())
		return ResolveDisplayName("", string(raw), lang, loc)
	}
	return f.PropertyName
}
