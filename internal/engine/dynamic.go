// Package engine owns the registry of loaded entity types. Callers compile
// entity definitions into runtime types here and introspect or instantiate
// them without knowing how generation and loading work.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aethra/basis/internal/errors"
	"github.com/aethra/basis/internal/generator"
	"github.com/aethra/basis/internal/models"
)

// loadedType pairs a runtime type with the module that owns it. The module
// reference keeps the whole compile batch alive until every entry pointing at
// it is replaced or unloaded.
type loadedType struct {
	module      *generator.Module
	runtimeType *generator.RuntimeType
}

// EntityTypeInfo is the introspection view of one loaded type.
type EntityTypeInfo struct {
	FullName   string                   `json:"fullName"`
	IsLoaded   bool                     `json:"isLoaded"`
	Properties []generator.PropertyInfo `json:"properties"`
}

// DynamicEntityService compiles published entity definitions and serves the
// resulting runtime types from an in-process registry.
type DynamicEntityService struct {
	db *gorm.DB

	mu     sync.RWMutex
	loaded map[string]loadedType
}

// NewDynamicEntityService creates the service over the given database.
func NewDynamicEntityService(db *gorm.DB) *DynamicEntityService {
	return &DynamicEntityService{
		db:     db,
		loaded: map[string]loadedType{},
	}
}

// CompileEntity generates and compiles a single-entity batch and registers the
// result under its full type name, replacing any previous version.
func (s *DynamicEntityService) CompileEntity(ctx context.Context, entityID uuid.UUID) (generator.CompilationResult, error) {
	var def models.EntityDefinition
	err := s.db.WithContext(ctx).
		Preload("Fields").
		Preload("Interfaces").
		First(&def, "id = ?", entityID).Error
	if err == gorm.ErrRecordNotFound {
		return generator.CompilationResult{}, errors.NewEntityNotFoundError(fmt.Sprintf("entity definition %s not found", entityID))
	}
	if err != nil {
		return generator.CompilationResult{}, err
	}

	return s.compileBatch(ctx, []models.EntityDefinition{def})
}

// CompileMultipleEntities compiles the published subset of the given ids in
// one batch so cross-entity references resolve within the same module.
// No resolving id is an EntityNotFoundError; resolving but all unpublished is
// a NoValidEntitiesError.
func (s *DynamicEntityService) CompileMultipleEntities(ctx context.Context, entityIDs []uuid.UUID) (generator.CompilationResult, error) {
	var defs []models.EntityDefinition
	if len(entityIDs) > 0 {
		err := s.db.WithContext(ctx).
			Preload("Fields").
			Preload("Interfaces").
			Where("id IN ?", entityIDs).
			Find(&defs).Error
		if err != nil {
			return generator.CompilationResult{}, err
		}
	}
	if len(defs) == 0 {
		return generator.CompilationResult{}, errors.NewEntityNotFoundError("no entities found for the requested ids")
	}

	published := defs[:0]
	for _, def := range defs {
		if def.Status == models.EntityStatusPublished {
			published = append(published, def)
		}
	}
	if len(published) == 0 {
		return generator.CompilationResult{}, errors.NewNoValidEntitiesError()
	}

	return s.compileBatch(ctx, published)
}

// RecompileEntity re-resolves a definition by full type name and compiles it
// again, swapping the registry entry in place.
func (s *DynamicEntityService) RecompileEntity(ctx context.Context, fullTypeName string) (generator.CompilationResult, error) {
	var def models.EntityDefinition
	err := s.db.WithContext(ctx).
		Preload("Fields").
		Preload("Interfaces").
		Where("full_type_name = ?", fullTypeName).
		First(&def).Error
	if err == gorm.ErrRecordNotFound {
		return generator.CompilationResult{}, errors.NewEntityNotFoundError(fmt.Sprintf("entity definition %s not found", fullTypeName))
	}
	if err != nil {
		return generator.CompilationResult{}, err
	}

	return s.compileBatch(ctx, []models.EntityDefinition{def})
}

// GenerateCode renders the generated source of one published definition
// without loading it. Used by the admin surface to preview output.
func (s *DynamicEntityService) GenerateCode(ctx context.Context, entityID uuid.UUID) (string, error) {
	var def models.EntityDefinition
	err := s.db.WithContext(ctx).
		Preload("Fields").
		Preload("Interfaces").
		First(&def, "id = ?", entityID).Error
	if err == gorm.ErrRecordNotFound {
		return "", errors.NewEntityNotFoundError(fmt.Sprintf("entity definition %s not found", entityID))
	}
	if err != nil {
		return "", err
	}

	return generator.GenerateEntityClass(&def)
}

// GetEntityType returns the loaded runtime type, or nil when never compiled.
// Lookup only, never triggers compilation.
func (s *DynamicEntityService) GetEntityType(fullTypeName string) *generator.RuntimeType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.loaded[fullTypeName]; ok {
		return entry.runtimeType
	}
	return nil
}

// GetEntityProperties returns the property descriptors of a loaded type.
func (s *DynamicEntityService) GetEntityProperties(fullTypeName string) ([]generator.PropertyInfo, error) {
	rt := s.GetEntityType(fullTypeName)
	if rt == nil {
		return nil, errors.NewTypeNotLoadedError(fullTypeName)
	}
	props := make([]generator.PropertyInfo, len(rt.Properties))
	copy(props, rt.Properties)
	return props, nil
}

// GetEntityTypeInfo returns the introspection view of a type, or nil when the
// type was never loaded.
func (s *DynamicEntityService) GetEntityTypeInfo(fullTypeName string) *EntityTypeInfo {
	rt := s.GetEntityType(fullTypeName)
	if rt == nil {
		return nil
	}
	return &EntityTypeInfo{
		FullName:   rt.FullName,
		IsLoaded:   true,
		Properties: rt.Properties,
	}
}

// GetLoadedEntities returns the full type names currently registered, sorted.
func (s *DynamicEntityService) GetLoadedEntities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.loaded))
	for name := range s.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnloadEntity removes one type from the registry. Reports whether the type
// was loaded. The owning module is released once no entry references it.
func (s *DynamicEntityService) UnloadEntity(fullTypeName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loaded[fullTypeName]; !ok {
		return false
	}
	delete(s.loaded, fullTypeName)
	return true
}

// ClearAllLoadedEntities drops the whole registry. Used for test isolation and
// global schema reload.
func (s *DynamicEntityService) ClearAllLoadedEntities() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = map[string]loadedType{}
}

func (s *DynamicEntityService) compileBatch(ctx context.Context, defs []models.EntityDefinition) (generator.CompilationResult, error) {
	sources := map[string]string{
		"interfaces.go": generator.GenerateInterfaces(),
	}
	namespaces := map[string]string{}

	for i := range defs {
		def := &defs[i]
		source, err := generator.GenerateEntityClass(def)
		if err != nil {
			return generator.CompilationResult{}, err
		}
		fileName := strings.ToLower(def.EntityName) + ".go"
		sources[fileName] = source
		namespaces[fileName] = def.Namespace
	}

	hint := "dynamic"
	if len(defs) == 1 {
		hint = strings.ToLower(defs[0].EntityName)
	}

	result := generator.CompileMultiple(sources, namespaces, hint)
	if !result.Success {
		slog.Warn("[engine] compilation failed",
			"entities", len(defs),
			"diagnostics", len(result.Diagnostics))
		return result, nil
	}

	s.mu.Lock()
	for i := range defs {
		def := &defs[i]
		rt, ok := result.Module.Types[def.FullTypeName]
		if !ok {
			continue
		}
		s.loaded[def.FullTypeName] = loadedType{module: result.Module, runtimeType: rt}
	}
	s.mu.Unlock()

	slog.Info("[engine] module loaded",
		"module", result.Module.Name,
		"types", len(result.Module.Types))
	return result, nil
}
