package template

import (
	"context"

	"github.com/aethra/basis/internal/models"
)

// viewStateFor maps a usage type to the conventional view state consulted when
// no explicit usage binding exists.
func viewStateFor(usageType string) string {
	switch usageType {
	case models.UsageDetail:
		return "DetailView"
	case models.UsageEdit:
		return "EditView"
	case models.UsageList:
		return "ListView"
	case models.UsageCombined:
		return "CombinedView"
	default:
		return ""
	}
}

// ResolvedBinding is the outcome of a binding resolution: the binding row that
// won plus its template. FromStateBinding reports which table it came from.
type ResolvedBinding struct {
	Binding          *models.TemplateBinding
	StateBinding     *models.TemplateStateBinding
	Template         *models.FormTemplate
	FromStateBinding bool
}

// ResolveBinding returns the template that should render (entityType, usage),
// or nil when nothing applies and the caller should synthesize a default.
// Explicit usage bindings are consulted first, system rows before user rows,
// most recently updated first within a class. A candidate whose template
// layout has no items is skipped so a generated-but-unused template never
// shadows a real one. When no usage binding wins, state bindings for the
// conventional view state are consulted the same way, IsDefault rows first.
func (s *Service) ResolveBinding(ctx context.Context, entityType, usageType string) (*ResolvedBinding, error) {
	var bindings []models.TemplateBinding
	err := s.db.WithContext(ctx).
		Preload("Template").
		Where("entity_type = ? AND usage_type = ?", entityType, usageType).
		Order("is_system DESC, updated_at DESC").
		Find(&bindings).Error
	if err != nil {
		return nil, err
	}

	for i := range bindings {
		b := &bindings[i]
		if b.Template == nil || IsEmptyLayout(b.Template.LayoutJSON) {
			continue
		}
		return &ResolvedBinding{Binding: b, Template: b.Template}, nil
	}

	viewState := viewStateFor(usageType)
	if viewState == "" {
		return nil, nil
	}

	var stateBindings []models.TemplateStateBinding
	err = s.db.WithContext(ctx).
		Preload("Template").
		Where("entity_type = ? AND view_state = ?", entityType, viewState).
		Order("is_default DESC, is_system DESC, updated_at DESC").
		Find(&stateBindings).Error
	if err != nil {
		return nil, err
	}

	for i := range stateBindings {
		b := &stateBindings[i]
		if b.Template == nil || IsEmptyLayout(b.Template.LayoutJSON) {
			continue
		}
		return &ResolvedBinding{StateBinding: b, Template: b.Template, FromStateBinding: true}, nil
	}

	return nil, nil
}
