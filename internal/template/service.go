package template

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/aethra/basis/internal/models"
)

// EnsureResult reports which templates exist after an EnsureTemplates call and
// which of them were created by it.
type EnsureResult struct {
	Templates map[string]*models.FormTemplate `json:"templates"`
	Created   []string                        `json:"created"`
}

// Service owns the system default templates of every entity.
type Service struct {
	db *gorm.DB
}

// NewService creates the template service over the given database.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// EnsureTemplates generates the detail, edit and list defaults for an entity
// in one call. An existing template for a usage keeps its id and is updated in
// place when the regenerated layout differs, so field additions and removals
// propagate without duplicating rows. force rewrites the layout even when it
// matches.
func (s *Service) EnsureTemplates(ctx context.Context, entity *models.EntityDefinition, updatedBy string, force bool) (*EnsureResult, error) {
	result := &EnsureResult{Templates: map[string]*models.FormTemplate{}}

	for _, usage := range []string{models.UsageDetail, models.UsageEdit, models.UsageList} {
		generated := Generate(entity, usage)

		var existing models.FormTemplate
		err := s.db.WithContext(ctx).
			Where("entity_type = ? AND usage_type = ? AND is_system_default = ?", entity.FullTypeName, usage, true).
			First(&existing).Error

		switch {
		case err == gorm.ErrRecordNotFound:
			if err := s.db.WithContext(ctx).Create(generated).Error; err != nil {
				return nil, err
			}
			result.Templates[usage] = generated
			result.Created = append(result.Created, usage)

		case err != nil:
			return nil, err

		default:
			if force || layoutChanged(existing.LayoutJSON, generated.LayoutJSON) {
				existing.LayoutJSON = generated.LayoutJSON
				existing.Name = generated.Name
				if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
					return nil, err
				}
				slog.Info("[template] default template refreshed",
					"entity", entity.FullTypeName,
					"usage", usage,
					"updatedBy", updatedBy)
			}
			result.Templates[usage] = &existing
		}
	}

	return result, nil
}

// GetDefaultTemplate returns the existing system default for (entity, usage),
// generating and persisting exactly one when none exists.
func (s *Service) GetDefaultTemplate(ctx context.Context, entity *models.EntityDefinition, usage, requestedBy string) (*models.FormTemplate, error) {
	var existing models.FormTemplate
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND usage_type = ? AND is_system_default = ?", entity.FullTypeName, usage, true).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	generated := Generate(entity, usage)
	if err := s.db.WithContext(ctx).Create(generated).Error; err != nil {
		return nil, err
	}
	slog.Info("[template] default template generated",
		"entity", entity.FullTypeName,
		"usage", usage,
		"requestedBy", requestedBy)
	return generated, nil
}

// layoutChanged compares the field sets and widget shapes of two layouts.
// Encoding differences that do not change the rendered document are ignored.
func layoutChanged(current, regenerated string) bool {
	a := ParseLayout(current)
	b := ParseLayout(regenerated)

	if a.Mode != b.Mode || len(a.Items) != len(b.Items) {
		return true
	}
	for name, wa := range a.Items {
		wb, ok := b.Items[name]
		if !ok {
			return true
		}
		if wa.Type != wb.Type || wa.DataField != wb.DataField || wa.NewLine != wb.NewLine {
			return true
		}
	}
	return false
}
