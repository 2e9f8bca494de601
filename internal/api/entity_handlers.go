package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aethra/basis/internal/errors"
	"github.com/aethra/basis/internal/models"
)

// =============================================================================
// ENTITY DEFINITION ENDPOINTS
// =============================================================================

// ListEntities returns all entity definitions
// GET /admin/entities
func (h *Handler) ListEntities(c *gin.Context) {
	var entities []models.EntityDefinition
	query := h.db.WithContext(c.Request.Context())
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Order("namespace, entity_name").Find(&entities).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entities": entities, "total": len(entities)})
}

// GetEntity returns one entity definition with fields and interfaces
// GET /admin/entities/:id
func (h *Handler) GetEntity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewValidationError("id", "invalid entity id"))
		return
	}

	var entity models.EntityDefinition
	err = h.db.WithContext(c.Request.Context()).
		Preload("Fields").
		Preload("Interfaces").
		First(&entity, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		respondError(c, errors.NewEntityNotFoundError("entity definition not found"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

// CreateEntity creates an entity definition with its fields and interfaces
// POST /admin/entities
func (h *Handler) CreateEntity(c *gin.Context) {
	var entity models.EntityDefinition
	if err := c.ShouldBindJSON(&entity); err != nil {
		respondError(c, errors.NewValidationError("body", err.Error()))
		return
	}
	if entity.Namespace == "" || entity.EntityName == "" {
		respondError(c, errors.NewValidationError("entity_name", "namespace and entity_name are required"))
		return
	}
	if entity.Status == "" {
		entity.Status = models.EntityStatusDraft
	}

	for _, iface := range entity.EnabledInterfaces() {
		models.ApplyInterfaceFields(&entity, iface)
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&entity).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entity)
}

// UpdateEntity updates mutable definition attributes
// PUT /admin/entities/:id
func (h *Handler) UpdateEntity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewValidationError("id", "invalid entity id"))
		return
	}

	var entity models.EntityDefinition
	err = h.db.WithContext(c.Request.Context()).First(&entity, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		respondError(c, errors.NewEntityNotFoundError("entity definition not found"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	var input struct {
		EntityRoute *string       `json:"entity_route"`
		Status      *string       `json:"status"`
		Category    *string       `json:"category"`
		DisplayName *models.JSONB `json:"display_name"`
		Description *models.JSONB `json:"description"`
		Icon        *string       `json:"icon"`
		SortOrder   *int          `json:"sort_order"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	if input.EntityRoute != nil {
		entity.EntityRoute = *input.EntityRoute
	}
	if input.Status != nil {
		entity.Status = *input.Status
	}
	if input.Category != nil {
		entity.Category = *input.Category
	}
	if input.DisplayName != nil {
		entity.DisplayName = *input.DisplayName
	}
	if input.Description != nil {
		entity.Description = *input.Description
	}
	if input.Icon != nil {
		entity.Icon = *input.Icon
	}
	if input.SortOrder != nil {
		entity.SortOrder = *input.SortOrder
	}

	if err := h.db.WithContext(c.Request.Context()).Save(&entity).Error; err != nil {
		respondError(c, err)
		return
	}

	h.fieldCache.Invalidate(entity.FullTypeName)
	c.JSON(http.StatusOK, entity)
}

// DeleteEntity removes a definition and everything it owns
// DELETE /admin/entities/:id
func (h *Handler) DeleteEntity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewValidationError("id", "invalid entity id"))
		return
	}

	var entity models.EntityDefinition
	err = h.db.WithContext(c.Request.Context()).First(&entity, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		respondError(c, errors.NewEntityNotFoundError("entity definition not found"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Select("Fields", "Interfaces").Delete(&entity).Error; err != nil {
		respondError(c, err)
		return
	}

	h.entities.UnloadEntity(entity.FullTypeName)
	h.fieldCache.Invalidate(entity.FullTypeName)
	c.JSON(http.StatusOK, gin.H{"deleted": entity.FullTypeName})
}

// SetEntityInterfaces enables or disables a capability interface, syncing the
// contributed fields
// POST /admin/entities/:id/interfaces
func (h *Handler) SetEntityInterfaces(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewValidationError("id", "invalid entity id"))
		return
	}

	var input struct {
		InterfaceType string `json:"interface_type" binding:"required"`
		Enabled       bool   `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errors.NewValidationError("body", err.Error()))
		return
	}
	if models.MarkerInterfaceName(input.InterfaceType) == "" {
		respondError(c, errors.NewValidationError("interface_type", "unknown interface type"))
		return
	}

	var entity models.EntityDefinition
	err = h.db.WithContext(c.Request.Context()).
		Preload("Fields").
		Preload("Interfaces").
		First(&entity, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		respondError(c, errors.NewEntityNotFoundError("entity definition not found"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var iface models.EntityInterface
		err := tx.Where("entity_definition_id = ? AND interface_type = ?", entity.ID, input.InterfaceType).
			First(&iface).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			iface = models.EntityInterface{
				EntityDefinitionID: entity.ID,
				InterfaceType:      input.InterfaceType,
				IsEnabled:          input.Enabled,
			}
			if err := tx.Create(&iface).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			iface.IsEnabled = input.Enabled
			if err := tx.Save(&iface).Error; err != nil {
				return err
			}
		}

		if input.Enabled {
			for _, field := range models.ApplyInterfaceFields(&entity, input.InterfaceType) {
				if err := tx.Create(&field).Error; err != nil {
					return err
				}
			}
			return nil
		}

		removed := models.RemoveInterfaceFields(&entity, input.InterfaceType)
		if len(removed) == 0 {
			return nil
		}
		return tx.Where("entity_definition_id = ? AND source = ? AND interface_type = ?",
			entity.ID, models.FieldSourceInterface, input.InterfaceType).
			Delete(&models.FieldMetadata{}).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.fieldCache.Invalidate(entity.FullTypeName)
	c.JSON(http.StatusOK, gin.H{"entity": entity.FullTypeName, "interface": input.InterfaceType, "enabled": input.Enabled})
}

// GetEntityFields returns resolved field metadata for a type
// GET /api/entities/:type/fields
func (h *Handler) GetEntityFields(c *gin.Context) {
	fullTypeName := c.Param("type")
	lang := c.Query("lang")

	fields, err := h.fieldCache.GetFields(c.Request.Context(), fullTypeName, h.localizer, lang)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": fullTypeName, "fields": fields})
}
