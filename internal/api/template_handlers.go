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
// TEMPLATE ENDPOINTS
// =============================================================================

func (h *Handler) loadEntityByType(c *gin.Context, fullTypeName string) (*models.EntityDefinition, bool) {
	var entity models.EntityDefinition
	err := h.db.WithContext(c.Request.Context()).
		Preload("Fields").
		Preload("Interfaces").
		Where("full_type_name = ?", fullTypeName).
		First(&entity).Error
	if err == gorm.ErrRecordNotFound {
		respondError(c, errors.NewEntityNotFoundError("entity definition not found"))
		return nil, false
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return &entity, true
}

// EnsureTemplates generates or refreshes the default templates of an entity
// POST /admin/templates/:type/ensure
func (h *Handler) EnsureTemplates(c *gin.Context) {
	entity, ok := h.loadEntityByType(c, c.Param("type"))
	if !ok {
		return
	}

	force := c.Query("force") == "true"
	result, err := h.templates.EnsureTemplates(c.Request.Context(), entity, currentUserID(c), force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetDefaultTemplate returns the default template for an entity and usage,
// generating it when missing
// GET /api/templates/:type/:usage
func (h *Handler) GetDefaultTemplate(c *gin.Context) {
	usage := c.Param("usage")
	switch usage {
	case models.UsageDetail, models.UsageEdit, models.UsageList, models.UsageCombined:
	default:
		respondError(c, errors.NewValidationError("usage", "unknown usage type"))
		return
	}

	entity, ok := h.loadEntityByType(c, c.Param("type"))
	if !ok {
		return
	}

	tpl, err := h.templates.GetDefaultTemplate(c.Request.Context(), entity, usage, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// ResolveBinding returns the template that should render an entity and usage
// GET /api/templates/:type/:usage/binding
func (h *Handler) ResolveBinding(c *gin.Context) {
	resolved, err := h.templates.ResolveBinding(c.Request.Context(), c.Param("type"), c.Param("usage"))
	if err != nil {
		respondError(c, err)
		return
	}
	if resolved == nil {
		c.JSON(http.StatusOK, gin.H{"resolved": false})
		return
	}

	body := gin.H{
		"resolved":         true,
		"template":         resolved.Template,
		"fromStateBinding": resolved.FromStateBinding,
	}
	if resolved.Binding != nil {
		body["binding"] = resolved.Binding
	}
	if resolved.StateBinding != nil {
		body["stateBinding"] = resolved.StateBinding
	}
	c.JSON(http.StatusOK, body)
}

// CreateBinding points (entity, usage) at a template
// POST /admin/bindings
func (h *Handler) CreateBinding(c *gin.Context) {
	var input struct {
		EntityType string    `json:"entity_type" binding:"required"`
		UsageType  string    `json:"usage_type" binding:"required"`
		TemplateID uuid.UUID `json:"template_id" binding:"required"`
		IsSystem   bool      `json:"is_system"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	binding := models.TemplateBinding{
		EntityType: input.EntityType,
		UsageType:  input.UsageType,
		TemplateID: input.TemplateID,
		IsSystem:   input.IsSystem,
		UpdatedBy:  currentUserID(c),
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&binding).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, binding)
}

// ListTemplates returns the templates of one entity type
// GET /admin/templates/:type
func (h *Handler) ListTemplates(c *gin.Context) {
	var templates []models.FormTemplate
	err := h.db.WithContext(c.Request.Context()).
		Where("entity_type = ?", c.Param("type")).
		Order("usage_type").
		Find(&templates).Error
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates, "total": len(templates)})
}
