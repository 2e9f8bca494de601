package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aethra/basis/internal/errors"
	"github.com/aethra/basis/internal/models"
)

// =============================================================================
// MENU / LOCALIZATION ENDPOINTS
// =============================================================================

// RegisterEntityMenu wires a published entity into the function tree
// POST /admin/menu/register/:type
func (h *Handler) RegisterEntityMenu(c *gin.Context) {
	var entity models.EntityDefinition
	err := h.db.WithContext(c.Request.Context()).
		Where("full_type_name = ?", c.Param("type")).
		First(&entity).Error
	if err == gorm.ErrRecordNotFound {
		respondError(c, errors.NewEntityNotFoundError("entity definition not found"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if entity.Status != models.EntityStatusPublished {
		respondError(c, errors.NewValidationError("status", "only published entities can be registered"))
		return
	}

	result, err := h.registrar.RegisterEntity(c.Request.Context(), &entity, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetMenuTree returns the caller's visible menu tree
// GET /api/menu
func (h *Handler) GetMenuTree(c *gin.Context) {
	roleIDs, err := h.callerRoleIDs(c)
	if err != nil {
		respondError(c, err)
		return
	}

	tree, err := h.treeBuilder.BuildTree(c.Request.Context(), roleIDs, requestLang(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu": tree})
}

func (h *Handler) callerRoleIDs(c *gin.Context) ([]uuid.UUID, error) {
	var assignments []models.RoleAssignment
	err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", currentUserID(c)).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]struct{}{}
	var roleIDs []uuid.UUID
	for _, a := range assignments {
		if _, dup := seen[a.RoleID]; dup {
			continue
		}
		seen[a.RoleID] = struct{}{}
		roleIDs = append(roleIDs, a.RoleID)
	}
	return roleIDs, nil
}

// GetDictionary returns the localization dictionary for a language
// GET /api/i18n/:lang
func (h *Handler) GetDictionary(c *gin.Context) {
	lang := c.Param("lang")
	c.JSON(http.StatusOK, gin.H{
		"lang":       lang,
		"dictionary": h.localizer.GetDictionary(lang),
		"version":    h.localizer.GetCacheVersion(),
	})
}

// UpsertLocalizationResource writes one translation key
// PUT /admin/i18n
func (h *Handler) UpsertLocalizationResource(c *gin.Context) {
	var input struct {
		Key          string            `json:"key" binding:"required"`
		Translations map[string]string `json:"translations" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	upserter, ok := h.localizer.(interface {
		UpsertResource(ctx context.Context, key string, translations map[string]string) error
	})
	if !ok {
		respondError(c, errors.NewInternalError(nil))
		return
	}
	if err := upserter.UpsertResource(c.Request.Context(), input.Key, input.Translations); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": input.Key, "version": h.localizer.GetCacheVersion()})
}
