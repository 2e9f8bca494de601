package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aethra/basis/internal/auth"
	"github.com/aethra/basis/internal/errors"
)

// =============================================================================
// FIELD PERMISSION ENDPOINTS
// =============================================================================

// GetFieldPermission returns the caller's effective access to one field
// GET /api/permissions/:type/field/:field
func (h *Handler) GetFieldPermission(c *gin.Context) {
	access, err := h.permissions.GetUserFieldPermission(
		c.Request.Context(), currentUserID(c), c.Param("type"), c.Param("field"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, access)
}

// GetReadableFields returns the caller's readable fields of an entity
// GET /api/permissions/:type/readable
func (h *Handler) GetReadableFields(c *gin.Context) {
	fields, err := h.permissions.GetReadableFields(c.Request.Context(), currentUserID(c), c.Param("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// GetWritableFields returns the caller's writable fields of an entity
// GET /api/permissions/:type/writable
func (h *Handler) GetWritableFields(c *gin.Context) {
	fields, err := h.permissions.GetWritableFields(c.Request.Context(), currentUserID(c), c.Param("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// UpsertFieldPermission creates or updates one permission row
// PUT /admin/permissions
func (h *Handler) UpsertFieldPermission(c *gin.Context) {
	var input struct {
		RoleID     uuid.UUID `json:"role_id" binding:"required"`
		EntityType string    `json:"entity_type" binding:"required"`
		FieldName  string    `json:"field_name" binding:"required"`
		CanRead    bool      `json:"can_read"`
		CanWrite   bool      `json:"can_write"`
		Remarks    string    `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	row, err := h.permissions.UpsertPermission(c.Request.Context(),
		input.RoleID, input.EntityType, input.FieldName,
		input.CanRead, input.CanWrite, input.Remarks, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// BulkUpsertFieldPermissions applies a batch of permission rows for one role
// PUT /admin/permissions/bulk
func (h *Handler) BulkUpsertFieldPermissions(c *gin.Context) {
	var input struct {
		RoleID      uuid.UUID              `json:"role_id" binding:"required"`
		EntityType  string                 `json:"entity_type" binding:"required"`
		Permissions []auth.PermissionInput `json:"permissions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	err := h.permissions.BulkUpsertPermissions(c.Request.Context(),
		input.RoleID, input.EntityType, input.Permissions, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(input.Permissions)})
}

// DeleteFieldPermission removes one permission row by natural key
// DELETE /admin/permissions
func (h *Handler) DeleteFieldPermission(c *gin.Context) {
	var input struct {
		RoleID     uuid.UUID `json:"role_id" binding:"required"`
		EntityType string    `json:"entity_type" binding:"required"`
		FieldName  string    `json:"field_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	err := h.permissions.DeletePermission(c.Request.Context(), input.RoleID, input.EntityType, input.FieldName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
