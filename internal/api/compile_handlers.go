package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aethra/basis/internal/errors"
)

// =============================================================================
// COMPILATION ENDPOINTS
// =============================================================================

// CompileEntity compiles one entity definition into the type registry
// POST /admin/compile/:id
func (h *Handler) CompileEntity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewValidationError("id", "invalid entity id"))
		return
	}

	result, err := h.entities.CompileEntity(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CompileEntities compiles a batch of entity definitions in one module
// POST /admin/compile
func (h *Handler) CompileEntities(c *gin.Context) {
	var input struct {
		EntityIDs []uuid.UUID `json:"entity_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	result, err := h.entities.CompileMultipleEntities(c.Request.Context(), input.EntityIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RecompileEntity recompiles a loaded type by its full type name
// POST /admin/recompile/:type
func (h *Handler) RecompileEntity(c *gin.Context) {
	result, err := h.entities.RecompileEntity(c.Request.Context(), c.Param("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GenerateCode previews the generated source for an entity without loading it
// GET /admin/compile/:id/source
func (h *Handler) GenerateCode(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewValidationError("id", "invalid entity id"))
		return
	}

	source, err := h.entities.GenerateCode(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": source})
}

// ListLoadedEntities returns the full type names currently loaded
// GET /admin/loaded
func (h *Handler) ListLoadedEntities(c *gin.Context) {
	loaded := h.entities.GetLoadedEntities()
	c.JSON(http.StatusOK, gin.H{"loaded": loaded, "total": len(loaded)})
}

// GetTypeInfo returns introspection data for a loaded type
// GET /admin/loaded/:type
func (h *Handler) GetTypeInfo(c *gin.Context) {
	info := h.entities.GetEntityTypeInfo(c.Param("type"))
	if info == nil {
		respondError(c, errors.NewTypeNotLoadedError(c.Param("type")))
		return
	}
	c.JSON(http.StatusOK, info)
}

// CreateInstance default-constructs an instance of a loaded type
// POST /admin/loaded/:type/instance
func (h *Handler) CreateInstance(c *gin.Context) {
	record, err := h.entities.CreateEntityInstance(c.Param("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// UnloadEntity removes a type from the registry
// DELETE /admin/loaded/:type
func (h *Handler) UnloadEntity(c *gin.Context) {
	if !h.entities.UnloadEntity(c.Param("type")) {
		respondError(c, errors.NewTypeNotLoadedError(c.Param("type")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"unloaded": c.Param("type")})
}

// ClearLoadedEntities drops the whole type registry
// DELETE /admin/loaded
func (h *Handler) ClearLoadedEntities(c *gin.Context) {
	h.entities.ClearAllLoadedEntities()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
