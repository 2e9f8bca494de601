// Package api contains the HTTP API handlers for Basis
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aethra/basis/internal/auth"
	"github.com/aethra/basis/internal/engine"
	"github.com/aethra/basis/internal/errors"
	"github.com/aethra/basis/internal/i18n"
	"github.com/aethra/basis/internal/menu"
	"github.com/aethra/basis/internal/template"
)

// Handler contains all API handlers
type Handler struct {
	db          *gorm.DB
	entities    *engine.DynamicEntityService
	templates   *template.Service
	permissions *auth.FieldPermissionService
	fieldCache  *i18n.FieldMetadataCache
	localizer   i18n.Localizer
	registrar   *menu.EntityMenuRegistrar
	treeBuilder *menu.FunctionTreeBuilder
	jwt         *auth.JWTService
}

// NewHandler creates a new API handler
func NewHandler(
	db *gorm.DB,
	entities *engine.DynamicEntityService,
	templates *template.Service,
	permissions *auth.FieldPermissionService,
	fieldCache *i18n.FieldMetadataCache,
	localizer i18n.Localizer,
	registrar *menu.EntityMenuRegistrar,
	treeBuilder *menu.FunctionTreeBuilder,
	jwtService *auth.JWTService,
) *Handler {
	return &Handler{
		db:          db,
		entities:    entities,
		templates:   templates,
		permissions: permissions,
		fieldCache:  fieldCache,
		localizer:   localizer,
		registrar:   registrar,
		treeBuilder: treeBuilder,
		jwt:         jwtService,
	}
}

// Health returns service health
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"loaded": len(h.entities.GetLoadedEntities()),
	})
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// UserMiddleware extracts the user from the Authorization header when present
func (h *Handler) UserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		claims, err := h.jwt.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.Next()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_roles", claims.Roles)
		if claims.Lang != "" {
			c.Set("lang", claims.Lang)
		}
		c.Next()
	}
}

// RequireAuthMiddleware rejects requests without an authenticated user
func (h *Handler) RequireAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user_id"); !exists {
			status, body := errors.ToHTTPError(errors.NewUnauthorizedError(""))
			c.JSON(status, body)
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLang resolves the language of a request: query param, then token
// claim, then Accept-Language, then en.
func requestLang(c *gin.Context) string {
	if lang := c.Query("lang"); lang != "" {
		return strings.ToLower(lang)
	}
	if lang, exists := c.Get("lang"); exists {
		return lang.(string)
	}
	if header := c.GetHeader("Accept-Language"); header != "" {
		primary := strings.SplitN(header, ",", 2)[0]
		primary = strings.SplitN(primary, "-", 2)[0]
		if primary != "" {
			return strings.ToLower(strings.TrimSpace(primary))
		}
	}
	return "en"
}

// currentUserID returns the authenticated user id or empty
func currentUserID(c *gin.Context) string {
	if id, exists := c.Get("user_id"); exists {
		return id.(string)
	}
	return ""
}

// respondError writes a typed error as JSON
func respondError(c *gin.Context, err error) {
	status, body := errors.ToHTTPError(err)
	c.JSON(status, body)
}
