// Package api - Router setup
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aethra/basis/internal/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(handler *Handler, cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// CORS configuration - when credentials are used, specific origins must be
	// provided (not *)
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "Accept-Language"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsConfig))

	// Health check (no auth required)
	r.GET("/api/health", handler.Health)

	// ==========================================================================
	// PUBLIC API - read surface for authenticated clients
	// ==========================================================================
	api := r.Group("/api")
	api.Use(handler.UserMiddleware())
	{
		api.POST("/auth/login", handler.Login)
		api.POST("/auth/refresh", handler.RefreshToken)
		api.GET("/i18n/:lang", handler.GetDictionary)

		authed := api.Group("")
		authed.Use(handler.RequireAuthMiddleware())
		{
			authed.GET("/menu", handler.GetMenuTree)
			authed.GET("/entities/:type/fields", handler.GetEntityFields)
			authed.GET("/templates/:type/:usage", handler.GetDefaultTemplate)
			authed.GET("/templates/:type/:usage/binding", handler.ResolveBinding)
			authed.GET("/permissions/:type/readable", handler.GetReadableFields)
			authed.GET("/permissions/:type/writable", handler.GetWritableFields)
			authed.GET("/permissions/:type/field/:field", handler.GetFieldPermission)
		}
	}

	// ==========================================================================
	// ADMIN API - metadata, compilation, templates, permissions, menu
	// ==========================================================================
	admin := r.Group("/admin")
	admin.Use(handler.UserMiddleware())
	admin.Use(handler.RequireAuthMiddleware())
	{
		// Entity definition management
		admin.GET("/entities", handler.ListEntities)
		admin.POST("/entities", handler.CreateEntity)
		admin.GET("/entities/:id", handler.GetEntity)
		admin.PUT("/entities/:id", handler.UpdateEntity)
		admin.DELETE("/entities/:id", handler.DeleteEntity)
		admin.POST("/entities/:id/interfaces", handler.SetEntityInterfaces)

		// Compilation and type registry
		admin.POST("/compile", handler.CompileEntities)
		admin.POST("/compile/:id", handler.CompileEntity)
		admin.GET("/compile/:id/source", handler.GenerateCode)
		admin.POST("/recompile/:type", handler.RecompileEntity)
		admin.GET("/loaded", handler.ListLoadedEntities)
		admin.DELETE("/loaded", handler.ClearLoadedEntities)
		admin.GET("/loaded/:type", handler.GetTypeInfo)
		admin.POST("/loaded/:type/instance", handler.CreateInstance)
		admin.DELETE("/loaded/:type", handler.UnloadEntity)

		// Templates and bindings
		admin.GET("/templates/:type", handler.ListTemplates)
		admin.POST("/templates/:type/ensure", handler.EnsureTemplates)
		admin.POST("/bindings", handler.CreateBinding)

		// Field permissions
		admin.PUT("/permissions", handler.UpsertFieldPermission)
		admin.PUT("/permissions/bulk", handler.BulkUpsertFieldPermissions)
		admin.DELETE("/permissions", handler.DeleteFieldPermission)

		// Menu and localization
		admin.POST("/menu/register/:type", handler.RegisterEntityMenu)
		admin.PUT("/i18n", handler.UpsertLocalizationResource)
	}

	return r
}
