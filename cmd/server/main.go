// Basis - dynamic entity core for a multi-tenant business platform
package main

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aethra/basis/internal/api"
	"github.com/aethra/basis/internal/auth"
	"github.com/aethra/basis/internal/config"
	"github.com/aethra/basis/internal/database"
	"github.com/aethra/basis/internal/engine"
	"github.com/aethra/basis/internal/i18n"
	"github.com/aethra/basis/internal/menu"
	"github.com/aethra/basis/internal/template"
)

var Version = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		runCLI()
		return
	}
	startServer()
}

func startServer() {
	fmt.Printf("Basis %s - Starting...\n", Version)

	db := connectDB()
	log.Println("Database connected")

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations complete")

	configService := config.NewConfigService(db)
	if err := configService.SetupDefaultConfig(); err != nil {
		log.Fatalf("Config setup failed: %v", err)
	}
	cfg := configService.LoadConfig()

	localizer := i18n.NewDBLocalizer(db)
	fieldCache := i18n.NewFieldMetadataCache(db)
	entityService := engine.NewDynamicEntityService(db)
	templateService := template.NewService(db)
	permissionService := auth.NewFieldPermissionService(db)
	registrar := menu.NewEntityMenuRegistrar(db, templateService)
	treeBuilder := menu.NewFunctionTreeBuilder(db, localizer)
	jwtService := auth.NewJWTService()

	handler := api.NewHandler(db, entityService, templateService, permissionService,
		fieldCache, localizer, registrar, treeBuilder, jwtService)
	router := api.SetupRouter(handler, cfg)

	port := getEnv("PORT", cfg.Server.Port)
	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func connectDB() *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		requireEnv("DB_HOST"),
		requireEnv("DB_PORT"),
		requireEnv("DB_USER"),
		requireEnv("DB_PASSWORD"),
		requireEnv("DB_NAME"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	return db
}

func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Missing required env: %s", key)
	}
	return value
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// CLI
func runCLI() {
	cmd := os.Args[1]
	switch cmd {
	case "serve":
		startServer()
	case "migrate":
		db := connectDB()
		if err := database.RunMigrations(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("Migrations complete")
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println(`Usage: basis <command>
Commands:
  serve     Start server
  migrate   Run migrations`)
}
