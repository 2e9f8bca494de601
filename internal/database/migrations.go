// Package database provides schema migration and seeding for the Basis
// metadata store.
package database

import (
	"fmt"
	"log/slog"
	"os"

	"gorm.io/gorm"

	"github.com/aethra/basis/internal/auth"
	"github.com/aethra/basis/internal/config"
	"github.com/aethra/basis/internal/models"
)

// RunMigrations brings the metadata schema up to date and seeds the built-in
// reference data. Safe to run repeatedly.
func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.EntityDefinition{},
		&models.FieldMetadata{},
		&models.EntityInterface{},
		&models.FormTemplate{},
		&models.TemplateBinding{},
		&models.TemplateStateBinding{},
		&models.FieldPermission{},
		&models.RoleProfile{},
		&models.RoleAssignment{},
		&models.FunctionNode{},
		&models.RoleFunctionPermission{},
		&models.EntityDomain{},
		&models.LocalizationResource{},
		&models.UserAccount{},
		&config.SystemConfig{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate metadata schema: %w", err)
	}

	if err := seedDomains(db); err != nil {
		return fmt.Errorf("failed to seed entity domains: %w", err)
	}
	if err := seedRoles(db); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}
	if err := seedAdminUser(db); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return nil
}

// seedDomains inserts the built-in business domains. Existing rows keep their
// customized names and icons.
func seedDomains(db *gorm.DB) error {
	domains := []models.EntityDomain{
		{Code: "SYS", Name: models.JSONBFromStrings(map[string]string{"en": "System", "ja": "システム", "zh": "系统"}), Icon: "setting", SortOrder: 10},
		{Code: "CRM", Name: models.JSONBFromStrings(map[string]string{"en": "Customer Relations", "ja": "顧客管理", "zh": "客户关系"}), Icon: "team", SortOrder: 20},
		{Code: "SCM", Name: models.JSONBFromStrings(map[string]string{"en": "Supply Chain", "ja": "サプライチェーン", "zh": "供应链"}), Icon: "branches", SortOrder: 30},
		{Code: "FA", Name: models.JSONBFromStrings(map[string]string{"en": "Finance", "ja": "財務", "zh": "财务"}), Icon: "dollar", SortOrder: 40},
		{Code: "HR", Name: models.JSONBFromStrings(map[string]string{"en": "Human Resources", "ja": "人事", "zh": "人力资源"}), Icon: "user", SortOrder: 50},
		{Code: "MFM", Name: models.JSONBFromStrings(map[string]string{"en": "Manufacturing", "ja": "製造", "zh": "制造"}), Icon: "build", SortOrder: 60},
		{Code: "CUSTOM", Name: models.JSONBFromStrings(map[string]string{"en": "Custom", "ja": "カスタム", "zh": "自定义"}), Icon: "appstore", SortOrder: 100},
	}

	for _, domain := range domains {
		var count int64
		if err := db.Model(&models.EntityDomain{}).Where("code = ?", domain.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&domain).Error; err != nil {
			return err
		}
		slog.Info("[database] seeded entity domain", "code", domain.Code)
	}
	return nil
}

// seedRoles creates the built-in administrator role.
func seedRoles(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.RoleProfile{}).Where("code = ?", "ADMIN").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(&models.RoleProfile{
		Code:     "ADMIN",
		Name:     "Administrator",
		IsSystem: true,
	}).Error
}

// seedAdminUser creates the initial login from ADMIN_EMAIL and ADMIN_PASSWORD.
// Skipped when the variables are unset or the user already exists.
func seedAdminUser(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.UserAccount{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user := models.UserAccount{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Administrator",
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	var admin models.RoleProfile
	if err := db.Where("code = ?", "ADMIN").First(&admin).Error; err != nil {
		return err
	}
	if err := db.Create(&models.RoleAssignment{UserID: user.ID.String(), RoleID: admin.ID}).Error; err != nil {
		return err
	}
	slog.Info("[database] seeded admin user", "email", email)
	return nil
}
