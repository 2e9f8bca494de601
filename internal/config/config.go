// Package config provides configuration management for Basis
package config

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SystemConfig represents a configuration entry stored in database
type SystemConfig struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Key       string    `gorm:"uniqueIndex;not null;size:100"`
	Value     string    `gorm:"type:text"`
	ValueType string    `gorm:"size:20"` // string, int, bool, json
	Category  string    `gorm:"size:50;index"`
	IsSecret  bool      `gorm:"default:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for SystemConfig
func (SystemConfig) TableName() string {
	return "system_config"
}

func (c *SystemConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ConfigService manages configuration
type ConfigService struct {
	db    *gorm.DB
	cache map[string]string
	mu    sync.RWMutex
}

// NewConfigService creates a new config service
func NewConfigService(db *gorm.DB) *ConfigService {
	svc := &ConfigService{
		db:    db,
		cache: make(map[string]string),
	}
	svc.loadCache()
	return svc
}

// loadCache loads all config values into memory
func (s *ConfigService) loadCache() {
	var configs []SystemConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cfg := range configs {
		s.cache[cfg.Key] = cfg.Value
	}
}

// Get returns a config value by key
func (s *ConfigService) Get(key string) string {
	// Check environment variable override first
	if envVal := os.Getenv("BASIS_" + key); envVal != "" {
		return envVal
	}

	s.mu.RLock()
	if val, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return val
	}
	s.mu.RUnlock()

	// Try database
	var cfg SystemConfig
	if err := s.db.Where("key = ?", key).First(&cfg).Error; err == nil {
		s.mu.Lock()
		s.cache[key] = cfg.Value
		s.mu.Unlock()
		return cfg.Value
	}

	return ""
}

// GetWithDefault returns a config value or default if not found
func (s *ConfigService) GetWithDefault(key, defaultValue string) string {
	if val := s.Get(key); val != "" {
		return val
	}
	return defaultValue
}

// GetInt returns a config value as int
func (s *ConfigService) GetInt(key string, defaultValue int) int {
	val := s.Get(key)
	if val == "" {
		return defaultValue
	}
	if i, err := strconv.Atoi(val); err == nil {
		return i
	}
	return defaultValue
}

// GetBool returns a config value as bool
func (s *ConfigService) GetBool(key string, defaultValue bool) bool {
	val := s.Get(key)
	if val == "" {
		return defaultValue
	}
	return val == "true" || val == "1" || val == "yes"
}

// Set sets a config value
func (s *ConfigService) Set(key, value, category string, isSecret bool) error {
	cfg := SystemConfig{
		Key:       key,
		Value:     value,
		ValueType: "string",
		Category:  category,
		IsSecret:  isSecret,
		UpdatedAt: time.Now(),
	}

	// Upsert
	err := s.db.Where("key = ?", key).Assign(cfg).FirstOrCreate(&cfg).Error
	if err != nil {
		return err
	}

	// Update cache
	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()

	return nil
}

// Delete removes a config value
func (s *ConfigService) Delete(key string) error {
	err := s.db.Where("key = ?", key).Delete(&SystemConfig{}).Error
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	return nil
}

// GetCategory returns all config values for a category
func (s *ConfigService) GetCategory(category string) map[string]string {
	var configs []SystemConfig
	result := make(map[string]string)

	if err := s.db.Where("category = ?", category).Find(&configs).Error; err != nil {
		return result
	}

	for _, cfg := range configs {
		result[cfg.Key] = cfg.Value
	}

	return result
}

// GenerateJWTSecret generates a secure random JWT secret
func GenerateJWTSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "basis-fallback-secret-" + uuid.New().String()
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

// SetupDefaultConfig sets up default configuration values
func (s *ConfigService) SetupDefaultConfig() error {
	defaults := map[string]struct {
		value    string
		category string
		secret   bool
	}{
		// Server
		"SERVER_PORT":          {"8090", "server", false},
		"SERVER_MODE":          {"debug", "server", false},
		"SERVER_READ_TIMEOUT":  {"30", "server", false},
		"SERVER_WRITE_TIMEOUT": {"30", "server", false},

		// Auth
		"JWT_SECRET":         {GenerateJWTSecret(), "auth", true},
		"JWT_ACCESS_EXPIRY":  {"24", "auth", false},
		"JWT_REFRESH_EXPIRY": {"168", "auth", false}, // 7 days in hours

		// Localization
		"DEFAULT_LANGUAGE": {"en", "i18n", false},

		// CORS
		"CORS_ALLOWED_ORIGINS":   {"http://localhost:3000,http://localhost:8080", "cors", false},
		"CORS_ALLOW_CREDENTIALS": {"true", "cors", false},
	}

	for key, cfg := range defaults {
		// Only set if not already set
		if s.Get(key) == "" {
			if err := s.Set(key, cfg.value, cfg.category, cfg.secret); err != nil {
				return err
			}
		}
	}

	return nil
}

// Config holds the runtime configuration
type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	I18n   I18nConfig
	CORS   CORSConfig
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	JWTSecret     string
	AccessExpiry  int
	RefreshExpiry int
}

// I18nConfig holds localization settings
type I18nConfig struct {
	DefaultLanguage string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// LoadConfig loads configuration from database into a Config struct
func (s *ConfigService) LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         s.GetWithDefault("SERVER_PORT", "8090"),
			Mode:         s.GetWithDefault("SERVER_MODE", "debug"),
			ReadTimeout:  s.GetInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: s.GetInt("SERVER_WRITE_TIMEOUT", 30),
		},
		Auth: AuthConfig{
			JWTSecret:     s.GetWithDefault("JWT_SECRET", ""),
			AccessExpiry:  s.GetInt("JWT_ACCESS_EXPIRY", 24),
			RefreshExpiry: s.GetInt("JWT_REFRESH_EXPIRY", 168),
		},
		I18n: I18nConfig{
			DefaultLanguage: s.GetWithDefault("DEFAULT_LANGUAGE", "en"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitString(s.GetWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
			AllowCredentials: s.GetBool("CORS_ALLOW_CREDENTIALS", true),
		},
	}
}

// splitString splits a comma-separated string into a slice
func splitString(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
