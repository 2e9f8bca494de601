package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aethra/basis/internal/auth"
	"github.com/aethra/basis/internal/database"
	"github.com/aethra/basis/internal/engine"
	"github.com/aethra/basis/internal/i18n"
	"github.com/aethra/basis/internal/menu"
	"github.com/aethra/basis/internal/models"
	"github.com/aethra/basis/internal/template"
)

func newTestHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "api-test-secret")
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	localizer := i18n.NewDBLocalizer(db)
	templates := template.NewService(db)
	handler := NewHandler(
		db,
		engine.NewDynamicEntityService(db),
		templates,
		auth.NewFieldPermissionService(db),
		i18n.NewFieldMetadataCache(db),
		localizer,
		menu.NewEntityMenuRegistrar(db, templates),
		menu.NewFunctionTreeBuilder(db, localizer),
		auth.NewJWTService(),
	)
	return handler, db
}

func seedUser(t *testing.T, db *gorm.DB, email, password string, roleCodes ...string) *models.UserAccount {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user := &models.UserAccount{Email: email, PasswordHash: hash, Lang: "ja", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	for _, code := range roleCodes {
		var role models.RoleProfile
		require.NoError(t, db.Where("code = ?", code).First(&role).Error)
		require.NoError(t, db.Create(&models.RoleAssignment{UserID: user.ID.String(), RoleID: role.ID}).Error)
	}
	return user
}

func postJSON(t *testing.T, handle gin.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handle(c)
	return w
}

func TestLoginIssuesTokenPairWithRoles(t *testing.T) {
	handler, db := newTestHandler(t)
	seedUser(t, db, "admin@example.com", "s3cret", "ADMIN")

	w := postJSON(t, handler.Login, "/api/auth/login",
		`{"email":"admin@example.com","password":"s3cret"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var pair auth.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "Bearer", pair.TokenType)

	claims, err := handler.jwt.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, []string{"ADMIN"}, claims.Roles)
	assert.Equal(t, "ja", claims.Lang)
}

func TestLoginRejectsInvalidCredentials(t *testing.T) {
	handler, db := newTestHandler(t)
	seedUser(t, db, "admin@example.com", "s3cret")

	w := postJSON(t, handler.Login, "/api/auth/login",
		`{"email":"admin@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, handler.Login, "/api/auth/login",
		`{"email":"ghost@example.com","password":"s3cret"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, handler.Login, "/api/auth/login", `{"email":"admin@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	handler, db := newTestHandler(t)
	user := seedUser(t, db, "off@example.com", "s3cret")
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	w := postJSON(t, handler.Login, "/api/auth/login",
		`{"email":"off@example.com","password":"s3cret"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshTokenReloadsRoles(t *testing.T) {
	handler, db := newTestHandler(t)
	user := seedUser(t, db, "admin@example.com", "s3cret")

	login := postJSON(t, handler.Login, "/api/auth/login",
		`{"email":"admin@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, login.Code)
	var pair auth.TokenPair
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &pair))

	var admin models.RoleProfile
	require.NoError(t, db.Where("code = ?", "ADMIN").First(&admin).Error)
	require.NoError(t, db.Create(&models.RoleAssignment{UserID: user.ID.String(), RoleID: admin.ID}).Error)

	w := postJSON(t, handler.RefreshToken, "/api/auth/refresh",
		`{"refresh_token":"`+pair.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var refreshed auth.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))
	claims, err := handler.jwt.ValidateToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, []string{"ADMIN"}, claims.Roles)
}

func TestRefreshTokenRejectsGarbage(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := postJSON(t, handler.RefreshToken, "/api/auth/refresh",
		`{"refresh_token":"garbage"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
