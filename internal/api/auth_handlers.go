// Package api - Authentication handlers
package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aethra/basis/internal/auth"
	"github.com/aethra/basis/internal/errors"
	"github.com/aethra/basis/internal/models"
)

// Login verifies credentials against the stored bcrypt hash and issues a
// token pair carrying the user's active role codes
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	var user models.UserAccount
	err := h.db.WithContext(c.Request.Context()).
		Where("email = ?", input.Email).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		respondError(c, errors.NewUnauthorizedError("invalid credentials"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if !user.IsActive || !auth.CheckPassword(input.Password, user.PasswordHash) {
		respondError(c, errors.NewUnauthorizedError("invalid credentials"))
		return
	}

	roles, err := h.userRoleCodes(c, user.ID.String())
	if err != nil {
		respondError(c, err)
		return
	}

	pair, err := h.jwt.GenerateTokenPair(user.ID.String(), user.Email, user.Lang, roles)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// RefreshToken exchanges a refresh token for a fresh pair. Roles and language
// are re-read from the store, so changes since login take effect here
// POST /api/auth/refresh
func (h *Handler) RefreshToken(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	claims, err := h.jwt.ValidateToken(input.RefreshToken)
	if err != nil {
		respondError(c, errors.NewUnauthorizedError("invalid refresh token"))
		return
	}

	var user models.UserAccount
	err = h.db.WithContext(c.Request.Context()).
		Where("id = ?", claims.UserID).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		respondError(c, errors.NewUnauthorizedError("invalid refresh token"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if !user.IsActive {
		respondError(c, errors.NewUnauthorizedError("account disabled"))
		return
	}

	roles, err := h.userRoleCodes(c, user.ID.String())
	if err != nil {
		respondError(c, err)
		return
	}

	pair, err := h.jwt.RefreshAccessToken(input.RefreshToken, user.Email, user.Lang, roles)
	if err != nil {
		respondError(c, errors.NewUnauthorizedError("invalid refresh token"))
		return
	}
	c.JSON(http.StatusOK, pair)
}

// userRoleCodes returns the sorted role codes of the user's assignments whose
// validity window covers now.
func (h *Handler) userRoleCodes(c *gin.Context, userID string) ([]string, error) {
	var assignments []models.RoleAssignment
	err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	roleIDs := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		if a.ValidFrom != nil && now.Before(*a.ValidFrom) {
			continue
		}
		if a.ValidTo != nil && now.After(*a.ValidTo) {
			continue
		}
		roleIDs = append(roleIDs, a.RoleID)
	}
	if len(roleIDs) == 0 {
		return nil, nil
	}

	var roles []models.RoleProfile
	if err := h.db.WithContext(c.Request.Context()).
		Where("id IN ?", roleIDs).Find(&roles).Error; err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(roles))
	for _, role := range roles {
		codes = append(codes, role.Code)
	}
	sort.Strings(codes)
	return codes, nil
}
