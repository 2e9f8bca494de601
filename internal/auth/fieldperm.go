package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/aethra/basis/internal/models"
)

// FieldAccess is the effective access a user has to one field.
type FieldAccess struct {
	CanRead  bool `json:"canRead"`
	CanWrite bool `json:"canWrite"`
}

// defaultFieldAccess applies when no permission row touches a field: readable,
// not writable.
var defaultFieldAccess = FieldAccess{CanRead: true, CanWrite: false}

// PermissionInput is one entry of a bulk upsert.
type PermissionInput struct {
	FieldName string `json:"fieldName"`
	CanRead   bool   `json:"canRead"`
	CanWrite  bool   `json:"canWrite"`
	Remarks   string `json:"remarks"`
}

// FieldPermissionService computes effective field access by OR-ing the
// permission rows of every role a user holds.
type FieldPermissionService struct {
	db    *gorm.DB
	cache *gocache.Cache

	mu        sync.Mutex
	roleIndex map[uuid.UUID]map[string]struct{}
}

// NewFieldPermissionService creates the service over the given database.
func NewFieldPermissionService(db *gorm.DB) *FieldPermissionService {
	return &FieldPermissionService{
		db:        db,
		cache:     gocache.New(30*time.Minute, 10*time.Minute),
		roleIndex: map[uuid.UUID]map[string]struct{}{},
	}
}

// GetUserFieldPermission resolves one user's effective access to one field.
// Role assignments outside their validity window are ignored; organization
// scope does not narrow this computation. CanRead and CanWrite each OR over
// all matching rows. Zero rows yield the read-only default.
func (s *FieldPermissionService) GetUserFieldPermission(ctx context.Context, userID, entityType, fieldName string) (FieldAccess, error) {
	cacheKey := permCacheKey(userID, entityType, fieldName)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(FieldAccess), nil
	}

	roleIDs, err := s.activeRoleIDs(ctx, userID)
	if err != nil {
		return FieldAccess{}, err
	}

	access := defaultFieldAccess
	if len(roleIDs) > 0 {
		var rows []models.FieldPermission
		err = s.db.WithContext(ctx).
			Where("role_id IN ? AND entity_type = ? AND field_name = ?", roleIDs, entityType, fieldName).
			Find(&rows).Error
		if err != nil {
			return FieldAccess{}, err
		}
		if len(rows) > 0 {
			access = FieldAccess{}
			for _, row := range rows {
				access.CanRead = access.CanRead || row.CanRead
				access.CanWrite = access.CanWrite || row.CanWrite
			}
		}
	}

	s.cache.Set(cacheKey, access, gocache.DefaultExpiration)
	s.trackCacheKey(roleIDs, cacheKey)
	return access, nil
}

// CanUserReadField reports whether the user's effective access allows reading.
func (s *FieldPermissionService) CanUserReadField(ctx context.Context, userID, entityType, fieldName string) (bool, error) {
	access, err := s.GetUserFieldPermission(ctx, userID, entityType, fieldName)
	return access.CanRead, err
}

// CanUserWriteField reports whether the user's effective access allows writing.
func (s *FieldPermissionService) CanUserWriteField(ctx context.Context, userID, entityType, fieldName string) (bool, error) {
	access, err := s.GetUserFieldPermission(ctx, userID, entityType, fieldName)
	return access.CanWrite, err
}

// GetReadableFields returns the field names of the entity definition the user
// can read, sorted. Fields without explicit rows are default-readable.
func (s *FieldPermissionService) GetReadableFields(ctx context.Context, userID, entityType string) ([]string, error) {
	return s.effectiveFields(ctx, userID, entityType, func(a FieldAccess) bool { return a.CanRead })
}

// GetWritableFields returns the field names the user can write, sorted.
func (s *FieldPermissionService) GetWritableFields(ctx context.Context, userID, entityType string) ([]string, error) {
	return s.effectiveFields(ctx, userID, entityType, func(a FieldAccess) bool { return a.CanWrite })
}

func (s *FieldPermissionService) effectiveFields(ctx context.Context, userID, entityType string, allowed func(FieldAccess) bool) ([]string, error) {
	names := map[string]struct{}{}

	var def models.EntityDefinition
	err := s.db.WithContext(ctx).
		Preload("Fields").
		Where("full_type_name = ?", entityType).
		First(&def).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if err == nil {
		for _, f := range def.ActiveFields() {
			names[f.PropertyName] = struct{}{}
		}
	}

	var rows []models.FieldPermission
	if err := s.db.WithContext(ctx).Where("entity_type = ?", entityType).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.FieldName] = struct{}{}
	}

	var result []string
	for name := range names {
		access, err := s.GetUserFieldPermission(ctx, userID, entityType, name)
		if err != nil {
			return nil, err
		}
		if allowed(access) {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result, nil
}

// UpsertPermission creates or updates one row by its natural key and
// invalidates the role's cached effective permissions.
func (s *FieldPermissionService) UpsertPermission(ctx context.Context, roleID uuid.UUID, entityType, fieldName string, canRead, canWrite bool, remarks, userID string) (*models.FieldPermission, error) {
	var row models.FieldPermission
	err := s.db.WithContext(ctx).
		Where("role_id = ? AND entity_type = ? AND field_name = ?", roleID, entityType, fieldName).
		First(&row).Error

	switch {
	case err == gorm.ErrRecordNotFound:
		row = models.FieldPermission{
			RoleID:     roleID,
			EntityType: entityType,
			FieldName:  fieldName,
			CanRead:    canRead,
			CanWrite:   canWrite,
			Remarks:    remarks,
			CreatedBy:  userID,
			UpdatedBy:  userID,
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, err
		}

	case err != nil:
		return nil, err

	default:
		row.CanRead = canRead
		row.CanWrite = canWrite
		row.Remarks = remarks
		row.UpdatedBy = userID
		if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
			return nil, err
		}
	}

	s.invalidateRole(roleID)
	return &row, nil
}

// BulkUpsertPermissions applies a batch of upserts for one role and entity in
// a single transaction. Rows for fields not mentioned are left untouched.
func (s *FieldPermissionService) BulkUpsertPermissions(ctx context.Context, roleID uuid.UUID, entityType string, permissions []PermissionInput, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range permissions {
			var row models.FieldPermission
			err := tx.Where("role_id = ? AND entity_type = ? AND field_name = ?", roleID, entityType, p.FieldName).
				First(&row).Error

			switch {
			case err == gorm.ErrRecordNotFound:
				row = models.FieldPermission{
					RoleID:     roleID,
					EntityType: entityType,
					FieldName:  p.FieldName,
					CanRead:    p.CanRead,
					CanWrite:   p.CanWrite,
					Remarks:    p.Remarks,
					CreatedBy:  userID,
					UpdatedBy:  userID,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}

			case err != nil:
				return err

			default:
				row.CanRead = p.CanRead
				row.CanWrite = p.CanWrite
				row.Remarks = p.Remarks
				row.UpdatedBy = userID
				if err := tx.Save(&row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateRole(roleID)
	return nil
}

// DeletePermission removes one row by natural key and invalidates the role.
func (s *FieldPermissionService) DeletePermission(ctx context.Context, roleID uuid.UUID, entityType, fieldName string) error {
	err := s.db.WithContext(ctx).
		Where("role_id = ? AND entity_type = ? AND field_name = ?", roleID, entityType, fieldName).
		Delete(&models.FieldPermission{}).Error
	if err != nil {
		return err
	}
	s.invalidateRole(roleID)
	return nil
}

// DeletePermissions removes every row for (role, entity).
func (s *FieldPermissionService) DeletePermissions(ctx context.Context, roleID uuid.UUID, entityType string) error {
	err := s.db.WithContext(ctx).
		Where("role_id = ? AND entity_type = ?", roleID, entityType).
		Delete(&models.FieldPermission{}).Error
	if err != nil {
		return err
	}
	s.invalidateRole(roleID)
	return nil
}

// activeRoleIDs resolves the user's role set through RoleAssignment, honoring
// the validity window and ignoring organization scope.
func (s *FieldPermissionService) activeRoleIDs(ctx context.Context, userID string) ([]uuid.UUID, error) {
	var assignments []models.RoleAssignment
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var roleIDs []uuid.UUID
	seen := map[uuid.UUID]struct{}{}
	for _, a := range assignments {
		if a.ValidFrom != nil && now.Before(*a.ValidFrom) {
			continue
		}
		if a.ValidTo != nil && now.After(*a.ValidTo) {
			continue
		}
		if _, dup := seen[a.RoleID]; dup {
			continue
		}
		seen[a.RoleID] = struct{}{}
		roleIDs = append(roleIDs, a.RoleID)
	}
	return roleIDs, nil
}

// trackCacheKey records which roles contributed to a cached entry so a write
// through one of those roles can evict it.
func (s *FieldPermissionService) trackCacheKey(roleIDs []uuid.UUID, cacheKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, roleID := range roleIDs {
		keys, ok := s.roleIndex[roleID]
		if !ok {
			keys = map[string]struct{}{}
			s.roleIndex[roleID] = keys
		}
		keys[cacheKey] = struct{}{}
	}
}

// invalidateRole evicts every cached entry computed for a user holding the
// role. Entries for users without the role are unaffected by the change and
// stay cached.
func (s *FieldPermissionService) invalidateRole(roleID uuid.UUID) {
	s.mu.Lock()
	keys := s.roleIndex[roleID]
	delete(s.roleIndex, roleID)
	s.mu.Unlock()

	for key := range keys {
		s.cache.Delete(key)
	}
}

func permCacheKey(userID, entityType, fieldName string) string {
	return "fieldperm:" + userID + ":" + entityType + ":" + fieldName
}
