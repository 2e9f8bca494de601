package auth

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aethra/basis/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.EntityDefinition{},
		&models.FieldMetadata{},
		&models.FieldPermission{},
		&models.RoleProfile{},
		&models.RoleAssignment{},
	))
	return db
}

func seedRole(t *testing.T, db *gorm.DB, code, userID string) uuid.UUID {
	t.Helper()
	role := models.RoleProfile{Code: code, Name: code}
	require.NoError(t, db.Create(&role).Error)
	require.NoError(t, db.Create(&models.RoleAssignment{UserID: userID, RoleID: role.ID}).Error)
	return role.ID
}

func TestDefaultAccessIsReadOnly(t *testing.T) {
	db := openTestDB(t)
	svc := NewFieldPermissionService(db)
	seedRole(t, db, "SALES", "u1")

	access, err := svc.GetUserFieldPermission(context.Background(), "u1", "CRM.Customer", "Revenue")

	require.NoError(t, err)
	assert.True(t, access.CanRead)
	assert.False(t, access.CanWrite)
}

func TestAccessAggregatesAcrossRolesWithOr(t *testing.T) {
	db := openTestDB(t)
	svc := NewFieldPermissionService(db)
	readerRole := seedRole(t, db, "READER", "u1")
	writerRole := seedRole(t, db, "WRITER", "u1")

	require.NoError(t, db.Create(&models.FieldPermission{
		RoleID: readerRole, EntityType: "CRM.Customer", FieldName: "Revenue",
		CanRead: true, CanWrite: false,
	}).Error)
	require.NoError(t, db.Create(&models.FieldPermission{
		RoleID: writerRole, EntityType: "CRM.Customer", FieldName: "Revenue",
		CanRead: false, CanWrite: true,
	}).Error)

	access, err := svc.GetUserFieldPermission(context.Background(), "u1", "CRM.Customer", "Revenue")

	require.NoError(t, err)
	assert.True(t, access.CanRead)
	assert.True(t, access.CanWrite)
}

func TestExplicitDenyOverridesDefault(t *testing.T) {
	db := openTestDB(t)
	svc := NewFieldPermissionService(db)
	role := seedRole(t, db, "LIMITED", "u1")

	require.NoError(t, db.Create(&models.FieldPermission{
		RoleID: role, EntityType: "CRM.Customer", FieldName: "Salary",
		CanRead: false, CanWrite: false,
	}).Error)

	access, err := svc.GetUserFieldPermission(context.Background(), "u1", "CRM.Customer", "Salary")

	require.NoError(t, err)
	assert.False(t, access.CanRead)
	assert.False(t, access.CanWrite)
}

func TestExpiredAssignmentIsIgnored(t *testing.T) {
	db := openTestDB(t)
	svc := NewFieldPermissionService(db)

	role := models.RoleProfile{Code: "EXPIRED", Name: "Expired"}
	require.NoError(t, db.Create(&role).Error)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&models.RoleAssignment{
		UserID: "u1", RoleID: role.ID, ValidTo: &past,
	}).Error)
	require.NoError(t, db.Create(&models.FieldPermission{
		RoleID: role.ID, EntityType: "CRM.Customer", FieldName: "Revenue",
		CanRead: true, CanWrite: true,
	}).Error)

	access, err := svc.GetUserFieldPermission(context.Background(), "u1", "CRM.Customer", "Revenue")

	require.NoError(t, err)
	assert.True(t, access.CanRead)
	assert.False(t, access.CanWrite)
}

func TestUpsertInvalidatesCachedAccess(t *testing.T) {
	db := openTestDB(t)
	svc := NewFieldPermissionService(db)
	role := seedRole(t, db, "SALES", "u1")

	before, err := svc.GetUserFieldPermission(context.Background(), "u1", "CRM.Customer", "Revenue")
	require.NoError(t, err)
	require.False(t, before.CanWrite)

	_, err = svc.UpsertPermission(context.Background(), role, "CRM.Customer", "Revenue", true, true, "", "admin")
	require.NoError(t, err)

	after, err := svc.GetUserFieldPermission(context.Background(), "u1", "CRM.Customer", "Revenue")
	require.NoError(t, err)
	assert.True(t, after.CanWrite)
}

func TestUpsertUpdatesByNaturalKey(t *testing.T) {
	db := openTestDB(t)
	svc := NewFieldPermissionService(db)
	role := seedRole(t, db, "SALES", "u1")

	first, err := svc.UpsertPermission(context.Background(), role, "CRM.Customer", "Revenue", true, false, "", "admin")
	require.NoError(t, err)
	second, err := svc.UpsertPermission(context.Background(), role, "CRM.Customer", "Revenue", true, true, "widened", "admin")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.FieldPermission{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestBulkUpsertLeavesUnmentionedRowsUntouched(t *testing.T) {
	db := openTestDB(t)
	svc := NewFieldPermissionService(db)
	role := seedRole(t, db, "SALES", "u1")

	_, err := svc.UpsertPermission(context.Background(), role, "CRM.Customer", "Untouched", true, true, "", "admin")
	require.NoError(t, err)

	err = svc.BulkUpsertPermissions(context.Background(), role, "CRM.Customer", []PermissionInput{
		{FieldName: "Revenue", CanRead: true, CanWrite: true},
		{FieldName: "Notes", CanRead: true},
	}, "admin")
	require.NoError(t, err)

	var count int64
	db.Model(&models.FieldPermission{}).Count(&count)
	assert.EqualValues(t, 3, count)

	var untouched models.FieldPermission
	require.NoError(t, db.Where("field_name = ?", "Untouched").First(&untouched).Error)
	assert.True(t, untouched.CanWrite)
}

func TestReadableAndWritableFields(t *testing.T) {
	db := openTestDB(t)
	svc := NewFieldPermissionService(db)
	role := seedRole(t, db, "SALES", "u1")

	entity := models.EntityDefinition{
		Namespace: "CRM", EntityName: "Customer", FullTypeName: "CRM.Customer",
		Fields: []models.FieldMetadata{
			{PropertyName: "Name", DataType: models.FieldTypeString, SortOrder: 0},
			{PropertyName: "Revenue", DataType: models.FieldTypeDecimal, SortOrder: 1},
			{PropertyName: "Salary", DataType: models.FieldTypeDecimal, SortOrder: 2},
		},
	}
	require.NoError(t, db.Create(&entity).Error)

	require.NoError(t, db.Create(&models.FieldPermission{
		RoleID: role, EntityType: "CRM.Customer", FieldName: "Salary",
		CanRead: false, CanWrite: false,
	}).Error)
	require.NoError(t, db.Create(&models.FieldPermission{
		RoleID: role, EntityType: "CRM.Customer", FieldName: "Revenue",
		CanRead: true, CanWrite: true,
	}).Error)

	readable, err := svc.GetReadableFields(context.Background(), "u1", "CRM.Customer")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Revenue"}, readable)

	writable, err := svc.GetWritableFields(context.Background(), "u1", "CRM.Customer")
	require.NoError(t, err)
	assert.Equal(t, []string{"Revenue"}, writable)
}

func TestDeletePermissionRestoresDefault(t *testing.T) {
	db := openTestDB(t)
	svc := NewFieldPermissionService(db)
	role := seedRole(t, db, "SALES", "u1")

	_, err := svc.UpsertPermission(context.Background(), role, "CRM.Customer", "Salary", false, false, "", "admin")
	require.NoError(t, err)

	denied, err := svc.GetUserFieldPermission(context.Background(), "u1", "CRM.Customer", "Salary")
	require.NoError(t, err)
	require.False(t, denied.CanRead)

	require.NoError(t, svc.DeletePermission(context.Background(), role, "CRM.Customer", "Salary"))

	restored, err := svc.GetUserFieldPermission(context.Background(), "u1", "CRM.Customer", "Salary")
	require.NoError(t, err)
	assert.True(t, restored.CanRead)
}
