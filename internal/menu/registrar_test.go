package menu

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aethra/basis/internal/models"
	"github.com/aethra/basis/internal/template"
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
		&models.FormTemplate{},
		&models.TemplateBinding{},
		&models.TemplateStateBinding{},
		&models.FunctionNode{},
		&models.RoleProfile{},
		&models.RoleFunctionPermission{},
		&models.EntityDomain{},
		&models.LocalizationResource{},
	))
	return db
}

func menuEntity(t *testing.T, db *gorm.DB) *models.EntityDefinition {
	t.Helper()
	entity := &models.EntityDefinition{
		Namespace:    "CRM",
		EntityName:   "Customer",
		FullTypeName: "CRM.Customer",
		Status:       models.EntityStatusPublished,
		Category:     "CRM",
		DisplayName:  models.JSONBFromStrings(map[string]string{"en": "Customers", "ja": "顧客"}),
		Fields: []models.FieldMetadata{
			{PropertyName: "Name", DataType: models.FieldTypeString, SortOrder: 0},
		},
	}
	require.NoError(t, db.Create(entity).Error)
	return entity
}

func nodeByCode(t *testing.T, db *gorm.DB, code string) *models.FunctionNode {
	t.Helper()
	var node models.FunctionNode
	require.NoError(t, db.Where("code = ?", code).First(&node).Error)
	return &node
}

func TestRegisterEntityCreatesChain(t *testing.T) {
	db := openTestDB(t)
	templates := template.NewService(db)
	registrar := NewEntityMenuRegistrar(db, templates)
	entity := menuEntity(t, db)

	result, err := registrar.RegisterEntity(context.Background(), entity, "admin")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "CRM", result.DomainCode)
	assert.Equal(t, "CRM.ENTITY.CUSTOMER", result.FunctionCode)

	root := nodeByCode(t, db, "APP.ROOT")
	domain := nodeByCode(t, db, "CRM")
	container := nodeByCode(t, db, "CRM.ENTITY")
	leaf := nodeByCode(t, db, "CRM.ENTITY.CUSTOMER")

	assert.Nil(t, root.ParentID)
	assert.Equal(t, root.ID, *domain.ParentID)
	assert.Equal(t, domain.ID, *container.ParentID)
	assert.Equal(t, container.ID, *leaf.ParentID)
	assert.Equal(t, "/dynamic-entity/CRM.Customer", leaf.Route)
	assert.Equal(t, "team", domain.Icon)
	assert.Equal(t, 100, domain.SortOrder)
}

func TestRegisterEntityIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	templates := template.NewService(db)
	registrar := NewEntityMenuRegistrar(db, templates)
	entity := menuEntity(t, db)

	_, err := registrar.RegisterEntity(context.Background(), entity, "admin")
	require.NoError(t, err)
	_, err = registrar.RegisterEntity(context.Background(), entity, "admin")
	require.NoError(t, err)

	var count int64
	db.Model(&models.FunctionNode{}).Count(&count)
	assert.EqualValues(t, 4, count)
}

func TestRegisterEntityRepairsMisplacedNode(t *testing.T) {
	db := openTestDB(t)
	templates := template.NewService(db)
	registrar := NewEntityMenuRegistrar(db, templates)
	entity := menuEntity(t, db)

	_, err := registrar.RegisterEntity(context.Background(), entity, "admin")
	require.NoError(t, err)

	// Detach the leaf and scramble its route, then re-register.
	leaf := nodeByCode(t, db, "CRM.ENTITY.CUSTOMER")
	leaf.ParentID = nil
	leaf.Route = "/wrong"
	require.NoError(t, db.Save(leaf).Error)

	_, err = registrar.RegisterEntity(context.Background(), entity, "admin")
	require.NoError(t, err)

	repaired := nodeByCode(t, db, "CRM.ENTITY.CUSTOMER")
	container := nodeByCode(t, db, "CRM.ENTITY")
	require.NotNil(t, repaired.ParentID)
	assert.Equal(t, container.ID, *repaired.ParentID)
	assert.Equal(t, "/dynamic-entity/CRM.Customer", repaired.Route)
}

func TestRegisterEntityUsesDomainRecord(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&models.EntityDomain{
		Code:      "CRM",
		Name:      models.JSONBFromStrings(map[string]string{"en": "Customer Relations"}),
		Icon:      "crown",
		SortOrder: 25,
	}).Error)
	templates := template.NewService(db)
	registrar := NewEntityMenuRegistrar(db, templates)
	entity := menuEntity(t, db)

	_, err := registrar.RegisterEntity(context.Background(), entity, "admin")
	require.NoError(t, err)

	domain := nodeByCode(t, db, "CRM")
	assert.Equal(t, "Customer Relations", domain.Name)
	assert.Equal(t, "crown", domain.Icon)
	assert.Equal(t, 25, domain.SortOrder)
}

func TestRegisterEntityHonorsZeroDomainSortOrder(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&models.EntityDomain{
		Code:      "CRM",
		Icon:      "team",
		SortOrder: 0,
	}).Error)
	templates := template.NewService(db)
	registrar := NewEntityMenuRegistrar(db, templates)
	entity := menuEntity(t, db)

	_, err := registrar.RegisterEntity(context.Background(), entity, "admin")
	require.NoError(t, err)

	domain := nodeByCode(t, db, "CRM")
	assert.Equal(t, 0, domain.SortOrder)
}

func TestRegisterEntityWarnsWithoutListBinding(t *testing.T) {
	db := openTestDB(t)
	templates := template.NewService(db)
	registrar := NewEntityMenuRegistrar(db, templates)
	entity := menuEntity(t, db)

	result, err := registrar.RegisterEntity(context.Background(), entity, "admin")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Nil(t, result.TemplateBindingID)
	assert.NotEmpty(t, result.Warning)
}

func TestRegisterEntityRewritesBindingFunctionCode(t *testing.T) {
	db := openTestDB(t)
	templates := template.NewService(db)
	registrar := NewEntityMenuRegistrar(db, templates)
	entity := menuEntity(t, db)

	listTpl, err := templates.GetDefaultTemplate(context.Background(), entity, models.UsageList, "admin")
	require.NoError(t, err)
	binding := models.TemplateBinding{
		EntityType:           "CRM.Customer",
		UsageType:            models.UsageList,
		TemplateID:           listTpl.ID,
		IsSystem:             true,
		RequiredFunctionCode: "STALE.CODE",
	}
	require.NoError(t, db.Create(&binding).Error)

	result, err := registrar.RegisterEntity(context.Background(), entity, "admin")

	require.NoError(t, err)
	require.NotNil(t, result.TemplateBindingID)
	assert.Equal(t, binding.ID, *result.TemplateBindingID)

	var saved models.TemplateBinding
	require.NoError(t, db.First(&saved, "id = ?", binding.ID).Error)
	assert.Equal(t, "CRM.ENTITY.CUSTOMER", saved.RequiredFunctionCode)
}

func TestDefaultDomainForUncategorizedEntity(t *testing.T) {
	db := openTestDB(t)
	templates := template.NewService(db)
	registrar := NewEntityMenuRegistrar(db, templates)
	entity := menuEntity(t, db)
	entity.Category = ""

	result, err := registrar.RegisterEntity(context.Background(), entity, "admin")

	require.NoError(t, err)
	assert.Equal(t, "CUSTOM", result.DomainCode)
	domain := nodeByCode(t, db, "CUSTOM")
	assert.Equal(t, "appstore", domain.Icon)
}
