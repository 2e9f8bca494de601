package menu

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aethra/basis/internal/i18n"
	"github.com/aethra/basis/internal/models"
	"github.com/aethra/basis/internal/template"
)

func seedMenuTree(t *testing.T, db *gorm.DB) (root, crm, leafA, leafB *models.FunctionNode) {
	t.Helper()
	root = &models.FunctionNode{Code: "APP.ROOT", Name: "Application", IsMenu: true}
	require.NoError(t, db.Create(root).Error)

	crm = &models.FunctionNode{
		ParentID: &root.ID, Code: "CRM", Name: "CRM", IsMenu: true, SortOrder: 20,
		DisplayName: models.JSONBFromStrings(map[string]string{"en": "Customer Relations", "ja": "顧客管理"}),
	}
	require.NoError(t, db.Create(crm).Error)

	leafA = &models.FunctionNode{
		ParentID: &crm.ID, Code: "CRM.ENTITY.CUSTOMER", Name: "Customer",
		Route: "/dynamic-entity/CRM.Customer", IsMenu: true, SortOrder: 2,
	}
	require.NoError(t, db.Create(leafA).Error)

	leafB = &models.FunctionNode{
		ParentID: &crm.ID, Code: "CRM.ENTITY.ACCOUNT", Name: "Account",
		Route: "/dynamic-entity/CRM.Account", IsMenu: true, SortOrder: 1,
	}
	require.NoError(t, db.Create(leafB).Error)
	return root, crm, leafA, leafB
}

func grant(t *testing.T, db *gorm.DB, roleID uuid.UUID, nodes ...*models.FunctionNode) {
	t.Helper()
	for _, node := range nodes {
		require.NoError(t, db.Create(&models.RoleFunctionPermission{
			RoleID: roleID, FunctionNodeID: node.ID,
		}).Error)
	}
}

func TestBuildTreeFiltersByRole(t *testing.T) {
	db := openTestDB(t)
	_, _, leafA, leafB := seedMenuTree(t, db)
	role := models.RoleProfile{Code: "SALES", Name: "Sales"}
	require.NoError(t, db.Create(&role).Error)
	grant(t, db, role.ID, leafA)

	builder := NewFunctionTreeBuilder(db, i18n.NewDBLocalizer(db))
	tree, err := builder.BuildTree(context.Background(), []uuid.UUID{role.ID}, "en")

	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, "CRM.ENTITY.CUSTOMER", tree[0].Children[0].Children[0].Code)

	// leafB has no grant and must be absent
	for _, child := range tree[0].Children[0].Children {
		assert.NotEqual(t, leafB.Code, child.Code)
	}
}

func TestBuildTreeSortsSiblings(t *testing.T) {
	db := openTestDB(t)
	_, _, leafA, leafB := seedMenuTree(t, db)
	role := models.RoleProfile{Code: "ALL", Name: "All"}
	require.NoError(t, db.Create(&role).Error)
	grant(t, db, role.ID, leafA, leafB)

	builder := NewFunctionTreeBuilder(db, i18n.NewDBLocalizer(db))
	tree, err := builder.BuildTree(context.Background(), []uuid.UUID{role.ID}, "en")

	require.NoError(t, err)
	require.Len(t, tree, 1)
	children := tree[0].Children[0].Children
	require.Len(t, children, 2)
	assert.Equal(t, "CRM.ENTITY.ACCOUNT", children[0].Code)
	assert.Equal(t, "CRM.ENTITY.CUSTOMER", children[1].Code)
}

func TestBuildTreeResolvesDisplayNames(t *testing.T) {
	db := openTestDB(t)
	_, crm, leafA, _ := seedMenuTree(t, db)
	role := models.RoleProfile{Code: "SALES", Name: "Sales"}
	require.NoError(t, db.Create(&role).Error)
	grant(t, db, role.ID, leafA)

	builder := NewFunctionTreeBuilder(db, i18n.NewDBLocalizer(db))
	tree, err := builder.BuildTree(context.Background(), []uuid.UUID{role.ID}, "ja")

	require.NoError(t, err)
	require.Len(t, tree, 1)
	crmNode := tree[0].Children[0]
	require.Equal(t, crm.Code, crmNode.Code)
	assert.Equal(t, "顧客管理", crmNode.DisplayName)
}

func TestBuildTreeEmptyWithoutRoles(t *testing.T) {
	db := openTestDB(t)
	seedMenuTree(t, db)

	builder := NewFunctionTreeBuilder(db, i18n.NewDBLocalizer(db))
	tree, err := builder.BuildTree(context.Background(), nil, "en")

	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestBuildTreeAfterRegistration(t *testing.T) {
	db := openTestDB(t)
	templates := template.NewService(db)
	registrar := NewEntityMenuRegistrar(db, templates)
	entity := menuEntity(t, db)

	result, err := registrar.RegisterEntity(context.Background(), entity, "admin")
	require.NoError(t, err)

	role := models.RoleProfile{Code: "SALES", Name: "Sales"}
	require.NoError(t, db.Create(&role).Error)
	var leaf models.FunctionNode
	require.NoError(t, db.Where("code = ?", result.FunctionCode).First(&leaf).Error)
	grant(t, db, role.ID, &leaf)

	builder := NewFunctionTreeBuilder(db, i18n.NewDBLocalizer(db))
	tree, err := builder.BuildTree(context.Background(), []uuid.UUID{role.ID}, "en")

	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "APP.ROOT", tree[0].Code)
}
