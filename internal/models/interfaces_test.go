package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerDefinition() *EntityDefinition {
	return &EntityDefinition{
		Namespace:    "CRM",
		EntityName:   "Customer",
		FullTypeName: "CRM.Customer",
		Status:       EntityStatusDraft,
		Fields: []FieldMetadata{
			{PropertyName: "CompanyName", DataType: FieldTypeString, IsRequired: true, SortOrder: 0, Source: FieldSourceCustom},
			{PropertyName: "Revenue", DataType: FieldTypeDecimal, SortOrder: 1, Source: FieldSourceCustom},
		},
	}
}

func fieldNames(fields []FieldMetadata) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.PropertyName)
	}
	return names
}

func TestApplyInterfaceFieldsAddsCanonicalSet(t *testing.T) {
	entity := customerDefinition()

	added := ApplyInterfaceFields(entity, InterfaceAudit)

	require.Len(t, added, 4)
	assert.ElementsMatch(t,
		[]string{"CreatedAt", "CreatedBy", "UpdatedAt", "UpdatedBy"},
		fieldNames(added))
	for _, f := range added {
		assert.Equal(t, FieldSourceInterface, f.Source)
		assert.Equal(t, InterfaceAudit, f.InterfaceType)
	}
}

func TestApplyInterfaceFieldsSkipsExistingNames(t *testing.T) {
	entity := customerDefinition()
	entity.Fields = append(entity.Fields, FieldMetadata{
		PropertyName: "CreatedAt", DataType: FieldTypeDateTime, SortOrder: 2, Source: FieldSourceCustom,
	})

	added := ApplyInterfaceFields(entity, InterfaceAudit)

	assert.ElementsMatch(t, []string{"CreatedBy", "UpdatedAt", "UpdatedBy"}, fieldNames(added))
}

func TestRemoveInterfaceFieldsIsSymmetric(t *testing.T) {
	entity := customerDefinition()
	before := fieldNames(entity.Fields)

	ApplyInterfaceFields(entity, InterfaceOrganization)
	require.Len(t, entity.Fields, len(before)+4)

	removed := RemoveInterfaceFields(entity, InterfaceOrganization)

	assert.ElementsMatch(t,
		[]string{"OrganizationId", "OrganizationCode", "OrganizationName", "OrganizationPathCode"},
		removed)
	assert.Equal(t, before, fieldNames(entity.Fields))
}

func TestRemoveInterfaceFieldsLeavesOtherInterfacesIntact(t *testing.T) {
	entity := customerDefinition()
	ApplyInterfaceFields(entity, InterfaceBase)
	ApplyInterfaceFields(entity, InterfaceVersion)

	RemoveInterfaceFields(entity, InterfaceVersion)

	names := fieldNames(entity.Fields)
	assert.Contains(t, names, "Id")
	assert.Contains(t, names, "IsDeleted")
	assert.NotContains(t, names, "Version")
}

func TestApplyInterfaceFieldsAssignsIncreasingSortOrder(t *testing.T) {
	entity := customerDefinition()

	added := ApplyInterfaceFields(entity, InterfaceArchive)

	require.Len(t, added, 2)
	assert.Equal(t, 2, added[0].SortOrder)
	assert.Equal(t, 3, added[1].SortOrder)
}

func TestMarkerInterfaceName(t *testing.T) {
	assert.Equal(t, "Entity", MarkerInterfaceName(InterfaceBase))
	assert.Equal(t, "TimeVersioned", MarkerInterfaceName(InterfaceTimeVersion))
	assert.Empty(t, MarkerInterfaceName("bogus"))
}

func TestActiveFieldsExcludesDeletedAndSorts(t *testing.T) {
	entity := customerDefinition()
	entity.Fields = append(entity.Fields,
		FieldMetadata{PropertyName: "Dropped", DataType: FieldTypeString, SortOrder: 5, IsDeleted: true},
		FieldMetadata{PropertyName: "AAA", DataType: FieldTypeString, SortOrder: 0},
	)

	active := entity.ActiveFields()

	assert.Equal(t, []string{"AAA", "CompanyName", "Revenue"}, fieldNames(active))
}
