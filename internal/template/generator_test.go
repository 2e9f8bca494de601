package template

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aethra/basis/internal/models"
)

func widgetEntity() *models.EntityDefinition {
	length := 2000
	refID := uuid.New()
	return &models.EntityDefinition{
		Namespace:    "CRM",
		EntityName:   "Ticket",
		FullTypeName: "CRM.Ticket",
		Fields: []models.FieldMetadata{
			{PropertyName: "Subject", DataType: models.FieldTypeString, IsRequired: true, IsRequiredSet: true, SortOrder: 0},
			{PropertyName: "Body", DataType: models.FieldTypeText, Length: &length, SortOrder: 1},
			{PropertyName: "Open", DataType: models.FieldTypeBoolean, SortOrder: 2},
			{PropertyName: "DueDate", DataType: models.FieldTypeDate, SortOrder: 3},
			{PropertyName: "EscalatedAt", DataType: models.FieldTypeDateTime, SortOrder: 4},
			{PropertyName: "Effort", DataType: models.FieldTypeDecimal, SortOrder: 5},
			{PropertyName: "OwnerId", DataType: models.FieldTypeEntityRef, IsEntityRef: true, ReferencedEntityID: &refID, SortOrder: 6},
		},
	}
}

func TestGenerateMapsWidgets(t *testing.T) {
	tpl := Generate(widgetEntity(), models.UsageDetail)
	layout := ParseLayout(tpl.LayoutJSON)

	require.Equal(t, "flow", layout.Mode)
	require.Len(t, layout.Items, 7)

	assert.Equal(t, "textbox", layout.Items["Subject"].Type)
	assert.Equal(t, "textarea", layout.Items["Body"].Type)
	assert.Equal(t, 2000, *layout.Items["Body"].Length)
	assert.Equal(t, "checkbox", layout.Items["Open"].Type)

	assert.Equal(t, "calendar", layout.Items["DueDate"].Type)
	require.NotNil(t, layout.Items["DueDate"].ShowTime)
	assert.False(t, *layout.Items["DueDate"].ShowTime)

	assert.Equal(t, "calendar", layout.Items["EscalatedAt"].Type)
	require.NotNil(t, layout.Items["EscalatedAt"].ShowTime)
	assert.True(t, *layout.Items["EscalatedAt"].ShowTime)

	assert.Equal(t, "number", layout.Items["Effort"].Type)
	assert.Equal(t, "select", layout.Items["OwnerId"].Type)
	assert.NotNil(t, layout.Items["OwnerId"].ReferencedEntityID)
}

func TestGenerateListUsesLabels(t *testing.T) {
	tpl := Generate(widgetEntity(), models.UsageList)
	layout := ParseLayout(tpl.LayoutJSON)

	assert.Equal(t, "table", layout.Mode)
	for name, widget := range layout.Items {
		assert.Equal(t, "label", widget.Type, name)
		assert.False(t, widget.NewLine, name)
	}
}

func TestGenerateRequiredMirrorsExplicitFlag(t *testing.T) {
	tpl := Generate(widgetEntity(), models.UsageEdit)
	layout := ParseLayout(tpl.LayoutJSON)

	require.NotNil(t, layout.Items["Subject"].Required)
	assert.True(t, *layout.Items["Subject"].Required)
	assert.Nil(t, layout.Items["Body"].Required)
}

func TestGenerateOwnerAndDefaults(t *testing.T) {
	tpl := Generate(widgetEntity(), models.UsageDetail)

	assert.Equal(t, models.SystemUserID, tpl.UserID)
	assert.True(t, tpl.IsSystemDefault)
	assert.Equal(t, "CRM.Ticket", tpl.EntityType)
	assert.Equal(t, models.UsageDetail, tpl.UsageType)
}

func TestParseLayoutDegradesGracefully(t *testing.T) {
	assert.Empty(t, ParseLayout("").Items)
	assert.Empty(t, ParseLayout("not json").Items)
	assert.True(t, IsEmptyLayout(`{"mode":"flow","items":{}}`))
	assert.True(t, IsEmptyLayout("[]"))
	assert.False(t, IsEmptyLayout(`{"mode":"flow","items":{"A":{"id":"a","type":"textbox"}}}`))
}
