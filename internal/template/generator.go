// Package template generates default form layouts for entities, keeps them
// current as definitions change, and resolves which template renders a given
// entity and usage.
package template

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/aethra/basis/internal/i18n"
	"github.com/aethra/basis/internal/models"
)

// Layout is the document stored in FormTemplate.LayoutJSON.
type Layout struct {
	Mode  string            `json:"mode"`
	Items map[string]Widget `json:"items"`
}

// Widget is one rendered control in a layout.
type Widget struct {
	ID                 string     `json:"id"`
	Type               string     `json:"type"`
	Label              string     `json:"label"`
	DataField          string     `json:"dataField"`
	Order              int        `json:"order"`
	Required           *bool      `json:"required,omitempty"`
	NewLine            bool       `json:"newLine"`
	ShowTime           *bool      `json:"showTime,omitempty"`
	Length             *int       `json:"length,omitempty"`
	ReferencedEntityID *uuid.UUID `json:"referencedEntityId,omitempty"`
	Visible            bool       `json:"visible"`
}

// Generate builds the default template for one entity and usage. List layouts
// render every field as a read-only label in table mode; detail and edit
// layouts render editable widgets in flow mode.
func Generate(entity *models.EntityDefinition, usageType string) *models.FormTemplate {
	layout := Layout{
		Mode:  "flow",
		Items: map[string]Widget{},
	}
	if usageType == models.UsageList {
		layout.Mode = "table"
	}

	for order, f := range entity.ActiveFields() {
		layout.Items[f.PropertyName] = widgetFor(f, usageType, order)
	}

	raw, _ := json.Marshal(layout)
	return &models.FormTemplate{
		Name:            entity.EntityName + " " + titleCase(usageType),
		EntityType:      entity.FullTypeName,
		UsageType:       usageType,
		LayoutJSON:      string(raw),
		IsSystemDefault: true,
		UserID:          models.SystemUserID,
	}
}

func widgetFor(f models.FieldMetadata, usageType string, order int) Widget {
	w := Widget{
		ID:        "fld_" + strings.ToLower(f.PropertyName),
		Label:     labelFor(f),
		DataField: f.PropertyName,
		Order:     order,
		NewLine:   true,
		Visible:   true,
	}
	if f.IsRequiredSet {
		required := f.IsRequired
		w.Required = &required
	}

	if usageType == models.UsageList {
		w.Type = "label"
		w.NewLine = false
		return w
	}

	switch strings.ToLower(f.DataType) {
	case models.FieldTypeString:
		w.Type = "textbox"
	case models.FieldTypeText:
		w.Type = "textarea"
		w.Length = f.Length
	case models.FieldTypeBoolean:
		w.Type = "checkbox"
	case models.FieldTypeDate:
		w.Type = "calendar"
		showTime := false
		w.ShowTime = &showTime
	case models.FieldTypeDateTime:
		w.Type = "calendar"
		showTime := true
		w.ShowTime = &showTime
	case models.FieldTypeDecimal, models.FieldTypeInt32, models.FieldTypeInt64:
		w.Type = "number"
	case models.FieldTypeEntityRef:
		w.Type = "select"
		w.ReferencedEntityID = f.ReferencedEntityID
	default:
		w.Type = "textbox"
	}
	return w
}

func labelFor(f models.FieldMetadata) string {
	if f.DisplayNameKey != "" {
		return f.DisplayNameKey
	}
	if label := i18n.Resolve(f.DisplayName.Strings(), ""); label != "" {
		return label
	}
	return f.PropertyName
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseLayout decodes a stored layout document. Malformed or blank documents
// decode to an empty layout rather than erroring.
func ParseLayout(layoutJSON string) Layout {
	var layout Layout
	if strings.TrimSpace(layoutJSON) == "" {
		return layout
	}
	if err := json.Unmarshal([]byte(layoutJSON), &layout); err != nil {
		return Layout{}
	}
	return layout
}

// IsEmptyLayout reports whether a stored layout has no renderable items.
func IsEmptyLayout(layoutJSON string) bool {
	return len(ParseLayout(layoutJSON).Items) == 0
}
