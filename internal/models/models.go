// Package models contains the Basis meta-schema data structures.
// These models are the canonical record of runtime-defined entities:
// definitions, fields, templates, bindings, permissions and menu nodes.
package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entity lifecycle status.
const (
	EntityStatusDraft     = "draft"
	EntityStatusPublished = "published"
	EntityStatusArchived  = "archived"
)

// Entity source.
const (
	EntitySourceSystem = "system"
	EntitySourceCustom = "custom"
)

// Field data types.
const (
	FieldTypeString    = "string"
	FieldTypeText      = "text"
	FieldTypeBoolean   = "boolean"
	FieldTypeDate      = "date"
	FieldTypeDateTime  = "datetime"
	FieldTypeDecimal   = "decimal"
	FieldTypeInt32     = "int32"
	FieldTypeInt64     = "int64"
	FieldTypeGuid      = "guid"
	FieldTypeEntityRef = "entityref"
)

// Field origin.
const (
	FieldSourceInterface = "interface"
	FieldSourceCustom    = "custom"
)

// Capability interface types.
const (
	InterfaceBase         = "base"
	InterfaceArchive      = "archive"
	InterfaceAudit        = "audit"
	InterfaceVersion      = "version"
	InterfaceTimeVersion  = "timeversion"
	InterfaceOrganization = "organization"
)

// Form template usage types.
const (
	UsageDetail   = "detail"
	UsageEdit     = "edit"
	UsageList     = "list"
	UsageCombined = "combined"
)

// SystemUserID is the sentinel owner of generated artifacts.
const SystemUserID = "__system__"

// EntityDefinition describes a runtime-defined business object type.
// FullTypeName is unique and stable once the definition is published.
type EntityDefinition struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Namespace     string    `json:"namespace" gorm:"not null;size:200"`
	EntityName    string    `json:"entity_name" gorm:"not null;size:100"`
	FullTypeName  string    `json:"full_type_name" gorm:"uniqueIndex;not null;size:300"`
	EntityRoute   string    `json:"entity_route" gorm:"size:200;index"`
	Status        string    `json:"status" gorm:"not null;size:20;default:'draft'"`
	Source        string    `json:"source" gorm:"not null;size:20;default:'custom'"`
	StructureType string    `json:"structure_type" gorm:"size:20;default:'single'"`
	Category      string    `json:"category" gorm:"size:50;index"`
	DisplayName   JSONB     `json:"display_name" gorm:"type:jsonb"`
	Description   JSONB     `json:"description" gorm:"type:jsonb"`
	Icon          string    `json:"icon" gorm:"size:50"`
	SortOrder     int       `json:"sort_order" gorm:"default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	Fields     []FieldMetadata   `json:"fields,omitempty" gorm:"foreignKey:EntityDefinitionID;constraint:OnDelete:CASCADE"`
	Interfaces []EntityInterface `json:"interfaces,omitempty" gorm:"foreignKey:EntityDefinitionID;constraint:OnDelete:CASCADE"`
}

func (e *EntityDefinition) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.FullTypeName == "" {
		e.FullTypeName = e.Namespace + "." + e.EntityName
	}
	return nil
}

// ActiveFields returns the non-deleted fields in layout order.
func (e *EntityDefinition) ActiveFields() []FieldMetadata {
	fields := make([]FieldMetadata, 0, len(e.Fields))
	for _, f := range e.Fields {
		if !f.IsDeleted {
			fields = append(fields, f)
		}
	}
	SortFields(fields)
	return fields
}

// EnabledInterfaces returns the interface types currently enabled, sorted.
func (e *EntityDefinition) EnabledInterfaces() []string {
	var types []string
	for _, i := range e.Interfaces {
		if i.IsEnabled {
			types = append(types, i.InterfaceType)
		}
	}
	sort.Strings(types)
	return types
}

// SortFields orders fields by SortOrder, then PropertyName for stability.
func SortFields(fields []FieldMetadata) {
	sort.SliceStable(fields, func(a, b int) bool {
		if fields[a].SortOrder != fields[b].SortOrder {
			return fields[a].SortOrder < fields[b].SortOrder
		}
		return strings.ToLower(fields[a].PropertyName) < strings.ToLower(fields[b].PropertyName)
	})
}

// FieldMetadata describes one property of an entity definition.
// DisplayNameKey and DisplayName are mutually exclusive.
type FieldMetadata struct {
	ID                 uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	EntityDefinitionID uuid.UUID  `json:"entity_definition_id" gorm:"type:uuid;index;not null"`
	PropertyName       string     `json:"property_name" gorm:"not null;size:100"`
	DataType           string     `json:"data_type" gorm:"not null;size:20"`
	IsRequired         bool       `json:"is_required" gorm:"default:false"`
	IsRequiredSet      bool       `json:"is_required_set" gorm:"default:false"`
	SortOrder          int        `json:"sort_order" gorm:"default:0"`
	Source             string     `json:"source" gorm:"not null;size:20;default:'custom'"`
	InterfaceType      string     `json:"interface_type" gorm:"size:20"`
	DisplayNameKey     string     `json:"display_name_key" gorm:"size:200"`
	DisplayName        JSONB      `json:"display_name" gorm:"type:jsonb"`
	Length             *int       `json:"length"`
	Precision          *int       `json:"precision"`
	Scale              *int       `json:"scale"`
	DefaultValue       string     `json:"default_value" gorm:"size:200"`
	IsEntityRef        bool       `json:"is_entity_ref" gorm:"default:false"`
	ReferencedEntityID *uuid.UUID `json:"referenced_entity_id" gorm:"type:uuid"`
	ReferenceTable     string     `json:"reference_table" gorm:"size:100"`
	IsPrimaryKey       bool       `json:"is_primary_key" gorm:"default:false"`
	IsDeleted          bool       `json:"is_deleted" gorm:"default:false"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Relations
	EntityDefinition *EntityDefinition `json:"-" gorm:"foreignKey:EntityDefinitionID"`
}

func (f *FieldMetadata) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// EntityInterface records a capability interface selected for an entity.
type EntityInterface struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	EntityDefinitionID uuid.UUID `json:"entity_definition_id" gorm:"type:uuid;index;not null"`
	InterfaceType      string    `json:"interface_type" gorm:"not null;size:20"`
	IsEnabled          bool      `json:"is_enabled" gorm:"default:true"`
	CreatedAt          time.Time `json:"created_at"`
}

func (i *EntityInterface) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// FormTemplate is a layout document for rendering an entity in one usage.
type FormTemplate struct {
	ID              uuid.UUID   `json:"id" gorm:"type:uuid;primary_key"`
	Name            string      `json:"name" gorm:"not null;size:200"`
	EntityType      string      `json:"entity_type" gorm:"size:200;index"`
	UsageType       string      `json:"usage_type" gorm:"not null;size:20;index"`
	LayoutJSON      string      `json:"layout_json" gorm:"type:text"`
	IsSystemDefault bool        `json:"is_system_default" gorm:"default:false"`
	UserID          string      `json:"user_id" gorm:"size:100"`
	Description     string      `json:"description"`
	Tags            StringArray `json:"tags" gorm:"type:text"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (t *FormTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TemplateBinding points (EntityType, UsageType) at the template that renders it.
type TemplateBinding struct {
	ID                   uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	EntityType           string    `json:"entity_type" gorm:"not null;size:200;index:idx_binding_entity_usage"`
	UsageType            string    `json:"usage_type" gorm:"not null;size:20;index:idx_binding_entity_usage"`
	TemplateID           uuid.UUID `json:"template_id" gorm:"type:uuid;not null"`
	IsSystem             bool      `json:"is_system" gorm:"default:false"`
	RequiredFunctionCode string    `json:"required_function_code" gorm:"size:200"`
	UpdatedBy            string    `json:"updated_by" gorm:"size:100"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Relations
	Template *FormTemplate `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
}

func (b *TemplateBinding) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TemplateStateBinding points (EntityType, ViewState) at a template.
// View states are the fallback consulted when no explicit usage binding exists.
type TemplateStateBinding struct {
	ID                   uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	EntityType           string    `json:"entity_type" gorm:"not null;size:200;index:idx_state_binding_entity"`
	ViewState            string    `json:"view_state" gorm:"not null;size:50;index:idx_state_binding_entity"`
	TemplateID           uuid.UUID `json:"template_id" gorm:"type:uuid;not null"`
	IsSystem             bool      `json:"is_system" gorm:"default:false"`
	IsDefault            bool      `json:"is_default" gorm:"default:false"`
	RequiredFunctionCode string    `json:"required_function_code" gorm:"size:200"`
	UpdatedBy            string    `json:"updated_by" gorm:"size:100"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Relations
	Template *FormTemplate `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
}

func (b *TemplateStateBinding) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// FieldPermission grants a role read/write access to one field of an entity.
// Natural key: (RoleID, EntityType, FieldName).
type FieldPermission struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	RoleID     uuid.UUID `json:"role_id" gorm:"type:uuid;not null;index:idx_field_perm_role_entity"`
	EntityType string    `json:"entity_type" gorm:"not null;size:200;index:idx_field_perm_role_entity"`
	FieldName  string    `json:"field_name" gorm:"not null;size:100"`
	CanRead    bool      `json:"can_read" gorm:"default:false"`
	CanWrite   bool      `json:"can_write" gorm:"default:false"`
	Remarks    string    `json:"remarks"`
	CreatedBy  string    `json:"created_by" gorm:"size:100"`
	UpdatedBy  string    `json:"updated_by" gorm:"size:100"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *FieldPermission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// RoleProfile is a named role.
type RoleProfile struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Code      string    `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Name      string    `json:"name" gorm:"not null;size:100"`
	IsSystem  bool      `json:"is_system" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *RoleProfile) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RoleAssignment links a user to a role, optionally scoped to an organization
// and a validity window.
type RoleAssignment struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	UserID         string     `json:"user_id" gorm:"not null;size:100;index"`
	RoleID         uuid.UUID  `json:"role_id" gorm:"type:uuid;not null;index"`
	OrganizationID *uuid.UUID `json:"organization_id" gorm:"type:uuid"`
	ValidFrom      *time.Time `json:"valid_from"`
	ValidTo        *time.Time `json:"valid_to"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (a *RoleAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// FunctionNode is a node in the navigation/permission tree.
// Code is a dotted hierarchical identifier and uniquely determines tree position.
type FunctionNode struct {
	ID                     uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	ParentID               *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	Code                   string     `json:"code" gorm:"uniqueIndex;not null;size:200"`
	Name                   string     `json:"name" gorm:"not null;size:200"`
	DisplayName            JSONB      `json:"display_name" gorm:"type:jsonb"`
	DisplayNameKey         string     `json:"display_name_key" gorm:"size:200"`
	Route                  string     `json:"route" gorm:"size:255"`
	Icon                   string     `json:"icon" gorm:"size:50"`
	IsMenu                 bool       `json:"is_menu" gorm:"default:false"`
	SortOrder              int        `json:"sort_order" gorm:"default:0"`
	TemplateStateBindingID *uuid.UUID `json:"template_state_binding_id" gorm:"type:uuid"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`

	// Relations
	Parent   *FunctionNode  `json:"-" gorm:"foreignKey:ParentID"`
	Children []FunctionNode `json:"children,omitempty" gorm:"foreignKey:ParentID"`
}

func (n *FunctionNode) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// RoleFunctionPermission grants a role access to a function node.
type RoleFunctionPermission struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	RoleID         uuid.UUID `json:"role_id" gorm:"type:uuid;not null;index"`
	FunctionNodeID uuid.UUID `json:"function_node_id" gorm:"type:uuid;not null;index"`
	CreatedAt      time.Time `json:"created_at"`
}

func (p *RoleFunctionPermission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EntityDomain is the business domain an entity belongs to (CRM, SCM, ...).
type EntityDomain struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Code      string    `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Name      JSONB     `json:"name" gorm:"type:jsonb"`
	Icon      string    `json:"icon" gorm:"size:50"`
	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *EntityDomain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// UserAccount is a login principal. The password is stored as a bcrypt hash.
type UserAccount struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string    `json:"-" gorm:"not null;size:100"`
	DisplayName  string    `json:"display_name" gorm:"size:100"`
	Lang         string    `json:"lang" gorm:"size:10"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *UserAccount) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// LocalizationResource stores one translation key with its language map.
type LocalizationResource struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Key          string    `json:"key" gorm:"uniqueIndex;not null;size:200"`
	Translations JSONB     `json:"translations" gorm:"type:jsonb"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r *LocalizationResource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
