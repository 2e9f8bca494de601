package models

// InterfaceFieldTemplate is the canonical definition of one field contributed
// by a capability interface.
type InterfaceFieldTemplate struct {
	PropertyName   string
	DataType       string
	IsRequired     bool
	IsPrimaryKey   bool
	IsEntityRef    bool
	ReferenceTable string
	Length         *int
	DefaultValue   string
}

func intptr(v int) *int { return &v }

// interfaceFields maps every capability interface to its canonical field set.
// The order is the layout order the fields are inserted with.
var interfaceFields = map[string][]InterfaceFieldTemplate{
	InterfaceBase: {
		{PropertyName: "Id", DataType: FieldTypeGuid, IsRequired: true, IsPrimaryKey: true},
		{PropertyName: "IsDeleted", DataType: FieldTypeBoolean, IsRequired: true, DefaultValue: "false"},
		{PropertyName: "DeletedAt", DataType: FieldTypeDateTime},
		{PropertyName: "DeletedBy", DataType: FieldTypeString, Length: intptr(100)},
	},
	InterfaceArchive: {
		{PropertyName: "Code", DataType: FieldTypeString, IsRequired: true, Length: intptr(50)},
		{PropertyName: "Name", DataType: FieldTypeString, IsRequired: true, Length: intptr(255)},
	},
	InterfaceAudit: {
		{PropertyName: "CreatedAt", DataType: FieldTypeDateTime, IsRequired: true},
		{PropertyName: "CreatedBy", DataType: FieldTypeString, Length: intptr(100)},
		{PropertyName: "UpdatedAt", DataType: FieldTypeDateTime, IsRequired: true},
		{PropertyName: "UpdatedBy", DataType: FieldTypeString, Length: intptr(100)},
	},
	InterfaceVersion: {
		{PropertyName: "Version", DataType: FieldTypeInt32, IsRequired: true, DefaultValue: "1"},
	},
	InterfaceTimeVersion: {
		{PropertyName: "ValidFrom", DataType: FieldTypeDateTime, IsRequired: true},
		{PropertyName: "ValidTo", DataType: FieldTypeDateTime, IsRequired: true},
		{PropertyName: "VersionNo", DataType: FieldTypeInt32, IsRequired: true, DefaultValue: "1"},
	},
	InterfaceOrganization: {
		{PropertyName: "OrganizationId", DataType: FieldTypeGuid, IsRequired: true, IsEntityRef: true, ReferenceTable: "OrganizationNodes"},
		{PropertyName: "OrganizationCode", DataType: FieldTypeString, Length: intptr(50)},
		{PropertyName: "OrganizationName", DataType: FieldTypeString, Length: intptr(255)},
		{PropertyName: "OrganizationPathCode", DataType: FieldTypeString, Length: intptr(255)},
	},
}

// InterfaceFieldsFor returns the canonical field templates for an interface
// type, or nil for an unknown interface.
func InterfaceFieldsFor(interfaceType string) []InterfaceFieldTemplate {
	templates := interfaceFields[interfaceType]
	result := make([]InterfaceFieldTemplate, len(templates))
	copy(result, templates)
	return result
}

// MarkerInterfaceName maps an interface type to the marker interface declared
// in generated source.
func MarkerInterfaceName(interfaceType string) string {
	switch interfaceType {
	case InterfaceBase:
		return "Entity"
	case InterfaceArchive:
		return "Archive"
	case InterfaceAudit:
		return "Auditable"
	case InterfaceVersion:
		return "Versioned"
	case InterfaceTimeVersion:
		return "TimeVersioned"
	case InterfaceOrganization:
		return "Organizational"
	default:
		return ""
	}
}

// ApplyInterfaceFields adds the interface's fields to the definition in memory.
// Fields already present by property name are left untouched; contributed
// fields are tagged with Source=interface so they can be removed symmetrically.
func ApplyInterfaceFields(entity *EntityDefinition, interfaceType string) []FieldMetadata {
	existing := make(map[string]struct{}, len(entity.Fields))
	for _, f := range entity.Fields {
		if !f.IsDeleted {
			existing[f.PropertyName] = struct{}{}
		}
	}

	nextOrder := 0
	for _, f := range entity.Fields {
		if f.SortOrder >= nextOrder {
			nextOrder = f.SortOrder + 1
		}
	}

	var added []FieldMetadata
	for _, tpl := range InterfaceFieldsFor(interfaceType) {
		if _, ok := existing[tpl.PropertyName]; ok {
			continue
		}
		field := FieldMetadata{
			EntityDefinitionID: entity.ID,
			PropertyName:       tpl.PropertyName,
			DataType:           tpl.DataType,
			IsRequired:         tpl.IsRequired,
			IsRequiredSet:      tpl.IsRequired,
			SortOrder:          nextOrder,
			Source:             FieldSourceInterface,
			InterfaceType:      interfaceType,
			Length:             tpl.Length,
			DefaultValue:       tpl.DefaultValue,
			IsEntityRef:        tpl.IsEntityRef,
			ReferenceTable:     tpl.ReferenceTable,
			IsPrimaryKey:       tpl.IsPrimaryKey,
		}
		nextOrder++
		entity.Fields = append(entity.Fields, field)
		added = append(added, field)
	}
	return added
}

// RemoveInterfaceFields removes exactly the fields the interface contributed,
// leaving custom fields and other interfaces' fields untouched. Returns the
// removed property names.
func RemoveInterfaceFields(entity *EntityDefinition, interfaceType string) []string {
	var removed []string
	kept := entity.Fields[:0]
	for _, f := range entity.Fields {
		if f.Source == FieldSourceInterface && f.InterfaceType == interfaceType {
			removed = append(removed, f.PropertyName)
			continue
		}
		kept = append(kept, f)
	}
	entity.Fields = kept
	return removed
}
