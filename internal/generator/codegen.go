// Package generator turns entity definitions into Go source and loads that
// source into runtime type modules.
package generator

import (
	"fmt"
	"strings"

	"github.com/aethra/basis/internal/errors"
	"github.com/aethra/basis/internal/models"
	"github.com/aethra/basis/internal/security"
)

// GeneratedPackageName is the package every generated source file declares.
const GeneratedPackageName = "dynamic"

// GenerateEntityClass renders one entity definition as a Go struct declaration
// with marker-interface assertions for its enabled interfaces. Generation is
// deterministic for a given definition and never emits partial source: the
// first invalid field aborts with a GenerationError.
func GenerateEntityClass(def *models.EntityDefinition) (string, error) {
	if def == nil {
		return "", errors.NewGenerationError("", "entity definition is nil")
	}
	if err := security.ValidatePropertyName(def.EntityName); err != nil {
		return "", errors.NewGenerationError(def.EntityName, fmt.Sprintf("invalid entity name: %v", err))
	}

	fields := def.ActiveFields()

	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated for %s. DO NOT EDIT.\n", def.FullTypeName)
	fmt.Fprintf(&b, "package %s\n\n", GeneratedPackageName)

	writeImports(&b, fields)

	fmt.Fprintf(&b, "// %s is the runtime shape of %s.\n", def.EntityName, def.FullTypeName)
	fmt.Fprintf(&b, "type %s struct {\n", def.EntityName)
	for _, f := range fields {
		if err := security.ValidatePropertyName(f.PropertyName); err != nil {
			return "", errors.NewGenerationError(f.PropertyName, err.Error())
		}
		// The column name in the gorm tag is the lowered property name and
		// ends up in DDL, so it is held to SQL identifier rules as well.
		if err := security.ValidateIdentifier(strings.ToLower(f.PropertyName)); err != nil {
			return "", errors.NewGenerationError(f.PropertyName, fmt.Sprintf("invalid column name: %v", err))
		}
		goType, err := goTypeFor(f)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\t%s %s `%s`\n", f.PropertyName, goType, fieldTag(f))
	}
	b.WriteString("}\n")

	for _, ifaceType := range def.EnabledInterfaces() {
		marker := models.MarkerInterfaceName(ifaceType)
		if marker == "" {
			return "", errors.NewGenerationError("", fmt.Sprintf("unknown interface type %q", ifaceType))
		}
		fmt.Fprintf(&b, "\nvar _ %s = (*%s)(nil)\n", marker, def.EntityName)
	}

	return b.String(), nil
}

// GenerateInterfaces renders the static marker interface declarations that
// generated structs assert against. Emitted once per compile batch.
func GenerateInterfaces() string {
	var b strings.Builder
	b.WriteString("// Code generated marker interfaces. DO NOT EDIT.\n")
	fmt.Fprintf(&b, "package %s\n\n", GeneratedPackageName)
	b.WriteString(`// Entity marks a type carrying identity and soft deletion.
type Entity interface{}

// Archive marks a type carrying code and name master-data fields.
type Archive interface{}

// Auditable marks a type carrying creation and update audit fields.
type Auditable interface{}

// Versioned marks a type carrying an optimistic concurrency version.
type Versioned interface{}

// TimeVersioned marks a type carrying a temporal validity window.
type TimeVersioned interface{}

// Organizational marks a type scoped to an organization node.
type Organizational interface{}
`)
	return b.String()
}

func writeImports(b *strings.Builder, fields []models.FieldMetadata) {
	needsTime := false
	needsUUID := false
	for _, f := range fields {
		switch strings.ToLower(f.DataType) {
		case models.FieldTypeDate, models.FieldTypeDateTime:
			needsTime = true
		case models.FieldTypeGuid, models.FieldTypeEntityRef:
			needsUUID = true
		}
	}
	if !needsTime && !needsUUID {
		return
	}

	b.WriteString("import (\n")
	if needsTime {
		b.WriteString("\t\"time\"\n")
	}
	if needsUUID {
		if needsTime {
			b.WriteString("\n")
		}
		b.WriteString("\t\"github.com/google/uuid\"\n")
	}
	b.WriteString(")\n\n")
}

func goTypeFor(f models.FieldMetadata) (string, error) {
	var base string
	switch strings.ToLower(f.DataType) {
	case models.FieldTypeString, models.FieldTypeText:
		base = "string"
	case models.FieldTypeBoolean:
		base = "bool"
	case models.FieldTypeDate, models.FieldTypeDateTime:
		base = "time.Time"
	case models.FieldTypeDecimal:
		base = "float64"
	case models.FieldTypeInt32:
		base = "int32"
	case models.FieldTypeInt64:
		base = "int64"
	case models.FieldTypeGuid, models.FieldTypeEntityRef:
		base = "uuid.UUID"
	default:
		return "", errors.NewGenerationError(f.PropertyName, fmt.Sprintf("unsupported data type %q", f.DataType))
	}

	if !f.IsRequired && !f.IsPrimaryKey {
		return "*" + base, nil
	}
	return base, nil
}

func fieldTag(f models.FieldMetadata) string {
	jsonName := lowerFirst(f.PropertyName)

	var gormParts []string
	gormParts = append(gormParts, "column:"+strings.ToLower(f.PropertyName))
	if f.IsPrimaryKey {
		gormParts = append(gormParts, "primaryKey")
	}
	if f.IsRequired {
		gormParts = append(gormParts, "not null")
	}
	if f.Length != nil && *f.Length > 0 {
		gormParts = append(gormParts, fmt.Sprintf("size:%d", *f.Length))
	}

	return fmt.Sprintf(`json:"%s" gorm:"%s"`, jsonName, strings.Join(gormParts, ";"))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
