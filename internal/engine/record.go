package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/aethra/basis/internal/errors"
	"github.com/aethra/basis/internal/generator"
)

// Record is one instance of a loaded entity type: property name to value,
// every property present with its typed zero value until assigned.
type Record map[string]interface{}

// CreateEntityInstance default-constructs an instance of a loaded type.
// Fails with TypeNotLoadedError when the type was never compiled.
func (s *DynamicEntityService) CreateEntityInstance(fullTypeName string) (Record, error) {
	rt := s.GetEntityType(fullTypeName)
	if rt == nil {
		return nil, errors.NewTypeNotLoadedError(fullTypeName)
	}

	record := make(Record, len(rt.Properties))
	for _, prop := range rt.Properties {
		record[prop.Name] = zeroValueFor(prop)
	}
	return record, nil
}

// ValidateRecord checks a record against its type's shape: no unknown
// properties, no nil values on non-pointer properties.
func (s *DynamicEntityService) ValidateRecord(fullTypeName string, record Record) error {
	rt := s.GetEntityType(fullTypeName)
	if rt == nil {
		return errors.NewTypeNotLoadedError(fullTypeName)
	}

	known := make(map[string]generator.PropertyInfo, len(rt.Properties))
	for _, prop := range rt.Properties {
		known[prop.Name] = prop
	}

	for name, value := range record {
		prop, ok := known[name]
		if !ok {
			return errors.NewValidationError(name, "unknown property "+name)
		}
		if value == nil && !prop.IsPointer {
			return errors.NewValidationError(name, "property "+name+" cannot be null")
		}
	}
	return nil
}

// zeroValueFor maps a property's declared type to its zero value. Pointer
// properties start nil.
func zeroValueFor(prop generator.PropertyInfo) interface{} {
	if prop.IsPointer {
		return nil
	}
	switch prop.TypeName {
	case "string":
		return ""
	case "bool":
		return false
	case "int32":
		return int32(0)
	case "int64":
		return int64(0)
	case "float64":
		return float64(0)
	case "time.Time":
		return time.Time{}
	case "uuid.UUID":
		return uuid.Nil
	default:
		return nil
	}
}
