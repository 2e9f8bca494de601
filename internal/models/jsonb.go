// Package models - JSONB type for PostgreSQL
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONB is a custom type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported JSONB source type")
	}

	if len(raw) == 0 {
		*j = make(JSONB)
		return nil
	}

	result := make(JSONB)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*j = result
	return nil
}

// Strings projects the map to string values, dropping non-string entries.
func (j JSONB) Strings() map[string]string {
	if j == nil {
		return nil
	}
	result := make(map[string]string, len(j))
	for k, v := range j {
		if s, ok := v.(string); ok {
			result[k] = s
		}
	}
	return result
}

// JSONBFromStrings builds a JSONB map from a string map.
func JSONBFromStrings(m map[string]string) JSONB {
	if m == nil {
		return nil
	}
	result := make(JSONB, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

// StringArray is a custom type stored as a JSON-encoded text column
type StringArray []string

// Value implements the driver.Valuer interface
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported StringArray source type")
	}

	if len(raw) == 0 {
		*s = make(StringArray, 0)
		return nil
	}

	var result []string
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*s = result
	return nil
}
