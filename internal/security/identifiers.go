// Package security provides identifier validation for Basis.
// Property names flow from user metadata into generated source, and their
// lowered forms become column names, so both are validated strictly before
// any generation happens.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidPropertyNameRegex matches exported Go identifiers: an upper-case letter
// followed by letters, digits or underscores.
var ValidPropertyNameRegex = regexp.MustCompile(`^[A-Z][A-Za-z0-9_]*$`)

// ValidIdentifierRegex matches valid SQL identifiers
// Only allows lowercase letters, digits, and underscores, starting with a letter or underscore
var ValidIdentifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// goReservedWords contains Go keywords and predeclared identifiers that must
// never appear as generated property names, even though the exported-case rule
// already excludes most of them.
var goReservedWords = map[string]struct{}{
	"break": {}, "case": {}, "chan": {}, "const": {}, "continue": {},
	"default": {}, "defer": {}, "else": {}, "fallthrough": {}, "for": {},
	"func": {}, "go": {}, "goto": {}, "if": {}, "import": {}, "interface": {},
	"map": {}, "package": {}, "range": {}, "return": {}, "select": {},
	"struct": {}, "switch": {}, "type": {}, "var": {},
	"any": {}, "bool": {}, "byte": {}, "error": {}, "float32": {}, "float64": {},
	"int": {}, "int32": {}, "int64": {}, "rune": {}, "string": {}, "uint": {},
}

var sqlReservedWords = map[string]struct{}{
	"select": {}, "insert": {}, "update": {}, "delete": {}, "drop": {},
	"create": {}, "alter": {}, "table": {}, "index": {}, "where": {},
	"from": {}, "join": {}, "union": {}, "order": {}, "group": {},
	"user": {}, "grant": {}, "revoke": {},
}

// ValidatePropertyName checks that a field property name is safe to emit as a
// struct field in generated source.
func ValidatePropertyName(name string) error {
	if name == "" {
		return fmt.Errorf("property name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("property name too long (max 100 characters)")
	}
	if !ValidPropertyNameRegex.MatchString(name) {
		return fmt.Errorf("invalid property name %q: must be an exported identifier (letters, digits, underscores, starting with an upper-case letter)", name)
	}
	if _, reserved := goReservedWords[strings.ToLower(name)]; reserved {
		return fmt.Errorf("property name %q collides with a reserved identifier", name)
	}
	return nil
}

// ValidateIdentifier checks that a string is a valid SQL identifier. Column
// names derived from property names pass through here before they reach a
// gorm tag.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("identifier too long (max 63 characters)")
	}
	if !ValidIdentifierRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier: must contain only lowercase letters, numbers, and underscores, starting with a letter or underscore")
	}
	if _, reserved := sqlReservedWords[name]; reserved {
		return fmt.Errorf("'%s' is a reserved SQL keyword", name)
	}
	return nil
}
