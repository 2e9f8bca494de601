package generator

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"sort"
	"strings"
	"time"
)

// Diagnostic is one structured message from a compile or syntax check.
type Diagnostic struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
}

// PropertyInfo describes one field of a runtime type.
type PropertyInfo struct {
	Name      string `json:"name"`
	TypeName  string `json:"typeName"`
	IsPointer bool   `json:"isPointer"`
	Tag       string `json:"tag,omitempty"`
}

// RuntimeType is the loaded shape of one generated entity struct.
type RuntimeType struct {
	Name       string         `json:"name"`
	FullName   string         `json:"fullName"`
	Properties []PropertyInfo `json:"properties"`
	Interfaces []string       `json:"interfaces"`
}

// Module is one isolated unit of loaded types. Dropping the last reference to
// a Module releases everything it carries; nothing is shared between modules.
type Module struct {
	Name      string
	CreatedAt time.Time
	Types     map[string]*RuntimeType
}

// TypeNames returns the full names of the module's types, sorted.
func (m *Module) TypeNames() []string {
	names := make([]string, 0, len(m.Types))
	for name := range m.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CompilationResult reports the outcome of one compile batch. Diagnostics are
// data, not errors: a failed compile returns Success=false with the reasons.
type CompilationResult struct {
	Success     bool         `json:"success"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	Module      *Module      `json:"-"`
}

// ValidationResult is the outcome of a standalone syntax check.
type ValidationResult struct {
	Valid       bool         `json:"valid"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// CompileMultiple parses every source into one module. Source keys name the
// file each blob came from and are used in diagnostics. Any parse failure
// fails the whole batch; no partial module is ever produced. Namespaces map
// file name to the namespace its types belong to; a missing entry leaves the
// type name unqualified.
func CompileMultiple(sources map[string]string, namespaces map[string]string, moduleNameHint string) CompilationResult {
	if len(sources) == 0 {
		return CompilationResult{
			Success:     false,
			Diagnostics: []Diagnostic{{Message: "no sources to compile"}},
		}
	}

	module := &Module{
		Name:      moduleName(moduleNameHint),
		CreatedAt: time.Now().UTC(),
		Types:     map[string]*RuntimeType{},
	}

	fileNames := make([]string, 0, len(sources))
	for name := range sources {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	var diagnostics []Diagnostic
	fset := token.NewFileSet()
	for _, fileName := range fileNames {
		file, err := parser.ParseFile(fset, fileName, sources[fileName], parser.ParseComments)
		if err != nil {
			diagnostics = append(diagnostics, diagnosticsFromError(fileName, err)...)
			continue
		}
		for _, rt := range extractTypes(file, namespaces[fileName]) {
			module.Types[rt.FullName] = rt
		}
	}

	if len(diagnostics) > 0 {
		return CompilationResult{Success: false, Diagnostics: diagnostics}
	}
	return CompilationResult{Success: true, Module: module}
}

// ValidateSyntax checks one source blob without producing a module.
func ValidateSyntax(source string) ValidationResult {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "source.go", source, 0)
	if err == nil {
		return ValidationResult{Valid: true}
	}
	return ValidationResult{
		Valid:       false,
		Diagnostics: diagnosticsFromError("source.go", err),
	}
}

func moduleName(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		hint = "dynamic"
	}
	return fmt.Sprintf("%s-%d", hint, time.Now().UnixNano())
}

func diagnosticsFromError(fileName string, err error) []Diagnostic {
	if list, ok := err.(scanner.ErrorList); ok {
		diagnostics := make([]Diagnostic, 0, len(list))
		for _, e := range list {
			diagnostics = append(diagnostics, Diagnostic{
				File:    fileName,
				Line:    e.Pos.Line,
				Column:  e.Pos.Column,
				Message: e.Msg,
			})
		}
		return diagnostics
	}
	return []Diagnostic{{File: fileName, Message: err.Error()}}
}

// extractTypes walks the parsed file collecting struct declarations as
// RuntimeTypes and marker assertions (`var _ Iface = (*T)(nil)`) as each
// type's interface list.
func extractTypes(file *ast.File, namespace string) []*RuntimeType {
	var types []*RuntimeType
	byName := map[string]*RuntimeType{}

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				continue
			}
			rt := &RuntimeType{
				Name:       typeSpec.Name.Name,
				FullName:   qualify(namespace, typeSpec.Name.Name),
				Properties: extractProperties(structType),
			}
			types = append(types, rt)
			byName[rt.Name] = rt
		}
	}

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			typeName, ifaceName, ok := markerAssertion(spec)
			if !ok {
				continue
			}
			if rt, exists := byName[typeName]; exists {
				rt.Interfaces = append(rt.Interfaces, ifaceName)
			}
		}
	}

	for _, rt := range types {
		sort.Strings(rt.Interfaces)
	}
	return types
}

func extractProperties(structType *ast.StructType) []PropertyInfo {
	var props []PropertyInfo
	for _, field := range structType.Fields.List {
		typeName, isPointer := typeNameOf(field.Type)
		tag := ""
		if field.Tag != nil {
			tag = strings.Trim(field.Tag.Value, "`")
		}
		for _, name := range field.Names {
			props = append(props, PropertyInfo{
				Name:      name.Name,
				TypeName:  typeName,
				IsPointer: isPointer,
				Tag:       tag,
			})
		}
	}
	return props
}

func typeNameOf(expr ast.Expr) (string, bool) {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name, false
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			return pkg.Name + "." + t.Sel.Name, false
		}
		return t.Sel.Name, false
	case *ast.StarExpr:
		name, _ := typeNameOf(t.X)
		return name, true
	case *ast.ArrayType:
		name, _ := typeNameOf(t.Elt)
		return "[]" + name, false
	default:
		return "", false
	}
}

// markerAssertion recognizes `var _ Iface = (*T)(nil)` and returns (T, Iface).
func markerAssertion(spec ast.Spec) (typeName, ifaceName string, ok bool) {
	valueSpec, isValue := spec.(*ast.ValueSpec)
	if !isValue || len(valueSpec.Names) != 1 || valueSpec.Names[0].Name != "_" {
		return "", "", false
	}
	if valueSpec.Type == nil || len(valueSpec.Values) != 1 {
		return "", "", false
	}

	iface, isIdent := valueSpec.Type.(*ast.Ident)
	if !isIdent {
		return "", "", false
	}

	call, isCall := valueSpec.Values[0].(*ast.CallExpr)
	if !isCall || len(call.Args) != 1 {
		return "", "", false
	}
	paren, isParen := call.Fun.(*ast.ParenExpr)
	if !isParen {
		return "", "", false
	}
	star, isStar := paren.X.(*ast.StarExpr)
	if !isStar {
		return "", "", false
	}
	target, isIdent := star.X.(*ast.Ident)
	if !isIdent {
		return "", "", false
	}

	return target.Name, iface.Name, true
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}
