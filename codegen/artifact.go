// Package codegen holds the structured description of a generated type and
// renders it to Go source with a version header.
package codegen

import (
	"path"
	"sort"
)

// Import is a single import spec. Name is empty unless an alias is required.
type Import struct {
	Name string
	Path string
}

// Field is a struct field.
type Field struct {
	Name    string
	Type    string
	Comment string
}

// Param is a function parameter or result. Type excludes the pointer for
// Pointer params and the "..." for Variadic ones.
type Param struct {
	Name     string
	Type     string
	Pointer  bool
	Variadic bool
}

// Func is a function or, when Recv is set, a method.
type Func struct {
	Doc     []string
	Recv    string
	Name    string
	Params  []Param
	Results []Param
	Body    []string
}

// Artifact describes one generated struct type with its functions and
// methods. It carries no caching knowledge.
type Artifact struct {
	Package string
	Name    string
	Doc     []string
	Imports []Import
	Fields  []Field
	Funcs   []Func

	// Related lists type names a caller may want resolved alongside this one.
	Related []string
}

// AddImport records an import once. An alias is kept only when it differs
// from the last path element.
func (a *Artifact) AddImport(name, importPath string) {
	if name == path.Base(importPath) {
		name = ""
	}
	for _, imp := range a.Imports {
		if imp.Path == importPath {
			return
		}
	}
	a.Imports = append(a.Imports, Import{Name: name, Path: importPath})
}

// sortedImports returns the imports ordered by path.
func (a *Artifact) sortedImports() []Import {
	out := append([]Import(nil), a.Imports...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
