// Package oracle answers read-only questions about existing types: whether a
// type exists, what kind it is, and which public methods it exposes.
//
// Generators never inspect source or reflect on values directly; they only see
// the descriptors defined here.
package oracle

import (
	"go/token"
	"regexp"

	"github.com/cockroachdb/errors"
)

// ErrTypeNotFound is returned by Lookup when no declaration exists.
var ErrTypeNotFound = errors.New("oracle: type not found")

// Oracle resolves a type by namespace and simple name.
type Oracle interface {
	Lookup(namespace, name string) (*Type, error)
}

// Forgetter is implemented by oracles that cache per namespace and must be
// told when files in it change.
type Forgetter interface {
	Forget(namespace string)
}

// ReturnKind describes how a method's result is declared.
type ReturnKind int

const (
	ReturnUnspecified ReturnKind = iota
	ReturnVoid
	ReturnDeclared
)

func (k ReturnKind) String() string {
	switch k {
	case ReturnVoid:
		return "void"
	case ReturnDeclared:
		return "declared"
	default:
		return "unspecified"
	}
}

// Default is a parameter default value. Null is distinct from "no default",
// which is represented by a nil *Default.
type Default struct {
	Literal string
	Null    bool
}

func (d Default) String() string {
	if d.Null {
		return "nil"
	}
	return d.Literal
}

// Param describes one parameter or result.
type Param struct {
	Name string
	// Type is the element type as written in the declaring package. A by-ref
	// parameter's Type excludes the pointer, a variadic's excludes the "...".
	Type     string
	ByRef    bool
	Variadic bool
	Default  *Default
}

// Import is a package referenced by a method signature.
type Import struct {
	Name string
	Path string
}

// Method describes one method of a type.
type Method struct {
	Name    string
	Params  []Param
	Results []Param
	Return  ReturnKind

	IsConstructor bool
	IsDestructor  bool
	IsFinal       bool
	IsStatic      bool

	Imports []Import
}

// Type describes one named type.
type Type struct {
	Namespace string
	Name      string

	Abstract  bool
	Interface bool
	Trait     bool

	Methods []Method
}

// IsAbstract reports whether the type cannot be instantiated directly.
func (t *Type) IsAbstract() bool { return t.Abstract }

// IsInterface reports whether the type is an interface.
func (t *Type) IsInterface() bool { return t.Interface }

// IsTrait reports whether the type is a mixin unit rather than a standalone type.
func (t *Type) IsTrait() bool { return t.Trait }

// PublicMethods returns the exported methods in declaration order.
func (t *Type) PublicMethods() []Method {
	out := make([]Method, 0, len(t.Methods))
	for _, m := range t.Methods {
		if token.IsExported(m.Name) {
			out = append(out, m)
		}
	}
	return out
}

var traitName = regexp.MustCompile(`^Needs[A-Za-z][A-Za-z0-9]*Trait$`)

// IsTraitName reports whether name follows the mixin naming convention.
func IsTraitName(name string) bool {
	return traitName.MatchString(name)
}

func notFound(namespace, name string) error {
	if namespace == "" {
		return errors.Wrapf(ErrTypeNotFound, "%s", name)
	}
	return errors.Wrapf(ErrTypeNotFound, "%s.%s", namespace, name)
}
