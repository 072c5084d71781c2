// Package typename parses the "namespace.Name" identifiers autocode resolves.
//
// A namespace is a slash separated package directory relative to the
// generation root; the empty namespace is the root package itself.
//
//	app.LoggerProxy            -> {Namespace: "app", Name: "LoggerProxy"}
//	internal/store.CacheFactory -> {Namespace: "internal/store", Name: "CacheFactory"}
//	LoggerProxy                -> {Namespace: "", Name: "LoggerProxy"}
package typename

import (
	"go/token"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalid is returned for names that cannot be mapped to a file under the root.
var ErrInvalid = errors.New("typename: invalid type name")

// TypeName is an immutable, normalized type identifier.
type TypeName struct {
	Namespace string
	Name      string
}

// Parse normalizes raw and splits it at the last '.'.
//
// Leading separators are stripped and backslashes are read as '/'. Names with
// ".." or empty namespace segments are rejected so they can never escape the
// generation root.
func Parse(raw string) (TypeName, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), `\`, "/")
	if strings.Contains(s, "..") {
		return TypeName{}, errors.Wrapf(ErrInvalid, "%q: parent reference", raw)
	}
	s = strings.TrimLeft(s, "./")

	var ns, name string
	if i := strings.LastIndex(s, "."); i >= 0 {
		ns, name = s[:i], s[i+1:]
	} else {
		name = s
	}

	if !token.IsIdentifier(name) {
		return TypeName{}, errors.Wrapf(ErrInvalid, "%q: bad name %q", raw, name)
	}
	if ns != "" {
		for _, seg := range strings.Split(ns, "/") {
			if seg == "" || seg == "." || strings.ContainsAny(seg, " \t") {
				return TypeName{}, errors.Wrapf(ErrInvalid, "%q: bad namespace %q", raw, ns)
			}
		}
	}
	return TypeName{Namespace: ns, Name: name}, nil
}

// MustParse is Parse that panics; for tests and constants.
func MustParse(raw string) TypeName {
	tn, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return tn
}

func (t TypeName) String() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Sibling returns the type called name in the same namespace.
func (t TypeName) Sibling(name string) TypeName {
	return TypeName{Namespace: t.Namespace, Name: name}
}

// PackageName is the Go package clause for files in t's namespace.
// The root namespace uses rootPackage.
func (t TypeName) PackageName(rootPackage string) string {
	if t.Namespace == "" {
		if rootPackage == "" {
			return "main"
		}
		return rootPackage
	}
	base := path.Base(t.Namespace)
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, base)
	if name == "" || (name[0] >= '0' && name[0] <= '9') || token.IsKeyword(name) {
		name = "pkg_" + name
	}
	return name
}
