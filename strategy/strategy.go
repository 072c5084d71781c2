// Package strategy turns a requested type name into a codegen.Artifact using
// naming conventions:
//
//	Needs<Base>Trait   embeddable field + setter for a <Base> dependency
//	<Base>Factory      builds new <Base> values through the container
//	<Base>SharedProxy  forwards to the container's shared <Base> of a given name
//	<Base>Proxy        forwards to a lazily built private <Base>
//
// Table returns the strategies in that fixed priority order; the first
// applicable match wins.
package strategy

import (
	"path"
	"regexp"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/codegen"
	"github.com/sghaida/autocode/oracle"
	"github.com/sghaida/autocode/typename"
)

// DefaultRuntimeImport is the container package generated code imports.
const DefaultRuntimeImport = "github.com/sghaida/autocode/di"

// ErrNotApplicable is returned when a strategy matched the name but declines to
// generate, so the next strategy gets a chance.
var ErrNotApplicable = errors.New("strategy: not applicable")

// Request is one generation attempt for a matched name.
type Request struct {
	Type   typename.TypeName
	Suffix string
	Base   string
}

// BaseType is the fully qualified name of the type the request wraps.
func (r Request) BaseType() typename.TypeName {
	return r.Type.Sibling(r.Base)
}

// Generator synthesizes an Artifact for a matched request.
type Generator interface {
	Generate(req Request) (*codegen.Artifact, error)
}

// Env is what every generator needs to know about the world.
type Env struct {
	Oracle        oracle.Oracle
	RootPackage   string
	RuntimeImport string
}

func (e Env) runtimeImport() string {
	if e.RuntimeImport == "" {
		return DefaultRuntimeImport
	}
	return e.RuntimeImport
}

// addRuntime imports the container package under the "di" name.
func (e Env) addRuntime(a *codegen.Artifact) {
	imp := e.runtimeImport()
	if path.Base(imp) == "di" {
		a.AddImport("", imp)
		return
	}
	a.AddImport("di", imp)
}

// lookupBase resolves the request's base type, mapping a missing type to
// ErrNotApplicable.
func (e Env) lookupBase(req Request) (*oracle.Type, error) {
	if e.Oracle == nil {
		return nil, errors.Wrapf(ErrNotApplicable, "%s: no oracle for %s", req.Type, req.BaseType())
	}
	t, err := e.Oracle.Lookup(req.Type.Namespace, req.Base)
	if err != nil {
		if errors.Is(err, oracle.ErrTypeNotFound) {
			return nil, errors.Wrapf(ErrNotApplicable, "%s: base %s does not exist", req.Type, req.BaseType())
		}
		return nil, errors.Wrapf(err, "%s: inspecting %s", req.Type, req.BaseType())
	}
	return t, nil
}

func (e Env) newArtifact(req Request) *codegen.Artifact {
	return &codegen.Artifact{
		Package: req.Type.PackageName(e.RootPackage),
		Name:    req.Type.Name,
	}
}

// Entry is one row of the dispatch table.
type Entry struct {
	Name      string
	Pattern   *regexp.Regexp
	Generator Generator
}

// Match reports whether tn's simple name fits the entry's pattern and
// builds the request if so.
func (e Entry) Match(tn typename.TypeName) (Request, bool) {
	m := e.Pattern.FindStringSubmatch(tn.Name)
	if m == nil {
		return Request{}, false
	}
	return Request{Type: tn, Suffix: e.Name, Base: m[1]}, true
}

var (
	needsTraitPattern  = regexp.MustCompile(`^Needs([A-Za-z][A-Za-z0-9]*)Trait$`)
	factoryPattern     = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)Factory$`)
	sharedProxyPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)SharedProxy$`)
	proxyPattern       = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)Proxy$`)
)

// Table returns the dispatch table in priority order.
func Table(env Env) []Entry {
	return []Entry{
		{Name: "NeedsTrait", Pattern: needsTraitPattern, Generator: &NeedsTrait{env: env}},
		{Name: "Factory", Pattern: factoryPattern, Generator: &Factory{env: env}},
		{Name: "SharedProxy", Pattern: sharedProxyPattern, Generator: &Proxy{env: env, shared: true}},
		{Name: "Proxy", Pattern: proxyPattern, Generator: &Proxy{env: env}},
	}
}

func quote(s string) string { return strconv.Quote(s) }
