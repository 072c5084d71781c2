package oracle

import (
	"go/types"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/go/packages"
)

const loadMode = packages.NeedName | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo

// Packages is an Oracle backed by go/packages. Namespaces are package
// directories relative to Dir. Loaded packages are cached until Forget.
//
// Packages that fail to type-check are still used: an incomplete package is
// exactly the situation autocode runs in.
type Packages struct {
	dir string

	mu    sync.Mutex
	cache map[string]*packages.Package

	load func(cfg *packages.Config, patterns ...string) ([]*packages.Package, error)
}

var (
	_ Oracle    = (*Packages)(nil)
	_ Forgetter = (*Packages)(nil)
)

func NewPackages(dir string) *Packages {
	return &Packages{
		dir:   dir,
		cache: map[string]*packages.Package{},
		load:  packages.Load,
	}
}

// Lookup implements Oracle.
func (p *Packages) Lookup(namespace, name string) (*Type, error) {
	pkg, err := p.Package(namespace)
	if err != nil {
		return nil, err
	}
	if pkg.Types == nil {
		return nil, notFound(namespace, name)
	}

	obj, ok := pkg.Types.Scope().Lookup(name).(*types.TypeName)
	if !ok {
		return nil, notFound(namespace, name)
	}
	named, ok := types.Unalias(obj.Type()).(*types.Named)
	if !ok {
		return nil, notFound(namespace, name)
	}
	return describe(namespace, named, pkg.Types), nil
}

// Forget implements Forgetter.
func (p *Packages) Forget(namespace string) {
	p.mu.Lock()
	delete(p.cache, namespace)
	p.mu.Unlock()
}

// Package loads (or returns the cached) package for namespace.
func (p *Packages) Package(namespace string) (*packages.Package, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pkg, ok := p.cache[namespace]; ok {
		return pkg, nil
	}

	pattern := "."
	if namespace != "" {
		pattern = "./" + namespace
	}
	cfg := &packages.Config{Mode: loadMode, Dir: p.dir, Tests: false}
	pkgs, err := p.load(cfg, pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", pattern)
	}
	if len(pkgs) == 0 {
		return nil, errors.Newf("no packages found for %s", pattern)
	}

	pkg := pkgs[0]
	p.cache[namespace] = pkg
	return pkg, nil
}

var undefinedIdent = regexp.MustCompile(`^undefined: ([A-Za-z_][A-Za-z0-9_]*)$`)

// Undefined reloads namespace and returns the sorted, distinct identifiers the
// type checker reported as undefined.
func (p *Packages) Undefined(namespace string) ([]string, error) {
	p.Forget(namespace)
	pkg, err := p.Package(namespace)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, e := range pkg.Errors {
		if e.Kind != packages.TypeError {
			continue
		}
		if m := undefinedIdent.FindStringSubmatch(strings.TrimSpace(e.Msg)); m != nil {
			seen[m[1]] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func describe(namespace string, named *types.Named, home *types.Package) *Type {
	obj := named.Obj()
	t := &Type{
		Namespace: namespace,
		Name:      obj.Name(),
		Abstract:  named.TypeParams().Len() > 0,
		Interface: types.IsInterface(named),
		Trait:     IsTraitName(obj.Name()),
	}

	if iface, ok := named.Underlying().(*types.Interface); ok {
		for i := 0; i < iface.NumMethods(); i++ {
			fn := iface.Method(i)
			if fn.Exported() {
				t.Methods = append(t.Methods, describeMethod(fn, home))
			}
		}
		return t
	}

	mset := types.NewMethodSet(types.NewPointer(named))
	for i := 0; i < mset.Len(); i++ {
		fn, ok := mset.At(i).Obj().(*types.Func)
		if ok && fn.Exported() {
			t.Methods = append(t.Methods, describeMethod(fn, home))
		}
	}
	return t
}

func describeMethod(fn *types.Func, home *types.Package) Method {
	imports := map[string]string{}
	qualifier := func(other *types.Package) string {
		if other == home {
			return ""
		}
		imports[other.Path()] = other.Name()
		return other.Name()
	}

	sig := fn.Type().(*types.Signature)
	m := Method{Name: fn.Name(), Return: ReturnDeclared}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		v := params.At(i)
		typ := v.Type()
		p := Param{Name: v.Name()}
		if sig.Variadic() && i == params.Len()-1 {
			if s, ok := typ.(*types.Slice); ok {
				typ = s.Elem()
				p.Variadic = true
			}
		}
		if ptr, ok := typ.(*types.Pointer); ok && !p.Variadic {
			typ = ptr.Elem()
			p.ByRef = true
		}
		p.Type = types.TypeString(typ, qualifier)
		m.Params = append(m.Params, p)
	}

	results := sig.Results()
	if results.Len() == 0 {
		m.Return = ReturnVoid
	}
	for i := 0; i < results.Len(); i++ {
		v := results.At(i)
		m.Results = append(m.Results, Param{Name: v.Name(), Type: types.TypeString(v.Type(), qualifier)})
	}

	for path, name := range imports {
		m.Imports = append(m.Imports, Import{Name: name, Path: path})
	}
	sort.Slice(m.Imports, func(i, j int) bool { return m.Imports[i].Path < m.Imports[j].Path })
	return m
}
