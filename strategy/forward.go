package strategy

import (
	"fmt"
	"strings"

	"github.com/sghaida/autocode/codegen"
	"github.com/sghaida/autocode/oracle"
)

const (
	proxyRecv = "px"
	cloneHook = "Clone"
)

// forwardable reports whether a proxy should re-expose m.
func forwardable(m oracle.Method) bool {
	if m.IsConstructor || m.IsDestructor || m.IsFinal || m.IsStatic {
		return false
	}
	return m.Name != cloneHook
}

// forwardMethods appends one forwarding method per forwardable public method
// of base. Parameters keep their order, type, pointer and variadic shape.
func forwardMethods(a *codegen.Artifact, base *oracle.Type) {
	recv := proxyRecv + " *" + a.Name

	for _, m := range base.PublicMethods() {
		if !forwardable(m) {
			continue
		}

		params, args := forwardParams(m.Params)
		call := fmt.Sprintf("%s.getInstance().%s(%s)", proxyRecv, m.Name, strings.Join(args, ", "))

		fn := codegen.Func{
			Doc:    []string{fmt.Sprintf("%s forwards to the underlying %s.", m.Name, base.Name)},
			Recv:   recv,
			Name:   m.Name,
			Params: params,
		}
		if d := defaultsDoc(m.Params); d != "" {
			fn.Doc = append(fn.Doc, d)
		}

		switch {
		case m.Return == oracle.ReturnDeclared && len(m.Results) > 0:
			for _, r := range m.Results {
				fn.Results = append(fn.Results, codegen.Param{Type: r.Type, Pointer: r.ByRef})
			}
			fn.Body = []string{"return " + call}
		default:
			fn.Body = []string{call}
		}

		for _, imp := range m.Imports {
			a.AddImport(imp.Name, imp.Path)
		}
		a.Funcs = append(a.Funcs, fn)
	}
}

// forwardParams copies params verbatim, renaming only names that cannot be
// used in the proxy: blank, missing, the receiver name, or duplicates.
func forwardParams(in []oracle.Param) ([]codegen.Param, []string) {
	used := map[string]struct{}{proxyRecv: {}}
	for _, p := range in {
		used[p.Name] = struct{}{}
	}

	seen := map[string]struct{}{}
	params := make([]codegen.Param, 0, len(in))
	args := make([]string, 0, len(in))
	for i, p := range in {
		name := p.Name
		_, dup := seen[name]
		if name == "" || name == "_" || name == proxyRecv || dup {
			name = fmt.Sprintf("arg%d", i)
			for {
				if _, taken := used[name]; !taken {
					break
				}
				name += "_"
			}
			used[name] = struct{}{}
		}
		seen[name] = struct{}{}

		params = append(params, codegen.Param{Name: name, Type: p.Type, Pointer: p.ByRef, Variadic: p.Variadic})
		if p.Variadic {
			args = append(args, name+"...")
		} else {
			args = append(args, name)
		}
	}
	return params, args
}

// defaultsDoc records parameter defaults, which Go signatures cannot carry.
func defaultsDoc(params []oracle.Param) string {
	var parts []string
	for _, p := range params {
		if p.Default != nil {
			parts = append(parts, p.Name+" = "+p.Default.String())
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Defaults: " + strings.Join(parts, ", ") + "."
}
