package strategy

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/codegen"
)

// Proxy generates <Base>Proxy and, when shared, <Base>SharedProxy types.
//
// A proxy re-exposes every forwardable public method of <Base> and defers
// obtaining the underlying value until the first forwarded call. A plain proxy
// builds a private instance with NewInstance; a shared proxy fetches the
// container's instance registered under the name it was constructed with.
type Proxy struct {
	env    Env
	shared bool
}

func NewProxy(env Env) *Proxy       { return &Proxy{env: env} }
func NewSharedProxy(env Env) *Proxy { return &Proxy{env: env, shared: true} }

// Generate implements Generator.
func (p *Proxy) Generate(req Request) (*codegen.Artifact, error) {
	base, err := p.env.lookupBase(req)
	if err != nil {
		return nil, err
	}
	switch {
	case base.IsTrait():
		return nil, errors.Wrapf(ErrNotApplicable, "%s: %s is a trait", req.Type, req.BaseType())
	case base.IsAbstract():
		return nil, errors.Wrapf(ErrNotApplicable, "%s: %s is generic", req.Type, req.BaseType())
	case base.IsInterface():
		return nil, errors.Wrapf(ErrNotApplicable, "%s: %s is an interface", req.Type, req.BaseType())
	}

	name := req.Type.Name
	held := "*" + base.Name
	recv := proxyRecv + " *" + name

	a := p.env.newArtifact(req)
	p.env.addRuntime(a)
	a.AddImport("", "sync")

	a.Fields = []codegen.Field{{Name: "container", Type: "di.Container"}}
	ctorParams := []codegen.Param{{Name: "c", Type: "di.Container"}}
	ctorBody := fmt.Sprintf("return &%s{container: c}", name)
	cloneInit := "container: px.container"
	acquire := fmt.Sprintf("px.instance = di.MustNewAs[%s](px.container, %s, nil)", held, quote(req.BaseType().String()))

	if p.shared {
		a.Doc = []string{fmt.Sprintf("%s forwards to the %s shared under a container name.", name, base.Name)}
		a.Fields = append(a.Fields, codegen.Field{Name: "instanceName", Type: "string"})
		ctorParams = append(ctorParams, codegen.Param{Name: "instanceName", Type: "string"})
		ctorBody = fmt.Sprintf("return &%s{container: c, instanceName: instanceName}", name)
		cloneInit += ", instanceName: px.instanceName"
		acquire = fmt.Sprintf("px.instance = di.MustGetAs[%s](px.container, px.instanceName)", held)
	} else {
		a.Doc = []string{fmt.Sprintf("%s forwards to a %s built on first use.", name, base.Name)}
	}

	a.Fields = append(a.Fields,
		codegen.Field{Name: "once", Type: "sync.Once"},
		codegen.Field{Name: "instance", Type: held},
	)

	a.Funcs = []codegen.Func{
		{
			Doc:     []string{fmt.Sprintf("New%s returns a %s bound to c.", name, name)},
			Name:    "New" + name,
			Params:  ctorParams,
			Results: []codegen.Param{{Type: name, Pointer: true}},
			Body:    []string{ctorBody},
		},
		{
			Recv:    recv,
			Name:    "getInstance",
			Results: []codegen.Param{{Type: held}},
			Body: []string{
				"px.once.Do(func() {",
				"\t" + acquire,
				"})",
				"return px.instance",
			},
		},
		{
			Doc:     []string{fmt.Sprintf("Clone returns a new proxy holding a copy of the underlying %s.", base.Name)},
			Recv:    recv,
			Name:    cloneHook,
			Results: []codegen.Param{{Type: name, Pointer: true}},
			Body: []string{
				"cp := *px.getInstance()",
				fmt.Sprintf("clone := &%s{%s, instance: &cp}", name, cloneInit),
				"clone.once.Do(func() {})",
				"return clone",
			},
		},
	}

	forwardMethods(a, base)
	return a, nil
}
