package strategy

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/codegen"
)

// Factory generates <Base>Factory types whose Create builds a fresh <Base>
// through the container on every call. Generic bases are declined since the
// product type would need type arguments.
type Factory struct {
	env Env
}

func NewFactory(env Env) *Factory { return &Factory{env: env} }

// Generate implements Generator.
func (f *Factory) Generate(req Request) (*codegen.Artifact, error) {
	base, err := f.env.lookupBase(req)
	if err != nil {
		return nil, err
	}
	if base.IsAbstract() {
		return nil, errors.Wrapf(ErrNotApplicable, "%s: %s is generic", req.Type, req.BaseType())
	}

	product := "*" + base.Name
	if base.IsInterface() {
		product = base.Name
	}
	name := req.Type.Name

	a := f.env.newArtifact(req)
	f.env.addRuntime(a)
	a.Doc = []string{fmt.Sprintf("%s creates %s values through a di.Container.", name, base.Name)}
	a.Fields = []codegen.Field{{Name: "container", Type: "di.Container"}}
	a.Funcs = []codegen.Func{
		{
			Doc:     []string{fmt.Sprintf("New%s returns a %s bound to c.", name, name)},
			Name:    "New" + name,
			Params:  []codegen.Param{{Name: "c", Type: "di.Container"}},
			Results: []codegen.Param{{Type: name, Pointer: true}},
			Body:    []string{fmt.Sprintf("return &%s{container: c}", name)},
		},
		{
			Doc:     []string{fmt.Sprintf("Create builds a new %s from params.", base.Name)},
			Recv:    "f *" + name,
			Name:    "Create",
			Params:  []codegen.Param{{Name: "params", Type: "di.Params"}},
			Results: []codegen.Param{{Type: product}, {Type: "error"}},
			Body: []string{
				fmt.Sprintf("return di.NewAs[%s](f.container, %s, params)", product, quote(req.BaseType().String())),
			},
		},
	}
	return a, nil
}
