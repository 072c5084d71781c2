package strategy

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/codegen"
)

// NeedsTrait generates Needs<Base>Trait: an embeddable struct holding an
// unexported <Base> field and an exported setter for it.
//
// It never needs the base type to exist; the oracle is only asked whether the
// base is an interface, so the field can hold it by value, or generic, which
// is declined.
type NeedsTrait struct {
	env Env
}

func NewNeedsTrait(env Env) *NeedsTrait { return &NeedsTrait{env: env} }

// Generate implements Generator.
func (n *NeedsTrait) Generate(req Request) (*codegen.Artifact, error) {
	field := safeIdent(stripInterface(lowerCamel(req.Base)))
	setter := "Set" + stripInterface(req.Base)
	typ, err := n.fieldType(req)
	if err != nil {
		return nil, err
	}

	recv := "nt"
	if field == recv {
		recv = "trait"
	}

	name := req.Type.Name
	a := n.env.newArtifact(req)
	a.Doc = []string{fmt.Sprintf("%s carries a %s dependency for the types that embed it.", name, req.Base)}
	a.Fields = []codegen.Field{{Name: field, Type: typ}}
	a.Funcs = []codegen.Func{{
		Doc:    []string{fmt.Sprintf("%s sets the %s dependency.", setter, req.Base)},
		Recv:   recv + " *" + name,
		Name:   setter,
		Params: []codegen.Param{{Name: field, Type: typ}},
		Body:   []string{fmt.Sprintf("%s.%s = %s", recv, field, field)},
	}}
	a.Related = []string{
		req.Type.Sibling(req.Base + "Factory").String(),
		req.Type.Sibling(req.Base + "Proxy").String(),
	}
	return a, nil
}

// fieldType holds interfaces by value and everything else by pointer. Unknown
// bases fall back to the "Interface" naming convention.
func (n *NeedsTrait) fieldType(req Request) (string, error) {
	if n.env.Oracle != nil {
		if t, err := n.env.Oracle.Lookup(req.Type.Namespace, req.Base); err == nil {
			switch {
			case t.IsAbstract():
				return "", errors.Wrapf(ErrNotApplicable, "%s: %s is generic", req.Type, req.BaseType())
			case t.IsInterface():
				return req.Base, nil
			}
			return "*" + req.Base, nil
		}
	}
	if strings.HasSuffix(req.Base, interfaceLabel) {
		return req.Base, nil
	}
	return "*" + req.Base, nil
}
