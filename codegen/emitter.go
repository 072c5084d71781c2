package codegen

import (
	"bytes"
	"go/format"
	"strconv"
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"
)

// HeaderPrefix starts the first line of every generated file; the rest of the
// line is the version tag.
const HeaderPrefix = "// GEN_VERSION = "

// GeneratedMarker is the standard Go "generated file" line.
const GeneratedMarker = "// Code generated by autocode. DO NOT EDIT."

// Header returns the first line of a file generated under version.
func Header(version string) string {
	return HeaderPrefix + version
}

// FormatError is returned alongside the raw text when gofmt rejects the
// rendered source. The text is only fit for diagnostics.
type FormatError struct{ Err error }

func (e *FormatError) Error() string { return "codegen: format failed: " + e.Err.Error() }
func (e *FormatError) Unwrap() error { return e.Err }

// Emitter renders Artifacts to Go source.
type Emitter struct {
	version string
}

func NewEmitter(version string) *Emitter {
	return &Emitter{version: version}
}

// Version is the tag written into every header.
func (e *Emitter) Version() string { return e.version }

// Render returns formatted Go source for a.
//
// If formatting fails the raw text is returned together with a *FormatError.
func (e *Emitter) Render(a *Artifact) ([]byte, error) {
	if a == nil || a.Name == "" || a.Package == "" {
		return nil, errors.New("codegen: artifact needs a package and a name")
	}

	data := struct {
		Header  string
		Marker  string
		Imports []Import
		*Artifact
	}{
		Header:   Header(e.version),
		Marker:   GeneratedMarker,
		Imports:  a.sortedImports(),
		Artifact: a,
	}

	var buf bytes.Buffer
	if err := fileTpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrapf(err, "codegen: render %s", a.Name)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), &FormatError{Err: err}
	}
	return src, nil
}

func renderImports(imports []Import) string {
	spec := func(imp Import) string {
		if imp.Name != "" {
			return imp.Name + " " + strconv.Quote(imp.Path)
		}
		return strconv.Quote(imp.Path)
	}
	if len(imports) == 1 {
		return "import " + spec(imports[0])
	}
	var b strings.Builder
	b.WriteString("import (\n")
	for _, imp := range imports {
		b.WriteString("\t" + spec(imp) + "\n")
	}
	b.WriteString(")")
	return b.String()
}

func renderParams(params []Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = strings.TrimSpace(p.Name + " " + typeExpr(p))
	}
	return strings.Join(parts, ", ")
}

func renderResults(results []Param) string {
	switch {
	case len(results) == 0:
		return ""
	case len(results) == 1 && results[0].Name == "":
		return " " + typeExpr(results[0])
	default:
		return " (" + renderParams(results) + ")"
	}
}

func typeExpr(p Param) string {
	t := p.Type
	if p.Pointer {
		t = "*" + t
	}
	if p.Variadic {
		t = "..." + t
	}
	return t
}

var fileTpl = template.Must(
	template.New("file").
		Funcs(template.FuncMap{
			"imports": renderImports,
			"params":  renderParams,
			"results": renderResults,
		}).
		Parse(`{{ .Header }}
{{ .Marker }}

package {{ .Package }}
{{ with .Imports }}
{{ imports . }}
{{ end }}
{{- range .Doc }}
// {{ . }}
{{- end }}
type {{ .Name }} struct {
{{- range .Fields }}
	{{ .Name }} {{ .Type }}{{ if .Comment }} // {{ .Comment }}{{ end }}
{{- end }}
}
{{ range .Funcs }}
{{- range .Doc }}
// {{ . }}
{{- end }}
func {{ if .Recv }}({{ .Recv }}) {{ end }}{{ .Name }}({{ params .Params }}){{ results .Results }} {
{{- range .Body }}
	{{ . }}
{{- end }}
}
{{ end -}}
`),
)
