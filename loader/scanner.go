package loader

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/cache"
	"github.com/sghaida/autocode/logger"
	"github.com/sghaida/autocode/typename"
	"go.uber.org/zap"
)

// ConstructorPrefix marks the free functions whose parameters are scanned.
const ConstructorPrefix = "New"

// Report is the outcome of a Scan.
type Report struct {
	Requested []string `json:"requested" yaml:"requested"`
	Loaded    []string `json:"loaded" yaml:"loaded"`
	Missing   []string `json:"missing" yaml:"missing"`
}

// ScanOption configures a Scanner.
type ScanOption func(*Scanner)

func WithScanLogger(l *zap.SugaredLogger) ScanOption {
	return func(s *Scanner) { s.log = l }
}

// Scanner collects the parameter types of constructors (free functions named
// New*) under a set of directories and asks a Hook to load each one.
//
// Only types that can live under the generation root are considered: bare
// identifiers in files inside the root, and selectors whose import path is
// the root's import path or below it. Predeclared types are skipped.
type Scanner struct {
	hook      Hook
	genRoot   string
	genImport string
	log       *zap.SugaredLogger
}

// NewScanner returns a scanner for the generation root genRoot. The root's
// import path is taken from the enclosing go.mod when there is one.
func NewScanner(hook Hook, genRoot string, opts ...ScanOption) (*Scanner, error) {
	abs, err := filepath.Abs(genRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "scanner: resolve %s", genRoot)
	}
	s := &Scanner{hook: hook, genRoot: abs, log: logger.Named("scanner")}
	for _, opt := range opts {
		opt(s)
	}

	if modRoot, modPath, err := findModule(abs); err == nil {
		if imp, err := moduleImportPathForDir(modRoot, modPath, abs); err == nil {
			s.genImport = imp
		}
	} else {
		s.log.Debugw("No module for generation root; selectors are ignored", "root", abs, "error", err)
	}
	return s, nil
}

// ImportPath is the import path of the generation root, if known.
func (s *Scanner) ImportPath() string { return s.genImport }

// Scan collects candidate types under dirs and loads each distinct one once.
// Failures to load are recorded, never returned.
func (s *Scanner) Scan(dirs ...string) (*Report, error) {
	names, err := s.Collect(dirs...)
	if err != nil {
		return nil, err
	}

	report := &Report{Requested: names}
	for _, n := range names {
		if s.hook.Load(n) {
			report.Loaded = append(report.Loaded, n)
		} else {
			report.Missing = append(report.Missing, n)
		}
	}
	s.log.Infow("Scan complete", "requested", len(names), "loaded", len(report.Loaded), "missing", len(report.Missing))
	return report, nil
}

// Collect returns the sorted, distinct candidate type names under dirs.
func (s *Scanner) Collect(dirs ...string) ([]string, error) {
	seen := map[string]struct{}{}
	fset := token.NewFileSet()

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != dir && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !isSourceFile(d.Name()) {
				return nil
			}

			f, perr := parser.ParseFile(fset, p, nil, parser.SkipObjectResolution)
			if perr != nil {
				s.log.Debugw("Skipping unparsable file", "file", p, "error", perr)
				return nil
			}
			for _, n := range s.fileCandidates(p, f) {
				seen[n] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "scanner: walk %s", dir)
		}
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Scanner) fileCandidates(file string, f *ast.File) []string {
	ns, inRoot := s.namespaceOf(filepath.Dir(file))

	imports := map[string]string{}
	for _, imp := range f.Imports {
		p := strings.Trim(imp.Path.Value, `"`)
		name := path.Base(p)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		imports[name] = p
	}

	var out []string
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || !strings.HasPrefix(fn.Name.Name, ConstructorPrefix) || fn.Type.Params == nil {
			continue
		}
		for _, field := range fn.Type.Params.List {
			if n, ok := s.paramType(field.Type, ns, inRoot, imports); ok {
				out = append(out, n)
			}
		}
	}
	return out
}

func (s *Scanner) paramType(expr ast.Expr, ns string, inRoot bool, imports map[string]string) (string, bool) {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return s.paramType(e.X, ns, inRoot, imports)
	case *ast.Ellipsis:
		return s.paramType(e.Elt, ns, inRoot, imports)
	case *ast.Ident:
		if !inRoot || types.Universe.Lookup(e.Name) != nil {
			return "", false
		}
		return typename.TypeName{Namespace: ns, Name: e.Name}.String(), true
	case *ast.SelectorExpr:
		pkg, ok := e.X.(*ast.Ident)
		if !ok {
			return "", false
		}
		target, ok := s.namespaceOfImport(imports[pkg.Name])
		if !ok {
			return "", false
		}
		return typename.TypeName{Namespace: target, Name: e.Sel.Name}.String(), true
	default:
		return "", false
	}
}

// namespaceOf maps a directory to its namespace under the generation root.
func (s *Scanner) namespaceOf(dir string) (string, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(s.genRoot, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	return rel, true
}

func (s *Scanner) namespaceOfImport(importPath string) (string, bool) {
	if s.genImport == "" || importPath == "" {
		return "", false
	}
	if importPath == s.genImport {
		return "", true
	}
	if rest, ok := strings.CutPrefix(importPath, s.genImport+"/"); ok {
		return rest, true
	}
	return "", false
}

func isSourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, cache.FileSuffix)
}

func skipDir(name string) bool {
	return name == "vendor" || name == "testdata" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
