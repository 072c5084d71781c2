// Package loader connects type resolution failures to the dispatcher.
//
// Loader is the fallback hook: a name that already resolves is left alone,
// anything else is handed to the dispatcher. Check drives the hook from
// type-checker errors, Scanner from constructor signatures, and Watcher
// re-runs a scan when sources change.
package loader

import (
	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/logger"
	"github.com/sghaida/autocode/oracle"
	"github.com/sghaida/autocode/typename"
	"go.uber.org/zap"
)

// DefaultMaxPasses bounds Check's resolve-and-recheck loop.
const DefaultMaxPasses = 5

// Hook is the type-loading fallback. Load reports whether name is available
// after the call.
type Hook interface {
	Load(name string) bool
}

// Resolver produces a generated file for a type name.
type Resolver interface {
	Resolve(name string) (string, bool)
}

// Checker reports identifiers a package uses but does not declare.
type Checker interface {
	Undefined(namespace string) ([]string, error)
}

// Option configures a Loader.
type Option func(*Loader)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(ld *Loader) { ld.log = l }
}

// WithChecker enables Check.
func WithChecker(c Checker) Option {
	return func(ld *Loader) { ld.checker = c }
}

// WithMaxPasses bounds how many times Check re-inspects a package.
func WithMaxPasses(n int) Option {
	return func(ld *Loader) {
		if n > 0 {
			ld.maxPasses = n
		}
	}
}

// Loader implements Hook on top of an oracle and a resolver.
type Loader struct {
	resolver  Resolver
	oracle    oracle.Oracle
	checker   Checker
	maxPasses int
	log       *zap.SugaredLogger
}

var _ Hook = (*Loader)(nil)

func New(r Resolver, o oracle.Oracle, opts ...Option) *Loader {
	ld := &Loader{
		resolver:  r,
		oracle:    o,
		maxPasses: DefaultMaxPasses,
		log:       logger.Named("loader"),
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Load implements Hook. Existing declarations always win over generation.
func (ld *Loader) Load(name string) bool {
	tn, err := typename.Parse(name)
	if err != nil {
		return false
	}
	if ld.oracle != nil {
		if _, err := ld.oracle.Lookup(tn.Namespace, tn.Name); err == nil {
			return true
		}
	}

	path, ok := ld.resolver.Resolve(tn.String())
	if ok {
		ld.log.Debugw("Loaded generated type", "type", tn.String(), "path", path)
	}
	return ok
}

// Check resolves every undefined identifier of namespace, repeating while new
// files keep appearing, and returns the names it generated.
func (ld *Loader) Check(namespace string) ([]string, error) {
	if ld.checker == nil {
		return nil, errors.New("loader: no checker configured")
	}

	tried := map[string]struct{}{}
	var generated []string
	for pass := 0; pass < ld.maxPasses; pass++ {
		names, err := ld.checker.Undefined(namespace)
		if err != nil {
			return generated, errors.Wrapf(err, "loader: check %q", namespace)
		}

		progress := false
		for _, n := range names {
			full := typename.TypeName{Namespace: namespace, Name: n}.String()
			if _, seen := tried[full]; seen {
				continue
			}
			tried[full] = struct{}{}

			if _, ok := ld.resolver.Resolve(full); ok {
				generated = append(generated, full)
				progress = true
			}
		}
		if !progress {
			break
		}
	}
	return generated, nil
}
