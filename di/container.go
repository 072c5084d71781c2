package di

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/do"
)

// Container is the object-graph API generated code depends on.
//
// NewInstance always builds a fresh value. Get returns the single shared value
// registered under a name, building it on first use.
type Container interface {
	NewInstance(typeName string, params Params) (any, error)
	Get(name string) (any, error)
}

// Injector is the default Container.
//
// Constructors live in a MapRegistry keyed by type name; shared instances are
// lazy named singletons held by a samber/do injector.
type Injector struct {
	ctors  *MapRegistry
	shared *do.Injector

	mu    sync.RWMutex
	names map[string]struct{}
}

var _ Container = (*Injector)(nil)

func NewInjector() *Injector {
	return &Injector{
		ctors:  NewMapRegistry(),
		shared: do.New(),
		names:  map[string]struct{}{},
	}
}

// Provide registers ctor for typeName and returns the injector for chaining.
func (in *Injector) Provide(typeName string, ctor Constructor) *Injector {
	in.ctors.Provide(typeName, ctor)
	return in
}

// NewInstance implements Container.
func (in *Injector) NewInstance(typeName string, params Params) (any, error) {
	return in.ctors.Construct(typeName, params)
}

// Share declares a shared instance called name, built from typeName's
// constructor the first time it is requested.
func (in *Injector) Share(name, typeName string, params Params) error {
	if err := in.declare(name); err != nil {
		return err
	}
	do.ProvideNamed[any](in.shared, name, func(*do.Injector) (any, error) {
		return in.NewInstance(typeName, params)
	})
	return nil
}

// ShareValue declares an already built shared instance.
func (in *Injector) ShareValue(name string, val any) error {
	if err := in.declare(name); err != nil {
		return err
	}
	do.ProvideNamedValue[any](in.shared, name, val)
	return nil
}

// Get implements Container.
func (in *Injector) Get(name string) (any, error) {
	in.mu.RLock()
	_, ok := in.names[name]
	in.mu.RUnlock()
	if !ok {
		return nil, MissingDependencyError{Name: name}
	}

	v, err := do.InvokeNamed[any](in.shared, name)
	if err != nil {
		return nil, errors.Wrapf(err, "di: resolve shared %q", name)
	}
	return v, nil
}

// Has reports whether a shared instance is declared under name.
func (in *Injector) Has(name string) bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	_, ok := in.names[name]
	return ok
}

// Shutdown releases shared instances that implement do.Shutdownable.
func (in *Injector) Shutdown() error {
	return in.shared.Shutdown()
}

func (in *Injector) declare(name string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, exists := in.names[name]; exists {
		return DuplicateNameError{Name: name}
	}
	in.names[name] = struct{}{}
	return nil
}
