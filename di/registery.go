package di

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
)

// Params carries named construction arguments for a Constructor.
type Params map[string]any

// Constructor builds a new value for a registered type name.
type Constructor func(params Params) (any, error)

// Registry resolves constructors by fully qualified type name.
//
// Expected usage:
//
//	ctor, ok := reg.Lookup("app.Logger")
type Registry interface {
	Lookup(typeName string) (Constructor, bool)
}

// ErrConstructorPanic is returned if a constructor panics while building a value.
var ErrConstructorPanic = errors.New("di: panic during construction")

// MapRegistry is a simple in-memory constructor registry.
// It is safe for concurrent use.
type MapRegistry struct {
	mu    sync.RWMutex
	items map[string]Constructor
}

func NewMapRegistry() *MapRegistry {
	return &MapRegistry{items: map[string]Constructor{}}
}

// Provide stores a constructor under a type name and returns the registry for chaining.
// A later Provide for the same name replaces the earlier one.
func (r *MapRegistry) Provide(typeName string, ctor Constructor) *MapRegistry {
	r.mu.Lock()
	r.items[typeName] = ctor
	r.mu.Unlock()
	return r
}

// Lookup implements Registry.
func (r *MapRegistry) Lookup(typeName string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.items[typeName]
	return ctor, ok && ctor != nil
}

// Construct runs the constructor registered for typeName and converts panics into errors.
func (r *MapRegistry) Construct(typeName string, params Params) (val any, err error) {
	ctor, ok := r.Lookup(typeName)
	if !ok {
		return nil, NotProvidedError{TypeName: typeName}
	}

	defer func() {
		if rec := recover(); rec != nil {
			val = nil
			err = errors.Wrapf(ErrConstructorPanic, "%s: %v", typeName, rec)
		}
	}()

	return ctor(params)
}

// MustLookup returns the constructor or panics with a helpful message.
// Useful in tests where missing registrations should fail fast.
func (r *MapRegistry) MustLookup(typeName string) Constructor {
	ctor, ok := r.Lookup(typeName)
	if !ok {
		panic(fmt.Errorf("di: registry missing type %q", typeName))
	}
	return ctor
}
