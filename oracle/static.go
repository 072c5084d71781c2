package oracle

import "sync"

// Static is an in-memory Oracle. It is safe for concurrent use.
type Static struct {
	mu    sync.RWMutex
	types map[string]*Type
}

var _ Oracle = (*Static)(nil)

func NewStatic(types ...*Type) *Static {
	s := &Static{types: map[string]*Type{}}
	for _, t := range types {
		s.Add(t)
	}
	return s
}

// Add registers t, replacing any type with the same namespace and name.
func (s *Static) Add(t *Type) *Static {
	s.mu.Lock()
	s.types[key(t.Namespace, t.Name)] = t
	s.mu.Unlock()
	return s
}

// Lookup implements Oracle.
func (s *Static) Lookup(namespace, name string) (*Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.types[key(namespace, name)]
	if !ok {
		return nil, notFound(namespace, name)
	}
	return t, nil
}

func key(namespace, name string) string { return namespace + "\x00" + name }
