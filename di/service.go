package di

import (
	"reflect"
	"strconv"
)

// NotProvidedError is returned when no constructor is registered for a type name.
type NotProvidedError struct{ TypeName string }

// Error implements the error interface.
func (e NotProvidedError) Error() string {
	// Example: di: no constructor provided for "app.Logger"
	return "di: no constructor provided for " + strconv.Quote(e.TypeName)
}

// MissingDependencyError is returned when a shared instance name is not present.
type MissingDependencyError struct{ Name string }

// Error implements the error interface.
func (e MissingDependencyError) Error() string {
	// Example: di: dependency "db" missing
	return "di: dependency " + strconv.Quote(e.Name) + " missing"
}

// DuplicateNameError is returned when a shared instance name is declared twice.
type DuplicateNameError struct{ Name string }

// Error implements the error interface.
func (e DuplicateNameError) Error() string {
	return "di: duplicate shared name " + strconv.Quote(e.Name)
}

// WrongTypeError is returned when a constructed or shared value is not of the requested type.
type WrongTypeError struct {
	// Key is the type name or shared name requested.
	Key string

	// GotType is reflect.TypeOf(raw).String() for the stored value.
	GotType string
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	// Example: di: dependency "db" has wrong type (*mypkg.Logger)
	return "di: dependency " + strconv.Quote(e.Key) + " has wrong type (" + e.GotType + ")"
}

// NewAs builds a new instance through c and asserts it to T.
func NewAs[T any](c Container, typeName string, params Params) (T, error) {
	var zero T
	raw, err := c.NewInstance(typeName, params)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, WrongTypeError{Key: typeName, GotType: typeString(raw)}
	}
	return v, nil
}

// MustNewAs is NewAs that panics on error.
//
// Generated proxies call it from their lazy accessor, where there is no error
// return to propagate through.
func MustNewAs[T any](c Container, typeName string, params Params) T {
	v, err := NewAs[T](c, typeName, params)
	if err != nil {
		panic(err)
	}
	return v
}

// GetAs returns the shared instance registered under name, asserted to T.
//
// It returns:
//   - MissingDependencyError if the name is not present
//   - WrongTypeError if the stored value is not a T
func GetAs[T any](c Container, name string) (T, error) {
	var zero T
	raw, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, WrongTypeError{Key: name, GotType: typeString(raw)}
	}
	return v, nil
}

// MustGetAs is GetAs that panics on error.
func MustGetAs[T any](c Container, name string) T {
	v, err := GetAs[T](c, name)
	if err != nil {
		panic(err)
	}
	return v
}

func typeString(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
