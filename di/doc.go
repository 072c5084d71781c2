// Package di is the small runtime container that autocode-generated types
// depend on.
//
// Generated factories and proxies only ever talk to the Container interface:
//
//   - NewInstance(typeName, params) builds a fresh value (factories, proxies)
//   - Get(name) returns the value shared under a name (shared proxies)
//
// Injector is the default implementation. Constructors are registered by
// fully qualified type name ("app.Logger") and shared instances are declared
// by name; a shared instance is built once, on first use.
//
//	in := di.NewInjector().
//		Provide("app.Logger", func(di.Params) (any, error) { return &app.Logger{}, nil })
//	_ = in.Share("logger.main", "app.Logger", nil)
//
//	px := app.NewLoggerSharedProxy(in, "logger.main")
//
// Typed access goes through NewAs / GetAs and their Must variants.
package di
