// Package autocode generates Go adapter types on demand from their names.
//
// When a package refers to a type that does not exist and the name follows a
// convention, autocode writes the type into the generation directory:
//
//   - <Base>Factory: builds a fresh <Base> through a di.Container.
//   - <Base>Proxy: builds one <Base> on first use and forwards to it.
//   - <Base>SharedProxy: forwards to the <Base> shared under a name.
//   - Needs<Base>Trait: an embeddable field and setter for a <Base>.
//
// Generated files carry a GEN_VERSION header and are reused until the
// configured version changes.
//
// See subpackages:
//   - dispatch: the Resolve entry point
//   - strategy, codegen, cache: generation, rendering, storage
//   - oracle, typename: type introspection and names
//   - loader: type-checker, scanner and watcher integration
//   - di: the runtime container generated code depends on
//   - cmd/autocode: the CLI
//   - examples/fraud: generated adapters in use
package autocode
