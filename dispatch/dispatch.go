// Package dispatch is the single entry point for on-demand generation: given a
// type name it returns the path of a valid generated file, producing and
// caching one when a naming convention applies.
package dispatch

import (
	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/cache"
	"github.com/sghaida/autocode/codegen"
	"github.com/sghaida/autocode/logger"
	"github.com/sghaida/autocode/oracle"
	"github.com/sghaida/autocode/strategy"
	"github.com/sghaida/autocode/typename"
	"go.uber.org/zap"
)

// DefaultVersion is the tag written into generated headers when none is configured.
const DefaultVersion = "1.0.0"

// Config is the explicit configuration of a Dispatcher.
type Config struct {
	// GenerationDir is the root generated files are written under.
	GenerationDir string
	// Version is the global cache tag.
	Version string
	// RootPackage is the package clause for the root namespace.
	RootPackage string
	// RuntimeImport is the import path of the di container package.
	RuntimeImport string
	// CascadeNeedsTrait also resolves <Base>Factory and <Base>Proxy after a
	// Needs<Base>Trait is generated.
	CascadeNeedsTrait bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger (default: the global logger named "dispatch").
func WithLogger(l *zap.SugaredLogger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithTable replaces the strategy table.
func WithTable(table []strategy.Entry) Option {
	return func(d *Dispatcher) { d.table = table }
}

// Dispatcher maps type names to generated files.
type Dispatcher struct {
	cfg     Config
	oracle  oracle.Oracle
	store   *cache.Store
	emitter *codegen.Emitter
	table   []strategy.Entry
	log     *zap.SugaredLogger
}

// New validates cfg and prepares the cache. An unusable generation root is
// reported as a *cache.ConfigurationError.
func New(cfg Config, o oracle.Oracle, opts ...Option) (*Dispatcher, error) {
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.RuntimeImport == "" {
		cfg.RuntimeImport = strategy.DefaultRuntimeImport
	}
	if cfg.GenerationDir == "" {
		return nil, &cache.ConfigurationError{Root: cfg.GenerationDir, Err: errors.New("generation directory not set")}
	}

	store, err := cache.NewStore(cfg.GenerationDir, cfg.Version)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		cfg:     cfg,
		oracle:  o,
		store:   store,
		emitter: codegen.NewEmitter(cfg.Version),
		log:     logger.Named("dispatch"),
	}
	d.table = strategy.Table(strategy.Env{
		Oracle:        o,
		RootPackage:   cfg.RootPackage,
		RuntimeImport: cfg.RuntimeImport,
	})
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Store exposes the underlying cache.
func (d *Dispatcher) Store() *cache.Store { return d.store }

// Config returns the effective configuration.
func (d *Dispatcher) Config() Config { return d.cfg }

// Resolve returns the path of a valid generated file for name.
//
// A cached file with the current tag is returned as is. Otherwise the table
// is tried in order and the first artifact produced is written. The result is
// ("", false) when no strategy applies or the file cannot be rendered or
// written.
func (d *Dispatcher) Resolve(name string) (string, bool) {
	return d.resolve(name, d.cfg.CascadeNeedsTrait)
}

func (d *Dispatcher) resolve(name string, cascade bool) (string, bool) {
	tn, err := typename.Parse(name)
	if err != nil {
		d.log.Debugw("Rejected type name", "type", name, "error", err)
		return "", false
	}

	path := d.store.Path(tn)
	if _, ok := d.store.Lookup(path); ok {
		d.log.Debugw("Cache hit", "type", tn.String(), "path", path)
		return path, true
	}

	for _, entry := range d.table {
		req, ok := entry.Match(tn)
		if !ok {
			continue
		}

		artifact, err := entry.Generator.Generate(req)
		if err != nil {
			if errors.Is(err, strategy.ErrNotApplicable) {
				d.log.Debugw("Strategy declined", "type", tn.String(), "strategy", entry.Name, "reason", err)
			} else {
				d.log.Warnw("Strategy failed", "type", tn.String(), "strategy", entry.Name, "error", err)
			}
			continue
		}

		if !d.persist(tn, path, entry.Name, artifact) {
			return "", false
		}
		if cascade && entry.Name == "NeedsTrait" {
			d.cascade(artifact.Related)
		}
		return path, true
	}

	d.log.Debugw("No strategy applies", "type", tn.String())
	return "", false
}

func (d *Dispatcher) persist(tn typename.TypeName, path, strategyName string, a *codegen.Artifact) bool {
	src, err := d.emitter.Render(a)
	if err != nil {
		// Unformattable source would not compile; keep it off disk so it is
		// never served as a cache hit.
		d.log.Warnw("Render failed", "type", tn.String(), "strategy", strategyName, "error", err)
		return false
	}

	if err := d.store.Write(path, src); err != nil {
		d.log.Warnw("Write failed", "type", tn.String(), "path", path, "error", err)
		return false
	}
	if f, ok := d.oracle.(oracle.Forgetter); ok {
		f.Forget(tn.Namespace)
	}

	d.log.Infow("Generated", "type", tn.String(), "strategy", strategyName, "path", path)
	return true
}

// cascade resolves follow-up names best-effort; their outcome never affects
// the caller's result.
func (d *Dispatcher) cascade(names []string) {
	for _, n := range names {
		if _, ok := d.resolve(n, false); !ok {
			d.log.Debugw("Cascade skipped", "type", n)
		}
	}
}
