package dispatch_test

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sghaida/autocode/cache"
	"github.com/sghaida/autocode/codegen"
	"github.com/sghaida/autocode/dispatch"
	"github.com/sghaida/autocode/oracle"
	"github.com/sghaida/autocode/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticOracle() *oracle.Static {
	return oracle.NewStatic(&oracle.Type{
		Namespace: "app",
		Name:      "Logger",
		Methods: []oracle.Method{
			{Name: "Log", Return: oracle.ReturnVoid, Params: []oracle.Param{{Name: "msg", Type: "string"}}},
			{Name: "Level", Return: oracle.ReturnDeclared, Results: []oracle.Param{{Type: "string"}}},
		},
	})
}

func newDispatcher(t *testing.T, cfg dispatch.Config, o oracle.Oracle, opts ...dispatch.Option) *dispatch.Dispatcher {
	t.Helper()
	if cfg.GenerationDir == "" {
		cfg.GenerationDir = t.TempDir()
	}
	d, err := dispatch.New(cfg, o, opts...)
	require.NoError(t, err)
	return d
}

func firstLine(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(line, "\n")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

type countingGenerator struct {
	inner strategy.Generator
	calls atomic.Int32
}

func (c *countingGenerator) Generate(req strategy.Request) (*codegen.Artifact, error) {
	c.calls.Add(1)
	return c.inner.Generate(req)
}

type stubGenerator struct {
	name string
	err  error
}

func (s stubGenerator) Generate(req strategy.Request) (*codegen.Artifact, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &codegen.Artifact{Package: "app", Name: req.Type.Name, Doc: []string{"made by " + s.name}}, nil
}

// unformattable yields an artifact whose body gofmt rejects.
type unformattable struct{}

func (unformattable) Generate(req strategy.Request) (*codegen.Artifact, error) {
	return &codegen.Artifact{
		Package: "app",
		Name:    req.Type.Name,
		Funcs:   []codegen.Func{{Name: "Broken", Body: []string{"return )("}}},
	}, nil
}

type forgetRecorder struct {
	*oracle.Static
	mu        sync.Mutex
	forgotten []string
}

func (f *forgetRecorder) Forget(ns string) {
	f.mu.Lock()
	f.forgotten = append(f.forgotten, ns)
	f.mu.Unlock()
}

// -------------------------
// Scenarios
// -------------------------

func TestResolve_ProxyForExistingType(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, dispatch.Config{}, staticOracle())

	path, ok := d.Resolve("app.LoggerProxy")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(d.Store().Root(), "app", "LoggerProxy.gen.go"), path)
	assert.Equal(t, "// GEN_VERSION = 1.0.0", firstLine(t, path))

	src := readFile(t, path)
	assert.Contains(t, src, "func (px *LoggerProxy) Log(msg string) {")
	assert.Contains(t, src, "func (px *LoggerProxy) Level() string {")
}

func TestResolve_StaleArtifactIsRegenerated(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, dispatch.Config{Version: "2.0.0"}, staticOracle())
	path := filepath.Join(d.Store().Root(), "app", "LoggerProxy.gen.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("// GEN_VERSION = 1.0.0\npackage app\n// old\n"), 0o644))

	got, ok := d.Resolve("app.LoggerProxy")
	require.True(t, ok)
	assert.Equal(t, path, got)
	assert.Equal(t, "// GEN_VERSION = 2.0.0", firstLine(t, path))
	assert.NotContains(t, readFile(t, path), "// old")
}

func TestResolve_NeedsTraitWithoutBase(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, dispatch.Config{}, oracle.NewStatic())

	path, ok := d.Resolve("app.NeedsLoggerTrait")
	require.True(t, ok)

	src := readFile(t, path)
	assert.Contains(t, src, "type NeedsLoggerTrait struct {")
	assert.Contains(t, src, "func (nt *NeedsLoggerTrait) SetLogger(logger *Logger) {")
}

func TestResolve_FactoryForMissingBase(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, dispatch.Config{}, oracle.NewStatic())

	path, ok := d.Resolve("app.WidgetFactory")
	assert.False(t, ok)
	assert.Empty(t, path)
	assert.NoFileExists(t, filepath.Join(d.Store().Root(), "app", "WidgetFactory.gen.go"))
}

func TestResolve_NoConventionMatches(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, dispatch.Config{}, staticOracle())
	for _, name := range []string{"app.Logger", "app.Proxy", "../evil.LoggerProxy", ""} {
		_, ok := d.Resolve(name)
		assert.False(t, ok, name)
	}
}

func TestResolve_SharedProxyOfInterfaceIsAbsent(t *testing.T) {
	t.Parallel()

	o := oracle.NewStatic(&oracle.Type{
		Namespace: "app",
		Name:      "ReadableInterface",
		Interface: true,
		Methods:   []oracle.Method{{Name: "Read", Return: oracle.ReturnVoid}},
	})
	d := newDispatcher(t, dispatch.Config{}, o)

	// SharedProxy declines the interface and Proxy finds no ReadableInterfaceShared.
	path, ok := d.Resolve("app.ReadableInterfaceSharedProxy")
	assert.False(t, ok)
	assert.Empty(t, path)
	assert.NoDirExists(t, filepath.Join(d.Store().Root(), "app"))

	_, ok = d.Resolve("app.ReadableInterfaceProxy")
	assert.False(t, ok)
}

// -------------------------
// Invariants
// -------------------------

func TestResolve_NamesDifferingInCaseGetOwnFiles(t *testing.T) {
	t.Parallel()

	client := func(name, method string) *oracle.Type {
		return &oracle.Type{
			Namespace: "app",
			Name:      name,
			Methods:   []oracle.Method{{Name: method, Return: oracle.ReturnVoid}},
		}
	}
	d := newDispatcher(t, dispatch.Config{}, oracle.NewStatic(
		client("HTTPClient", "Do"),
		client("HttpClient", "Send"),
	))

	upper, ok := d.Resolve("app.HTTPClientProxy")
	require.True(t, ok)
	mixed, ok := d.Resolve("app.HttpClientProxy")
	require.True(t, ok)
	assert.NotEqual(t, upper, mixed)

	upperSrc := readFile(t, upper)
	assert.Contains(t, upperSrc, "type HTTPClientProxy struct")
	assert.Contains(t, upperSrc, "func (px *HTTPClientProxy) Do() {")

	mixedSrc := readFile(t, mixed)
	assert.Contains(t, mixedSrc, "type HttpClientProxy struct")
	assert.Contains(t, mixedSrc, "func (px *HttpClientProxy) Send() {")
	assert.NotContains(t, mixedSrc, "HTTPClientProxy")
}

func TestResolve_UnformattableSourceIsNotWritten(t *testing.T) {
	t.Parallel()

	table := []strategy.Entry{{Name: "broken", Pattern: regexp.MustCompile(`^([A-Za-z]+)$`), Generator: unformattable{}}}
	d := newDispatcher(t, dispatch.Config{}, nil, dispatch.WithTable(table))

	path, ok := d.Resolve("app.Thing")
	assert.False(t, ok)
	assert.Empty(t, path)
	assert.NoFileExists(t, filepath.Join(d.Store().Root(), "app", "Thing.gen.go"))
}

func TestResolve_IdempotentWithinVersion(t *testing.T) {
	t.Parallel()

	o := staticOracle()
	var counters []*countingGenerator
	table := strategy.Table(strategy.Env{Oracle: o})
	for i := range table {
		c := &countingGenerator{inner: table[i].Generator}
		counters = append(counters, c)
		table[i].Generator = c
	}
	d := newDispatcher(t, dispatch.Config{}, o, dispatch.WithTable(table))

	first, ok := d.Resolve("app.LoggerProxy")
	require.True(t, ok)
	before := readFile(t, first)

	second, ok := d.Resolve("app.LoggerProxy")
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, before, readFile(t, second))

	var total int32
	for _, c := range counters {
		total += c.calls.Load()
	}
	assert.EqualValues(t, 1, total, "second resolve is served from cache")
}

func TestResolve_PriorityFirstMatchWins(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, dispatch.Config{}, staticOracle())

	path, ok := d.Resolve("app.LoggerSharedProxy")
	require.True(t, ok)
	src := readFile(t, path)
	assert.Contains(t, src, "instanceName string")
	assert.Contains(t, src, "di.MustGetAs[*Logger]")
}

func TestResolve_DeclinedAndFailedStrategiesFallThrough(t *testing.T) {
	t.Parallel()

	anyName := regexp.MustCompile(`^([A-Za-z]+)$`)
	table := []strategy.Entry{
		{Name: "declines", Pattern: anyName, Generator: stubGenerator{err: strategy.ErrNotApplicable}},
		{Name: "fails", Pattern: anyName, Generator: stubGenerator{err: errors.New("broken oracle")}},
		{Name: "works", Pattern: anyName, Generator: stubGenerator{name: "works"}},
		{Name: "never", Pattern: anyName, Generator: stubGenerator{name: "never"}},
	}
	d := newDispatcher(t, dispatch.Config{}, nil, dispatch.WithTable(table))

	path, ok := d.Resolve("app.Thing")
	require.True(t, ok)
	src := readFile(t, path)
	assert.Contains(t, src, "// made by works")
	assert.NotContains(t, src, "never")
}

func TestResolve_WriteFailureIsAbsent(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, dispatch.Config{}, staticOracle())

	// A non-empty directory squatting on the target path cannot be removed or replaced.
	blocker := filepath.Join(d.Store().Root(), "app", "LoggerProxy.gen.go")
	require.NoError(t, os.MkdirAll(blocker, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocker, "keep"), []byte("x"), 0o644))

	path, ok := d.Resolve("app.LoggerProxy")
	assert.False(t, ok)
	assert.Empty(t, path)
}

func TestResolve_ForgetsNamespaceAfterWrite(t *testing.T) {
	t.Parallel()

	o := &forgetRecorder{Static: staticOracle()}
	d := newDispatcher(t, dispatch.Config{}, o)

	_, ok := d.Resolve("app.LoggerFactory")
	require.True(t, ok)
	assert.Equal(t, []string{"app"}, o.forgotten)
}

// -------------------------
// Cascade policy
// -------------------------

func TestResolve_CascadeNeedsTrait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cascade bool
	}{
		{name: "enabled", cascade: true},
		{name: "disabled", cascade: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newDispatcher(t, dispatch.Config{CascadeNeedsTrait: tt.cascade}, staticOracle())
			_, ok := d.Resolve("app.NeedsLoggerTrait")
			require.True(t, ok)

			factory := filepath.Join(d.Store().Root(), "app", "LoggerFactory.gen.go")
			proxy := filepath.Join(d.Store().Root(), "app", "LoggerProxy.gen.go")
			if tt.cascade {
				assert.FileExists(t, factory)
				assert.FileExists(t, proxy)
			} else {
				assert.NoFileExists(t, factory)
				assert.NoFileExists(t, proxy)
			}
		})
	}
}

func TestResolve_CascadeFailureDoesNotAffectTrait(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, dispatch.Config{CascadeNeedsTrait: true}, oracle.NewStatic())

	path, ok := d.Resolve("app.NeedsWidgetTrait")
	require.True(t, ok)
	assert.FileExists(t, path)
	assert.NoFileExists(t, filepath.Join(d.Store().Root(), "app", "WidgetFactory.gen.go"))
}

// -------------------------
// Configuration
// -------------------------

func TestNew_UnwritableRoot(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := dispatch.New(dispatch.Config{GenerationDir: file}, nil)
	var ce *cache.ConfigurationError
	assert.ErrorAs(t, err, &ce)
}

func TestNew_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := dispatch.New(dispatch.Config{}, nil)
	var ce *cache.ConfigurationError
	assert.ErrorAs(t, err, &ce)
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, dispatch.Config{}, nil)
	assert.Equal(t, dispatch.DefaultVersion, d.Config().Version)
	assert.Equal(t, strategy.DefaultRuntimeImport, d.Config().RuntimeImport)
	assert.Equal(t, dispatch.DefaultVersion, d.Store().Version())
}
