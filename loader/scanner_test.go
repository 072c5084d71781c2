package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sghaida/autocode/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	ok    map[string]bool
	calls []string
}

func (h *recordingHook) Load(name string) bool {
	h.calls = append(h.calls, name)
	return h.ok[name]
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func demoModule(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"go.mod": "module example.com/demo\n\ngo 1.25\n",
		"app/app.go": `package app

import (
	"fmt"

	"example.com/demo/gen"
	svc "example.com/demo/gen/services"
)

type Service struct{}

func NewService(p *gen.LoggerProxy, f svc.WidgetFactory, n int, s fmt.Stringer, opts ...*gen.Option) *Service {
	return &Service{}
}

func NewOther(s Service, again *gen.LoggerProxy) {}

func (s *Service) NewThing(x gen.Ignored) {}

func build(x gen.AlsoIgnored) {}
`,
		"app/app_test.go": `package app

import "example.com/demo/gen"

func NewFromTest(x gen.FromTest) {}
`,
		"gen/local.go": `package gen

func NewLocal(x NeedsLoggerTrait, err error, m map[string]int) {}
`,
		"gen/LoggerProxy.gen.go": `package gen

func NewGenerated(x FromGenerated) {}
`,
		"app/testdata/fixture.go": `package fixture

import "example.com/demo/gen"

func NewFixture(x gen.FromFixture) {}
`,
		"app/_hidden/skip.go": `package skip

import "example.com/demo/gen"

func NewSkip(x gen.FromHidden) {}
`,
		"app/broken.go": "package app\n\nfunc NewBroken(",
	})
	return root
}

func TestScanner_Collect(t *testing.T) {
	t.Parallel()

	root := demoModule(t)
	s, err := loader.NewScanner(&recordingHook{}, filepath.Join(root, "gen"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/demo/gen", s.ImportPath())

	got, err := s.Collect(filepath.Join(root, "app"), filepath.Join(root, "gen"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"LoggerProxy",
		"NeedsLoggerTrait",
		"Option",
		"services.WidgetFactory",
	}, got)
}

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	root := demoModule(t)
	hook := &recordingHook{ok: map[string]bool{"LoggerProxy": true, "NeedsLoggerTrait": true}}
	s, err := loader.NewScanner(hook, filepath.Join(root, "gen"))
	require.NoError(t, err)

	report, err := s.Scan(filepath.Join(root, "app"), filepath.Join(root, "gen"))
	require.NoError(t, err)

	assert.Equal(t, report.Requested, hook.calls, "each name is loaded once, in order")
	assert.Equal(t, []string{"LoggerProxy", "NeedsLoggerTrait"}, report.Loaded)
	assert.Equal(t, []string{"Option", "services.WidgetFactory"}, report.Missing)
}

func TestScanner_MissingDir(t *testing.T) {
	t.Parallel()

	s, err := loader.NewScanner(&recordingHook{}, t.TempDir())
	require.NoError(t, err)

	_, err = s.Scan(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestScanner_NoModule(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"gen/a.go": "package gen\n\nfunc NewA(x LoggerProxy) {}\n",
	})

	s, err := loader.NewScanner(&recordingHook{}, filepath.Join(root, "gen"))
	require.NoError(t, err)

	got, err := s.Collect(filepath.Join(root, "gen"))
	require.NoError(t, err)
	assert.Equal(t, []string{"LoggerProxy"}, got)
}
