package format

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jonwraymond/fmtcache/engine"
	"github.com/jonwraymond/fmtcache/engine/builtin"
)

// fakeEngine records every call and answers from its fields.
type fakeEngine struct {
	mu sync.Mutex

	ignored   bool
	config    engine.Options
	formatted string
	formatErr error
	infoErr   error

	infoCalls    int
	resolveCalls int
	formatCalls  int
	lastInfo     engine.FileInfoOptions
	lastFileName string
	lastOpts     engine.Options
}

func (f *fakeEngine) FileInfo(_ context.Context, fileName string, opts engine.FileInfoOptions) (engine.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls++
	f.lastFileName = fileName
	f.lastInfo = opts
	return engine.FileInfo{Ignored: f.ignored}, f.infoErr
}

func (f *fakeEngine) ResolveConfig(context.Context, string, engine.ResolveConfigOptions) (engine.Options, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls++
	return f.config.Clone(), nil
}

func (f *fakeEngine) Format(_ context.Context, text string, opts engine.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.formatCalls++
	f.lastOpts = opts
	if f.formatErr != nil {
		return "", f.formatErr
	}
	if f.formatted != "" {
		return f.formatted, nil
	}
	return text, nil
}

func (f *fakeEngine) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.infoCalls + f.resolveCalls + f.formatCalls
}

// countingLoader counts loads and yields eng.
type countingLoader struct {
	eng   engine.Engine
	calls atomic.Int64
}

func (l *countingLoader) Load(context.Context, string) (engine.Engine, error) {
	l.calls.Add(1)
	if l.eng == nil {
		return nil, engine.ErrEngineNotFound
	}
	return l.eng, nil
}

// fixture lays out a project and a tool install under one temp root.
type fixture struct {
	proj string
	tool string
}

func newFixture(t *testing.T, withModules bool) fixture {
	t.Helper()
	root := t.TempDir()
	fx := fixture{
		proj: filepath.Join(root, "proj"),
		tool: filepath.Join(root, "tool", "bin"),
	}
	dirs := []string{filepath.Join(fx.proj, "src"), fx.tool}
	if withModules {
		dirs = append(dirs,
			filepath.Join(fx.proj, "node_modules"),
			filepath.Join(root, "tool", "node_modules"),
		)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	// Keep editorconfig discovery inside the fixture.
	if err := os.WriteFile(filepath.Join(root, ".editorconfig"), []byte("root = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return fx
}

func newService(fx fixture, local engine.Loader) *Service {
	return New(Config{Local: local, ToolDir: fx.tool})
}

func TestRun_EmptyFileNameDoesNoEngineWork(t *testing.T) {
	fx := newFixture(t, false)
	eng := &fakeEngine{formatted: "changed"}
	loader := &countingLoader{eng: eng}
	svc := newService(fx, loader)

	got, err := svc.Run(context.Background(), Request{Cwd: fx.proj, Text: "let x=1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "let x=1" {
		t.Errorf("Run() = %q, want input unchanged", got)
	}
	if loader.calls.Load() != 0 || eng.calls() != 0 {
		t.Errorf("engine work happened: loads=%d calls=%d", loader.calls.Load(), eng.calls())
	}
}

func TestRun_NoEngineReturnsTextUnchanged(t *testing.T) {
	fx := newFixture(t, false)
	svc := New(Config{Local: &countingLoader{}, ToolDir: fx.tool})

	got, err := svc.Run(context.Background(), Request{Cwd: fx.proj, FileName: "a.js", Text: "let x=1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "let x=1" {
		t.Errorf("Run() = %q, want input unchanged", got)
	}
}

func TestRun_IgnoredFileReturnsTextByteForByte(t *testing.T) {
	fx := newFixture(t, false)
	eng := &fakeEngine{ignored: true, formatted: "changed"}
	svc := newService(fx, &countingLoader{eng: eng})

	text := "a  \r\n\tb\n\n"
	got, err := svc.Run(context.Background(), Request{Cwd: fx.proj, FileName: "dist/a.js", Text: text})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != text {
		t.Errorf("Run() = %q, want %q", got, text)
	}
	if eng.formatCalls != 0 || eng.resolveCalls != 0 {
		t.Error("ignored file should not be resolved or formatted")
	}
}

func TestRun_IgnoreOptions(t *testing.T) {
	fx := newFixture(t, false)
	eng := &fakeEngine{}
	svc := newService(fx, &countingLoader{eng: eng})
	ctx := context.Background()

	if _, err := svc.Run(ctx, Request{Cwd: fx.proj, FileName: "src/a.js", Text: "x"}); err != nil {
		t.Fatal(err)
	}
	if eng.lastFileName != "src/a.js" {
		t.Errorf("FileInfo fileName = %q, want the name as given", eng.lastFileName)
	}
	if eng.lastInfo.Cwd != fx.proj {
		t.Errorf("FileInfo Cwd = %q, want %q", eng.lastInfo.Cwd, fx.proj)
	}

	custom := engine.FileInfoOptions{IgnorePath: "/etc/ignore", Cwd: "/elsewhere"}
	if _, err := svc.Run(ctx, Request{Cwd: fx.proj, FileName: "src/a.js", Text: "x", Ignore: custom}); err != nil {
		t.Fatal(err)
	}
	if eng.lastInfo != custom {
		t.Errorf("FileInfo options = %+v, want %+v", eng.lastInfo, custom)
	}
}

func TestRun_MergePrecedence(t *testing.T) {
	fx := newFixture(t, true)
	eng := &fakeEngine{config: engine.Options{
		engine.OptPrintWidth:       100,
		engine.OptPluginSearchDirs: []string{"/from/config"},
	}}
	svc := newService(fx, &countingLoader{eng: eng})

	// Ancestor search skips cwd itself, so run from a subdirectory to find
	// proj/node_modules.
	_, err := svc.Run(context.Background(), Request{
		Cwd:      filepath.Join(fx.proj, "src"),
		FileName: "a.js",
		Text:     "x",
		Defaults: engine.Options{
			engine.OptPrintWidth:       80,
			engine.OptTabWidth:         4,
			engine.OptPluginSearchDirs: []string{"/from/defaults"},
		},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	opts := eng.lastOpts
	if opts[engine.OptPrintWidth] != 100 {
		t.Errorf("printWidth = %v, want 100", opts[engine.OptPrintWidth])
	}
	if opts[engine.OptTabWidth] != 4 {
		t.Errorf("tabWidth = %v, want 4", opts[engine.OptTabWidth])
	}
	if want := filepath.Join(fx.proj, "src", "a.js"); opts[engine.OptFilepath] != want {
		t.Errorf("filepath = %v, want %v", opts[engine.OptFilepath], want)
	}
	wantDirs := []string{fx.proj, filepath.Join(filepath.Dir(fx.tool), "node_modules")}
	if !reflect.DeepEqual(opts[engine.OptPluginSearchDirs], wantDirs) {
		t.Errorf("pluginSearchDirs = %v, want %v", opts[engine.OptPluginSearchDirs], wantDirs)
	}
}

func TestRun_AbsoluteFileName(t *testing.T) {
	fx := newFixture(t, false)
	eng := &fakeEngine{}
	svc := newService(fx, &countingLoader{eng: eng})

	abs := filepath.Join(fx.proj, "src", "a.js")
	if _, err := svc.Run(context.Background(), Request{Cwd: "/unrelated", FileName: abs, Text: "x"}); err != nil {
		t.Fatal(err)
	}
	if eng.lastOpts[engine.OptFilepath] != abs {
		t.Errorf("filepath = %v, want %v", eng.lastOpts[engine.OptFilepath], abs)
	}
}

func TestRun_ErrorsPropagateUnwrapped(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	formatErr := errors.New("SyntaxError: Unexpected token (1:5)")
	svc := newService(fx, &countingLoader{eng: &fakeEngine{formatErr: formatErr}})
	if _, err := svc.Run(ctx, Request{Cwd: fx.proj, FileName: "a.js", Text: "let ="}); err != formatErr {
		t.Errorf("Run() error = %v, want the engine's error value", err)
	}

	infoErr := errors.New("cannot read ignore file")
	svc = newService(fx, &countingLoader{eng: &fakeEngine{infoErr: infoErr}})
	if _, err := svc.Run(ctx, Request{Cwd: fx.proj, FileName: "a.js", Text: "x"}); err != infoErr {
		t.Errorf("Run() error = %v, want the engine's error value", err)
	}
}

func TestRun_CachesAcrossCalls(t *testing.T) {
	fx := newFixture(t, false)
	eng := &fakeEngine{}
	loader := &countingLoader{eng: eng}
	svc := newService(fx, loader)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Run(ctx, Request{Cwd: fx.proj, FileName: "src/a.js", Text: "x"}); err != nil {
			t.Fatal(err)
		}
	}
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("engine loads = %d, want 1", got)
	}
	if eng.resolveCalls != 1 {
		t.Errorf("config resolutions = %d, want 1", eng.resolveCalls)
	}
	if eng.infoCalls != 3 || eng.formatCalls != 3 {
		t.Errorf("FileInfo/Format calls = %d/%d, want 3/3", eng.infoCalls, eng.formatCalls)
	}
}

func TestRun_NewlineInFileName(t *testing.T) {
	fx := newFixture(t, false)
	eng := &fakeEngine{formatted: "let x = 1\n"}
	svc := newService(fx, &countingLoader{eng: eng})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := svc.Run(ctx, Request{Cwd: fx.proj, FileName: "a\nb.js", Text: "let x=1"})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got != "let x = 1\n" {
			t.Errorf("Run() = %q, want formatted text", got)
		}
	}
	if eng.lastOpts[engine.OptFilepath] != filepath.Join(fx.proj, "a\nb.js") {
		t.Errorf("filepath = %v", eng.lastOpts[engine.OptFilepath])
	}
	if eng.resolveCalls != 2 {
		t.Errorf("config resolutions = %d, want 2 (uncached)", eng.resolveCalls)
	}
}

// recordingEngine passes through to an engine and records the format options.
type recordingEngine struct {
	engine.Engine
	opts engine.Options
}

func (r *recordingEngine) Format(ctx context.Context, text string, opts engine.Options) (string, error) {
	r.opts = opts
	return r.Engine.Format(ctx, text, opts)
}

func TestRun_BundledFallbackEndToEnd(t *testing.T) {
	fx := newFixture(t, false)
	bundled := &recordingEngine{Engine: builtin.New(builtin.Config{})}
	svc := New(Config{
		Local:   engine.ModuleLoader{Name: "prettier", Bin: "bin/prettier"},
		Bundled: engine.Bundled(bundled),
		ToolDir: fx.tool,
	})

	got, err := svc.Run(context.Background(), Request{Cwd: fx.proj, FileName: "a.js", Text: "let x=1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "let x=1\n" {
		t.Errorf("Run() = %q, want %q", got, "let x=1\n")
	}

	dirs, ok := bundled.opts[engine.OptPluginSearchDirs].([]string)
	if !ok || dirs == nil || len(dirs) != 0 {
		t.Errorf("pluginSearchDirs = %#v, want empty slice", bundled.opts[engine.OptPluginSearchDirs])
	}
	want := engine.Options{
		engine.OptFilepath:         filepath.Join(fx.proj, "a.js"),
		engine.OptPluginSearchDirs: []string{},
	}
	if !reflect.DeepEqual(bundled.opts, want) {
		t.Errorf("format options = %v, want %v", bundled.opts, want)
	}
}

func TestRun_Idempotent(t *testing.T) {
	fx := newFixture(t, false)
	svc := New(Config{Bundled: builtin.Loader(builtin.Config{}), ToolDir: fx.tool})
	ctx := context.Background()

	for _, tc := range []struct{ name, text string }{
		{"a.js", "let x=1\n"},
		{"a.json", "{\n  \"a\": 1\n}\n"},
		{"a.go", "package a\n\nvar x = 1\n"},
	} {
		got, err := svc.Run(ctx, Request{Cwd: fx.proj, FileName: tc.name, Text: tc.text})
		if err != nil {
			t.Fatalf("Run(%s) error = %v", tc.name, err)
		}
		if got != tc.text {
			t.Errorf("Run(%s) = %q, want unchanged %q", tc.name, got, tc.text)
		}
	}
}

func TestFormatResult(t *testing.T) {
	fx := newFixture(t, false)
	svc := New(Config{Bundled: builtin.Loader(builtin.Config{}), ToolDir: fx.tool})
	ctx := context.Background()

	res, err := svc.Format(ctx, Request{Cwd: fx.proj, FileName: "a.js", Text: "let x=1"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed || res.Text != "let x=1\n" {
		t.Errorf("Format() = %+v, want changed text", res)
	}

	res, err = svc.Format(ctx, Request{Cwd: fx.proj, FileName: "a.js", Text: "let x=1\n"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed {
		t.Error("already formatted text reported as changed")
	}

	res, err = svc.Format(ctx, Request{Cwd: fx.proj, FileName: "a.json", Text: "{"})
	if err == nil {
		t.Fatal("Format() of invalid JSON should fail")
	}
	if res.Text != "{" || res.Changed {
		t.Errorf("failed Format() = %+v, want original text", res)
	}
}

func TestGo(t *testing.T) {
	fx := newFixture(t, false)
	svc := New(Config{Bundled: builtin.Loader(builtin.Config{}), ToolDir: fx.tool, MaxInFlight: 2})

	var (
		mu      sync.Mutex
		results []Result
	)
	for i := 0; i < 10; i++ {
		svc.Go(context.Background(), Request{Cwd: fx.proj, FileName: "a.js", Text: "let x=1"}, func(r Result, err error) {
			if err != nil {
				t.Errorf("job error = %v", err)
			}
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		})
	}
	svc.Wait()

	if len(results) != 10 {
		t.Fatalf("got %d results, want 10", len(results))
	}
	for _, r := range results {
		if r.Text != "let x=1\n" {
			t.Errorf("job result = %q", r.Text)
		}
	}
}

func TestNilService(t *testing.T) {
	var svc *Service
	if _, err := svc.Run(context.Background(), Request{}); !errors.Is(err, ErrNilService) {
		t.Errorf("Run() error = %v, want %v", err, ErrNilService)
	}
	var gotErr error
	svc.Go(context.Background(), Request{}, func(_ Result, err error) { gotErr = err })
	if !errors.Is(gotErr, ErrNilService) {
		t.Errorf("Go() error = %v, want %v", gotErr, ErrNilService)
	}
	svc.Wait()
}
