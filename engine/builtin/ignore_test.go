package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonwraymond/fmtcache/engine"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileInfo(t *testing.T) {
	proj := t.TempDir()
	writeFile(t, filepath.Join(proj, ".prettierignore"), "dist/\n*.min.js\n!keep.min.js\n")

	e := New(Config{})
	ctx := context.Background()

	tests := []struct {
		name     string
		fileName string
		opts     engine.FileInfoOptions
		want     bool
	}{
		{"plain file", "src/a.js", engine.FileInfoOptions{Cwd: proj}, false},
		{"ignored directory", "dist/a.js", engine.FileInfoOptions{Cwd: proj}, true},
		{"ignored glob", "src/a.min.js", engine.FileInfoOptions{Cwd: proj}, true},
		{"negated pattern", "keep.min.js", engine.FileInfoOptions{Cwd: proj}, false},
		{"absolute file name", filepath.Join(proj, "dist", "b.js"), engine.FileInfoOptions{Cwd: proj}, true},
		{"outside ignore root", filepath.Join(filepath.Dir(proj), "dist", "a.js"), engine.FileInfoOptions{Cwd: proj}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.FileInfo(ctx, tt.fileName, tt.opts)
			if err != nil {
				t.Fatalf("FileInfo() error = %v", err)
			}
			if got.Ignored != tt.want {
				t.Errorf("FileInfo(%q).Ignored = %v, want %v", tt.fileName, got.Ignored, tt.want)
			}
		})
	}
}

func TestFileInfo_CustomIgnorePath(t *testing.T) {
	proj := t.TempDir()
	writeFile(t, filepath.Join(proj, "config", "fmtignore"), "*.js\n")

	e := New(Config{})
	got, err := e.FileInfo(context.Background(), filepath.Join(proj, "config", "a.js"), engine.FileInfoOptions{
		IgnorePath: "config/fmtignore",
		Cwd:        proj,
	})
	if err != nil {
		t.Fatalf("FileInfo() error = %v", err)
	}
	if !got.Ignored {
		t.Error("expected file to be ignored by the custom ignore file")
	}
}

func TestFileInfo_MissingIgnoreFile(t *testing.T) {
	e := New(Config{})
	got, err := e.FileInfo(context.Background(), "a.js", engine.FileInfoOptions{Cwd: t.TempDir()})
	if err != nil {
		t.Fatalf("FileInfo() error = %v", err)
	}
	if got.Ignored {
		t.Error("nothing should be ignored without an ignore file")
	}
}
