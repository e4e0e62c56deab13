package builtin

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jonwraymond/fmtcache/engine"
)

// FileInfo reports whether fileName matches the ignore file.
//
// The ignore file is opts.IgnorePath, or the default ignore file name,
// resolved against opts.Cwd when relative. fileName is matched relative to
// the ignore file's directory. A missing ignore file ignores nothing, and so
// does a file outside the ignore file's directory.
func (e *Engine) FileInfo(_ context.Context, fileName string, opts engine.FileInfoOptions) (engine.FileInfo, error) {
	ignorePath := opts.IgnorePath
	if ignorePath == "" {
		ignorePath = e.ignoreFile
	}
	ignorePath = absFrom(opts.Cwd, ignorePath)

	gi, err := ignore.CompileIgnoreFile(ignorePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return engine.FileInfo{}, nil
		}
		return engine.FileInfo{}, err
	}

	rel, err := filepath.Rel(filepath.Dir(ignorePath), absFrom(opts.Cwd, fileName))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return engine.FileInfo{}, nil
	}

	return engine.FileInfo{Ignored: gi.MatchesPath(filepath.ToSlash(rel))}, nil
}

func absFrom(cwd, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	if cwd == "" {
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return filepath.Join(cwd, p)
}
