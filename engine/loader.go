package engine

import "context"

// Loader loads an engine for a directory.
//
// Contract:
//   - Errors: an engine that is simply not installed for dir is reported as
//     an error wrapping ErrEngineNotFound.
type Loader interface {
	Load(ctx context.Context, dir string) (Engine, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, dir string) (Engine, error)

// Load calls f(ctx, dir).
func (f LoaderFunc) Load(ctx context.Context, dir string) (Engine, error) {
	return f(ctx, dir)
}

// Bundled returns a Loader that always yields e, regardless of directory.
// A nil e yields ErrEngineNotFound.
func Bundled(e Engine) Loader {
	return LoaderFunc(func(context.Context, string) (Engine, error) {
		if e == nil {
			return nil, ErrEngineNotFound
		}
		return e, nil
	})
}
