// Package format runs one formatting request end to end.
//
// A Service composes the cached lookups of this module into a single call:
//
//  1. an empty file name returns the text unchanged without touching an engine
//  2. the file name is resolved against the working directory
//  3. an engine is located for the file's directory; none means unchanged
//  4. the engine's ignore check runs; an ignored file is returned unchanged
//  5. the file's configuration is resolved
//  6. options are merged: request defaults, then resolved configuration, then
//     plugin search directories
//  7. the engine formats the text
//
// Only steps 3 and 4 short-circuit. Errors from the engine are returned as
// the engine produced them.
//
// The three caches behind a Service live as long as the Service. Build one
// Service per process and share it.
package format
