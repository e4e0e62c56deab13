// Package engine defines the capability contract of a formatting engine and
// locates an engine for a directory.
//
// An Engine answers three questions: whether a file is ignored, what options
// apply to a path, and what a piece of text looks like once formatted. The
// Locator picks an engine per starting directory: a project-local install
// found by a Loader such as ModuleLoader, or the bundled engine when there is
// none. Answers are cached per directory, including "no engine at all".
package engine
