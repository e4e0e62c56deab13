// Package builtin provides the bundled formatting engine.
//
// It is the engine the Locator falls back to when a project has no local
// install. It reads the same project files a project-local engine would:
//
//   - .prettierignore (gitignore syntax) for FileInfo
//   - .prettierrc, .prettierrc.json, .prettierrc.yaml and .prettierrc.yml,
//     including overrides, for ResolveConfig
//   - .editorconfig as a lower configuration layer
//
// Format handles JSON, YAML and Go sources natively and normalizes whitespace
// for everything else.
package builtin
