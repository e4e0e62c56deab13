package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/fmtcache/engine"
)

// ResolveConfig returns the options that apply to fullPath, or nil when no
// configuration file applies.
//
// With opts.EditorConfig set, .editorconfig properties form the lower layer
// and the nearest rc file is applied over them. opts.UseCache is accepted and
// ignored; the engine keeps no discovery cache.
func (e *Engine) ResolveConfig(_ context.Context, fullPath string, opts engine.ResolveConfigOptions) (engine.Options, error) {
	var out engine.Options

	if opts.EditorConfig {
		ec, err := editorConfigOptions(fullPath)
		if err != nil {
			return nil, err
		}
		out = ec
	}

	rcPath, ok := e.findRC(filepath.Dir(fullPath))
	if !ok {
		return out, nil
	}
	rc, err := loadRC(rcPath, fullPath)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = engine.Options{}
	}
	for k, v := range rc {
		out[k] = v
	}
	return out, nil
}

// findRC walks upward from dir, dir included, for the first rc file.
func (e *Engine) findRC(dir string) (string, bool) {
	current := filepath.Clean(dir)
	for {
		for _, name := range e.rcNames {
			candidate := filepath.Join(current, name)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, true
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// patternList decodes either a single glob or a list of globs.
type patternList []string

func (p *patternList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*p = patternList{one}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*p = list
	return nil
}

func (p *patternList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*p = patternList{value.Value}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*p = list
	return nil
}

type rcOverride struct {
	Files        patternList    `json:"files" yaml:"files"`
	ExcludeFiles patternList    `json:"excludeFiles" yaml:"excludeFiles"`
	Options      map[string]any `json:"options" yaml:"options"`
}

type rcFile struct {
	Overrides []rcOverride `json:"overrides" yaml:"overrides"`
}

// decodeRC decodes JSON objects with encoding/json, since tab-indented JSON
// is not valid YAML, and everything else with yaml.v3.
func decodeRC(data []byte, v any) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return json.Unmarshal(trimmed, v)
	}
	return yaml.Unmarshal(data, v)
}

// loadRC parses an rc file and applies the overrides matching fullPath.
func loadRC(rcPath, fullPath string) (engine.Options, error) {
	data, err := os.ReadFile(rcPath)
	if err != nil {
		return nil, err
	}

	var base map[string]any
	if err := decodeRC(data, &base); err != nil {
		return nil, fmt.Errorf("builtin: parse %s: %w", rcPath, err)
	}
	var rc rcFile
	if err := decodeRC(data, &rc); err != nil {
		return nil, fmt.Errorf("builtin: parse %s overrides: %w", rcPath, err)
	}

	out := engine.Options{}
	for k, v := range base {
		if k == "overrides" {
			continue
		}
		out[k] = v
	}

	rel, err := filepath.Rel(filepath.Dir(rcPath), fullPath)
	if err != nil {
		rel = filepath.Base(fullPath)
	}
	rel = filepath.ToSlash(rel)

	for _, o := range rc.Overrides {
		if !matchesAny(o.Files, rel) || matchesAny(o.ExcludeFiles, rel) {
			continue
		}
		for k, v := range o.Options {
			out[k] = v
		}
	}
	return out, nil
}

// matchesAny matches patterns without a slash against the base name and
// patterns with one against the rc-relative path.
func matchesAny(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, p := range patterns {
		target := base
		if strings.Contains(p, "/") {
			target = rel
		}
		if ok, _ := path.Match(p, target); ok {
			return true
		}
	}
	return false
}

// editorConfigOptions maps the .editorconfig properties for fullPath onto
// engine options. It returns nil when none of the mapped properties are set.
func editorConfigOptions(fullPath string) (engine.Options, error) {
	def, err := editorconfig.GetDefinitionForFilename(fullPath)
	if err != nil {
		return nil, fmt.Errorf("builtin: editorconfig: %w", err)
	}

	out := engine.Options{}
	raw := def.Raw

	switch strings.ToLower(raw["indent_style"]) {
	case "tab":
		out[engine.OptUseTabs] = true
	case "space":
		out[engine.OptUseTabs] = false
	}

	width := raw["indent_size"]
	if width == "" || width == "tab" {
		width = raw["tab_width"]
	}
	if n, err := strconv.Atoi(width); err == nil && n > 0 {
		out[engine.OptTabWidth] = n
	}

	if n, err := strconv.Atoi(raw["max_line_length"]); err == nil && n > 0 {
		out[engine.OptPrintWidth] = n
	}

	switch eol := strings.ToLower(raw["end_of_line"]); eol {
	case "lf", "crlf", "cr":
		out[engine.OptEndOfLine] = eol
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
