package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go/format"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/fmtcache/engine"
)

// Languages Format knows how to print.
const (
	LangJSON = "json"
	LangYAML = "yaml"
	LangGo   = "go"
	LangText = "text"
)

const (
	defaultTabWidth = 2
	defaultEOL      = "lf"
)

var extLanguages = map[string]string{
	".json": LangJSON,
	".yaml": LangYAML,
	".yml":  LangYAML,
	".go":   LangGo,
}

// Language returns the language Format uses for opts: the parser option when
// it names a known language, else the extension of the filepath option, else
// LangText.
func Language(opts engine.Options) string {
	if p, ok := opts[engine.OptParser].(string); ok {
		switch p {
		case LangJSON, LangYAML, LangGo:
			return p
		}
	}
	if fp, ok := opts[engine.OptFilepath].(string); ok {
		if lang, ok := extLanguages[strings.ToLower(filepath.Ext(fp))]; ok {
			return lang
		}
	}
	return LangText
}

// Format formats text according to opts.
//
// Plain text has trailing whitespace trimmed from every line and trailing
// blank lines dropped. JSON, YAML and Go keep their printer's line content.
// The output ends with exactly one line ending unless insertFinalNewline is
// false. Line endings follow endOfLine: "lf" (default), "crlf" or "cr".
func (e *Engine) Format(_ context.Context, text string, opts engine.Options) (string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		out  string
		err  error
		lang = Language(opts)
	)
	switch lang {
	case LangJSON:
		out, err = formatJSON(text, indentUnit(opts))
	case LangYAML:
		out, err = formatYAML(text, intOption(opts, engine.OptTabWidth, defaultTabWidth))
	case LangGo:
		out, err = formatGo(text)
	default:
		out = text
	}
	if err != nil {
		return "", err
	}

	if lang == LangText {
		out = trimLines(out)
	}
	return finish(out, boolOption(opts, engine.OptInsertFinalNewline, true), lineEnding(opts)), nil
}

func formatJSON(text, indent string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(text)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", indent); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return out.String(), nil
}

func formatYAML(text string, indent int) (string, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))

	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(indent)

	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		if err := enc.Encode(&doc); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return out.String(), nil
}

func formatGo(text string) (string, error) {
	src, err := format.Source([]byte(text))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidGo, err)
	}
	return string(src), nil
}

// trimLines removes trailing whitespace from every line and drops trailing
// blank lines.
func trimLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// finish applies the final newline and line ending policy. Line content is
// left untouched.
func finish(text string, finalNewline bool, eol string) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ""
	}

	out := strings.ReplaceAll(text, "\n", eol)
	if finalNewline {
		out += eol
	}
	return out
}

func indentUnit(opts engine.Options) string {
	if boolOption(opts, engine.OptUseTabs, false) {
		return "\t"
	}
	return strings.Repeat(" ", intOption(opts, engine.OptTabWidth, defaultTabWidth))
}

func lineEnding(opts engine.Options) string {
	v, _ := opts[engine.OptEndOfLine].(string)
	if v == "" {
		v = defaultEOL
	}
	switch v {
	case "crlf":
		return "\r\n"
	case "cr":
		return "\r"
	default:
		return "\n"
	}
}

// intOption reads an integer option. Values decoded from JSON arrive as
// float64 and values decoded from YAML as int.
func intOption(opts engine.Options, key string, def int) int {
	switch v := opts[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return int(v)
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return def
}

func boolOption(opts engine.Options, key string, def bool) bool {
	if v, ok := opts[key].(bool); ok {
		return v
	}
	return def
}
