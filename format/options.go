package format

import "github.com/jonwraymond/fmtcache/engine"

// SettingIgnorePath is the settings key naming a custom ignore file.
const SettingIgnorePath = "ignorePath"

// DefaultOptions derives request defaults from editor buffer settings.
// textWidth and shiftWidth are used when positive; settings are copied over
// them unchanged.
func DefaultOptions(textWidth, shiftWidth int, settings map[string]any) engine.Options {
	opts := engine.Options{}
	if textWidth > 0 {
		opts[engine.OptPrintWidth] = textWidth
	}
	if shiftWidth > 0 {
		opts[engine.OptTabWidth] = shiftWidth
	}
	for k, v := range settings {
		opts[k] = v
	}
	return opts
}

// IgnoreOptions extracts the ignore check options from editor settings.
func IgnoreOptions(settings map[string]any) engine.FileInfoOptions {
	p, _ := settings[SettingIgnorePath].(string)
	return engine.FileInfoOptions{IgnorePath: p}
}

// merge layers defaults, then resolved, then the plugin search directories.
func merge(defaults, resolved engine.Options, searchDirs []string) engine.Options {
	out := make(engine.Options, len(defaults)+len(resolved)+1)
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range resolved {
		out[k] = v
	}
	out[engine.OptPluginSearchDirs] = searchDirs
	return out
}
