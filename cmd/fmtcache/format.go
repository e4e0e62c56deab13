package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/jonwraymond/fmtcache/format"
)

var errNoFiles = errors.New("fmtcache: no files given (use --stdin-filename to read stdin)")

func formatCommand(cfgPath string) *cli.Command {
	return &cli.Command{
		Name:      "format",
		Usage:     "format files, or stdin with --stdin-filename",
		UsageText: "fmtcache format [options] FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "cwd",
				Usage: "working directory relative file names resolve against (default: current directory)",
			},
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "write changed files in place instead of printing them",
			},
			&cli.StringFlag{
				Name:  "stdin-filename",
				Usage: "read text from stdin and format it as this file",
			},
			&cli.IntFlag{
				Name:    "print-width",
				Usage:   "default line width, below project configuration",
				Sources: sources("FMTCACHE_PRINT_WIDTH", "format.print_width", cfgPath),
			},
			&cli.IntFlag{
				Name:    "tab-width",
				Usage:   "default indent width, below project configuration",
				Sources: sources("FMTCACHE_TAB_WIDTH", "format.tab_width", cfgPath),
			},
			&cli.StringFlag{
				Name:    "ignore-path",
				Usage:   "ignore file to use instead of .prettierignore",
				Sources: sources("FMTCACHE_IGNORE_PATH", "format.ignore_path", cfgPath),
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "extra engine option as key=value (repeatable)",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("format.set", altsrc.StringSourcer(cfgPath)),
				),
			},
		},
		Action: formatAction,
	}
}

func formatAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := runtimeFrom(ctx)
	if err != nil {
		return err
	}

	cwd := cmd.String("cwd")
	if cwd == "" {
		if cwd, err = os.Getwd(); err != nil {
			return err
		}
	}

	settings, err := parseSettings(cmd.StringSlice("set"))
	if err != nil {
		return err
	}
	if p := cmd.String("ignore-path"); p != "" {
		settings[format.SettingIgnorePath] = p
	}

	base := format.Request{
		Cwd:      cwd,
		Ignore:   format.IgnoreOptions(settings),
		Defaults: format.DefaultOptions(cmd.Int("print-width"), cmd.Int("tab-width"), settings),
	}

	if name := cmd.String("stdin-filename"); name != "" {
		return formatStdin(ctx, rt.service, base, name)
	}

	files := cmd.Args().Slice()
	if len(files) == 0 {
		return errNoFiles
	}
	return formatFiles(ctx, rt.service, base, files, cmd.Bool("write"))
}

func formatStdin(ctx context.Context, svc *format.Service, req format.Request, name string) error {
	text, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	req.FileName = name
	req.Text = string(text)

	res, err := svc.Format(ctx, req)
	if err != nil {
		return err
	}
	report(name, res)
	_, err = io.WriteString(os.Stdout, res.Text)
	return err
}

type outcome struct {
	res format.Result
	err error
}

// formatFiles formats files concurrently and reports them in argument order.
func formatFiles(ctx context.Context, svc *format.Service, base format.Request, files []string, write bool) error {
	outcomes := make([]outcome, len(files))
	var errs []error

	for i, file := range files {
		text, err := os.ReadFile(filePath(base.Cwd, file))
		if err != nil {
			outcomes[i].err = err
			continue
		}
		req := base
		req.FileName = file
		req.Text = string(text)
		svc.Go(ctx, req, func(res format.Result, err error) {
			outcomes[i] = outcome{res: res, err: err}
		})
	}
	svc.Wait()

	for i, file := range files {
		o := outcomes[i]
		if o.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file, o.err))
			continue
		}
		report(file, o.res)
		switch {
		case write && o.res.Changed:
			if err := writeInPlace(filePath(base.Cwd, file), o.res.Text); err != nil {
				errs = append(errs, err)
			}
		case !write:
			if _, err := io.WriteString(os.Stdout, o.res.Text); err != nil {
				return err
			}
		}
	}
	return errors.Join(errs...)
}

// filePath resolves file the same way the format service does.
func filePath(cwd, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(cwd, file)
}

func writeInPlace(file, text string) error {
	info, err := os.Stat(file)
	if err != nil {
		return err
	}
	return os.WriteFile(file, []byte(text), info.Mode().Perm())
}

func report(file string, res format.Result) {
	verb := "Unchanged"
	if res.Changed {
		verb = "Formatted"
	}
	fmt.Fprintf(os.Stderr, "%s: %s in %dms.\n", file, verb, res.Elapsed.Milliseconds())
}

// parseSettings turns key=value pairs into engine options. Values are
// decoded as YAML scalars, so "false" is a bool and "100" an int.
func parseSettings(pairs []string) (map[string]any, error) {
	settings := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("fmtcache: invalid --set %q, want key=value", pair)
		}
		var value any
		if err := yamlv3.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		settings[key] = value
	}
	return settings, nil
}
