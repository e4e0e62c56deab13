package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Subprocess operation names, passed as the first argument to the binary.
const (
	OpFileInfo      = "file-info"
	OpResolveConfig = "resolve-config"
	OpFormat        = "format"
)

// ExecEngine drives an engine binary through a JSON request/response protocol.
//
// Each call runs `<Path> <op>` with one JSON request on stdin and reads one
// JSON response from stdout. A non-zero exit is an ErrExecFailed error. A
// response carrying a non-empty "error" field is returned as an error with
// exactly that message.
type ExecEngine struct {
	Path string
}

// NewExecEngine creates an ExecEngine for the binary at path.
func NewExecEngine(path string) *ExecEngine {
	return &ExecEngine{Path: path}
}

type execRequest struct {
	FileName string `json:"fileName,omitempty"`
	FullPath string `json:"fullPath,omitempty"`
	Text     string `json:"text,omitempty"`
	Options  any    `json:"options"`
}

type execResponse struct {
	Ignored bool    `json:"ignored"`
	Options Options `json:"options"`
	Text    string  `json:"text"`
	Error   string  `json:"error"`
}

// FileInfo implements Engine.
func (e *ExecEngine) FileInfo(ctx context.Context, fileName string, opts FileInfoOptions) (FileInfo, error) {
	resp, err := e.call(ctx, OpFileInfo, execRequest{FileName: fileName, Options: opts})
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Ignored: resp.Ignored}, nil
}

// ResolveConfig implements Engine.
func (e *ExecEngine) ResolveConfig(ctx context.Context, fullPath string, opts ResolveConfigOptions) (Options, error) {
	resp, err := e.call(ctx, OpResolveConfig, execRequest{FullPath: fullPath, Options: opts})
	if err != nil {
		return nil, err
	}
	return resp.Options, nil
}

// Format implements Engine.
func (e *ExecEngine) Format(ctx context.Context, text string, opts Options) (string, error) {
	resp, err := e.call(ctx, OpFormat, execRequest{Text: text, Options: opts})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (e *ExecEngine) call(ctx context.Context, op string, req execRequest) (execResponse, error) {
	var resp execResponse

	payload, err := json.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("engine: encode %s request: %w", op, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Path, op)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return resp, fmt.Errorf("%w: %s %s: %s", ErrExecFailed, e.Path, op, msg)
	}

	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return resp, fmt.Errorf("%w: %s %s: %v", ErrBadResponse, e.Path, op, err)
	}
	if resp.Error != "" {
		return resp, errors.New(resp.Error)
	}
	return resp, nil
}

var _ Engine = (*ExecEngine)(nil)
