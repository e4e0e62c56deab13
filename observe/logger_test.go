package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, line)
		}
		out = append(out, entry)
	}
	return out
}

func TestLogger_IncludesOpFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).WithOp(OpMeta{
		Name: "run",
		File: "src/a.js",
		Cwd:  "/proj",
	})

	logger.Info(context.Background(), "format run completed")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["op.name"] != "run" {
		t.Errorf("op.name = %v, want run", e["op.name"])
	}
	if e["op.file"] != "src/a.js" {
		t.Errorf("op.file = %v, want src/a.js", e["op.file"])
	}
	if e["op.cwd"] != "/proj" {
		t.Errorf("op.cwd = %v, want /proj", e["op.cwd"])
	}
	if e["level"] != "info" || e["msg"] != "format run completed" {
		t.Errorf("unexpected level/msg: %v / %v", e["level"], e["msg"])
	}
	if _, ok := e["timestamp"].(string); !ok {
		t.Error("missing timestamp")
	}
}

func TestLogger_OmitsEmptyOpFields(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter("info", &buf).WithOp(OpMeta{Name: "run"}).Info(context.Background(), "x")

	e := decodeLines(t, &buf)[0]
	if _, ok := e["op.file"]; ok {
		t.Error("op.file should be omitted when empty")
	}
	if _, ok := e["op.cwd"]; ok {
		t.Error("op.cwd should be omitted when empty")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0]["level"] != "warn" || entries[1]["level"] != "error" {
		t.Errorf("unexpected levels: %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestLogger_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "x",
		Field{Key: "text", Value: "const secret = 1"},
		Field{Key: "token", Value: "abc"},
		Field{Key: "dir", Value: "/proj"},
	)

	e := decodeLines(t, &buf)[0]
	if e["text"] != "[REDACTED]" {
		t.Errorf("text = %v, want [REDACTED]", e["text"])
	}
	if e["token"] != "[REDACTED]" {
		t.Errorf("token = %v, want [REDACTED]", e["token"])
	}
	if e["dir"] != "/proj" {
		t.Errorf("dir = %v, want /proj", e["dir"])
	}
}

func TestLogger_DerivedLoggersShareWriter(t *testing.T) {
	var buf bytes.Buffer
	root := NewLoggerWithWriter("info", &buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			root.WithOp(OpMeta{Name: "run"}).Info(context.Background(), "concurrent")
		}()
	}
	wg.Wait()

	if got := len(decodeLines(t, &buf)); got != 20 {
		t.Errorf("got %d entries, want 20", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
