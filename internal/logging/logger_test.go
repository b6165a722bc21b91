package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"paddock/internal/config"
	"paddock/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("resolver ready")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "paddock.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "resolver ready") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "resolver").Info("message without caller", logging.String("source", "ergast"))

	content := readFile(t, logPath)
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if !strings.Contains(content, "INFO resolver: message without caller source=ergast") {
		t.Fatalf("unexpected console line %q", content)
	}
	if strings.Contains(content, "\x1b[") {
		t.Fatalf("expected no color escapes for file output, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")

	if content := readFile(t, logPath); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerColorsWhenForced(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "color.log")
	enabled := true
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}, Color: &enabled})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("careful")

	if content := readFile(t, logPath); !strings.Contains(content, "\x1b[") {
		t.Fatalf("expected ANSI color in forced mode, got %q", content)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithEntityType(logging.WithRunID(context.Background(), "run-1"), "driver")
	logging.WarnWithContext(logging.WithContext(ctx, logger), "record skipped", "input_rejected")

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readFile(t, logPath))), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for key, want := range map[string]string{
		"level":       "warn",
		"msg":         "record skipped",
		"run_id":      "run-1",
		"entity_type": "driver",
		"event_type":  "input_rejected",
	} {
		if payload[key] != want {
			t.Fatalf("expected %s=%q, got %v", key, want, payload[key])
		}
	}
	if _, ok := payload["error_hint"]; !ok {
		t.Fatal("expected default error_hint")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}
