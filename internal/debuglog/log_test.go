package debuglog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelOff, "OFF"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("LogLevel.String() = %q, want %q", got, test.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" info ", LevelInfo},
		{"WARN", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"off", LevelOff},
		{"INVALID", LevelInfo}, // Default to INFO
		{"", LevelInfo},
	}

	for _, test := range tests {
		if got := ParseLogLevel(test.input); got != test.expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", test.input, got, test.expected)
		}
	}
}

func TestSetupWithLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "test.log")

	if err := Setup(LevelInfo, logPath); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer Setup(LevelInfo)

	if GetLevel() != LevelInfo {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelInfo)
	}

	Debugf("debug message") // Should not appear
	Infof("info message")
	Warnf("warn message")
	Errorf("error message")

	if err := Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}

	logContent := string(content)
	if strings.Contains(logContent, "debug message") {
		t.Error("DEBUG message should not appear with INFO level")
	}
	for _, msg := range []string{"info message", "warn message", "error message"} {
		if !strings.Contains(logContent, msg) {
			t.Errorf("%q should appear with INFO level", msg)
		}
	}
}

func TestSetupWithLevelOff(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup(LevelOff); err != nil {
		t.Fatalf("Setup with LevelOff failed: %v", err)
	}
	defer Setup(LevelInfo)

	if GetLevel() != LevelOff {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelOff)
	}

	SetOutput(&buf)
	Errorf("error message")
	if buf.Len() != 0 {
		t.Errorf("expected no output with LevelOff, got %q", buf.String())
	}
}

func TestFieldLogger(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup(LevelDebug); err != nil {
		t.Fatal(err)
	}
	SetOutput(&buf)
	defer Setup(LevelInfo)

	logger := WithFields(map[string]any{
		"component": "test",
		"count":     42,
	}).With("action", "testing")

	logger.Infof("test message with %s", "fields")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}

	if line["message"] != "test message with fields" {
		t.Errorf("message = %v", line["message"])
	}
	if line["level"] != "info" {
		t.Errorf("level = %v, want info", line["level"])
	}
	if line["component"] != "test" || line["action"] != "testing" {
		t.Errorf("missing string fields in %v", line)
	}
	if line["count"] != float64(42) {
		t.Errorf("count = %v, want 42", line["count"])
	}
}

func TestSetupFiltersBelowLevel(t *testing.T) {
	defer Setup(LevelInfo)

	if err := Setup(LevelError); err != nil {
		t.Fatal(err)
	}
	if GetLevel() != LevelError {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelError)
	}

	var buf bytes.Buffer
	SetOutput(&buf)
	Warnf("filtered")
	Errorf("kept")

	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Error("WARN message should be filtered at ERROR level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("ERROR message should be written at ERROR level")
	}
}

func TestDuration(t *testing.T) {
	if got := Duration(1234567 * time.Microsecond); got != "1.235s" {
		t.Errorf("Duration() = %q, want 1.235s", got)
	}
}
