package logger

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud", Format: "json"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewConsoleLogger(t *testing.T) {
	log, err := New(Config{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	log.WithComponent("test").WithRequestID("req-1").Debug("hello")
}

func TestSafeHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "APPCODE secret")
	headers.Set("Cookie", "session=1")
	headers.Set("X-Mode", "cloud")

	safe := SafeHeaders(headers)

	if safe["Authorization"] != "[REDACTED]" {
		t.Errorf("Authorization not redacted: %q", safe["Authorization"])
	}
	if safe["Cookie"] != "[REDACTED]" {
		t.Errorf("Cookie not redacted: %q", safe["Cookie"])
	}
	if safe["X-Mode"] != "cloud" {
		t.Errorf("X-Mode should pass through, got %q", safe["X-Mode"])
	}
}

func TestCloseFlushesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")

	log, err := New(Config{Level: "info", Format: "json", File: &FileConfig{Enabled: true, Path: path}})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	log.WithComponent("test").Info("written to file")

	if err := log.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing entry, got %q", data)
	}

	if err := log.Close(); err == nil {
		t.Error("expected error closing an already closed log file")
	}
}

func TestCloseWithoutFile(t *testing.T) {
	if err := NewNop().Close(); err != nil {
		t.Errorf("Close on nop logger returned error: %v", err)
	}
}
