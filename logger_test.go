package notionpub

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "notionpub.log")
	log, err := NewLogger(LogConfig{Level: "warn", File: path})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Info("dropped")
	log.Warn("sync failed", zap.String("kind", "FETCH_FAILED"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above warn level, got %d: %q", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "sync failed" || entry["kind"] != "FETCH_FAILED" || entry["level"] != "WARN" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewLoggerDev(t *testing.T) {
	log, err := NewLogger(LogConfig{Level: "debug", Dev: true})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level in dev mode")
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := parseLevel("loud"); got != zapcore.InfoLevel {
		t.Fatalf("parseLevel(loud) = %v", got)
	}
	if got := parseLevel("error"); got != zapcore.ErrorLevel {
		t.Fatalf("parseLevel(error) = %v", got)
	}
}
