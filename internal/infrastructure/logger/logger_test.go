package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestConfigureWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "xspread.log")

	closer, err := Configure(Options{Level: "debug", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	defer Setup()

	log.Debug().Str("venue", "mexc").Msg("book fetched")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"venue":"mexc"`) || !strings.Contains(line, `"message":"book fetched"`) {
		t.Errorf("Unexpected log line %q", line)
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level, got %s", zerolog.GlobalLevel())
	}
}

func TestConfigureRejectsBadLevel(t *testing.T) {
	if _, err := Configure(Options{Level: "loud"}); err == nil {
		t.Fatal("Expected error for unknown level")
	}
}
