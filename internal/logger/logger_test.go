package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestInitWritesJSONToConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "app.log")
	if err := Init(Options{Level: "warn", File: file, MaxSizeMB: 1, Console: &console}); err != nil {
		t.Fatal(err)
	}
	defer Close()

	log.Info().Msg("hidden")
	log.Warn().Str("file", "a.pdf").Msg("upload skipped")

	lines := bytes.Split(bytes.TrimSpace(console.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("console lines = %d, want 1:\n%s", len(lines), console.String())
	}
	var ev map[string]any
	if err := json.Unmarshal(lines[0], &ev); err != nil {
		t.Fatal(err)
	}
	if ev["message"] != "upload skipped" || ev["file"] != "a.pdf" || ev["level"] != "warn" {
		t.Errorf("event = %v", ev)
	}

	written, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(written, []byte("upload skipped")) {
		t.Errorf("log file missing event: %s", written)
	}
}

func TestInitBadLevelFallsBackToInfo(t *testing.T) {
	var console bytes.Buffer
	if err := Init(Options{Level: "loud", Console: &console}); err != nil {
		t.Fatal(err)
	}
	log.Debug().Msg("dropped")
	log.Info().Msg("kept")
	if bytes.Contains(console.Bytes(), []byte("dropped")) || !bytes.Contains(console.Bytes(), []byte("kept")) {
		t.Errorf("console = %s", console.String())
	}
}
