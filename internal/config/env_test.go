package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"LISTEN_ADDR", "MAX_FILE_SIZE_MB", "AUTOSAVE_DELAY", "RENDER_SCALE", "JPEG_QUALITY", "SEND_LOGS_TO_AXIOM"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.Server.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if got := cfg.Session.MaxFileSize(); got != 50<<20 {
		t.Errorf("MaxFileSize = %d", got)
	}
	if cfg.Session.AutosaveDelay != time.Second {
		t.Errorf("AutosaveDelay = %v", cfg.Session.AutosaveDelay)
	}
	if cfg.Render.Scale != 2 || cfg.Render.JPEGQuality != 95 || cfg.Render.ThumbnailWidth != 150 {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Axiom.Send {
		t.Error("Axiom forwarding on by default")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9999")
	t.Setenv("MAX_FILE_SIZE_MB", "10")
	t.Setenv("AUTOSAVE_DELAY", "250ms")
	t.Setenv("JPEG_QUALITY", "400")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("AXIOM_DATASET", "prod")
	cfg := FromEnv()
	if cfg.Server.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if got := cfg.Session.MaxFileSize(); got != 10<<20 {
		t.Errorf("MaxFileSize = %d", got)
	}
	if cfg.Session.AutosaveDelay != 250*time.Millisecond {
		t.Errorf("AutosaveDelay = %v", cfg.Session.AutosaveDelay)
	}
	if cfg.Render.JPEGQuality != 95 {
		t.Errorf("out of range JPEG quality kept: %d", cfg.Render.JPEGQuality)
	}
	if !cfg.Logging.Pretty {
		t.Error("LOG_PRETTY=yes not honoured")
	}
	if cfg.Axiom.Dataset != "prod_pdfplatypus" {
		t.Errorf("Dataset = %q", cfg.Axiom.Dataset)
	}
}

func TestParseHelpers(t *testing.T) {
	if parseInt("x", 7) != 7 || parseInt("", 7) != 7 || parseInt("3", 7) != 3 {
		t.Error("parseInt")
	}
	if parseDuration("bogus", time.Second) != time.Second {
		t.Error("parseDuration fallback")
	}
	for in, want := range map[string]bool{"1": true, "ON": true, " true ": true, "0": false, "": false} {
		if parseBool(in) != want {
			t.Errorf("parseBool(%q) != %v", in, want)
		}
	}
}
