package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ServerConfig controls the local HTTP listener. Timeouts cover the
// transport only; document operations are never cut short.
type ServerConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadMB     int
}

// SessionConfig holds limits of the in-memory session.
type SessionConfig struct {
	MaxFileSizeMB int
	AutosaveDelay time.Duration
}

// RenderConfig controls rasterisation.
type RenderConfig struct {
	Scale                float64
	JPEGQuality          int
	ThumbnailWidth       int
	MaxConcurrentRenders int
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Server  ServerConfig
	Session SessionConfig
	Render  RenderConfig
}

// Load reads a .env file from the working directory, if present, and then
// the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	// Logging defaults
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/pdfplatypus.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom is opt-in; only log events are forwarded, never documents
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdfplatypus",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Server = ServerConfig{
		ListenAddr:      getEnv("LISTEN_ADDR", "127.0.0.1:8080"),
		ReadTimeout:     parseDuration(getEnv("HTTP_READ_TIMEOUT", "2m"), 2*time.Minute),
		WriteTimeout:    parseDuration(getEnv("HTTP_WRITE_TIMEOUT", "0"), 0),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		MaxUploadMB:     parseInt(getEnv("MAX_UPLOAD_MB", "512"), 512),
	}

	cfg.Session = SessionConfig{
		MaxFileSizeMB: parseInt(getEnv("MAX_FILE_SIZE_MB", "50"), 50),
		AutosaveDelay: parseDuration(getEnv("AUTOSAVE_DELAY", "1s"), time.Second),
	}

	cfg.Render = RenderConfig{
		Scale:                parseFloat(getEnv("RENDER_SCALE", "2.0"), 2.0),
		JPEGQuality:          parseInt(getEnv("JPEG_QUALITY", "95"), 95),
		ThumbnailWidth:       parseInt(getEnv("THUMBNAIL_WIDTH", "150"), 150),
		MaxConcurrentRenders: parseInt(getEnv("MAX_CONCURRENT_RENDERS", "2"), 2),
	}
	if cfg.Render.JPEGQuality < 1 || cfg.Render.JPEGQuality > 100 {
		cfg.Render.JPEGQuality = 95
	}

	return cfg
}

// MaxFileSize returns the per-file upload cap in bytes.
func (c SessionConfig) MaxFileSize() int64 { return int64(c.MaxFileSizeMB) << 20 }

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
