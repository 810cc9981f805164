// Package config loads svtrec settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultUserAgent makes manifest requests look like an iPad, which is what
// the site serves HLS to.
const DefaultUserAgent = "Mozilla/5.0 (iPad; CPU OS 9_2_1 like Mac OS X) AppleWebKit/601.1.46 (KHTML, like Gecko) Mobile/13D11"

// Config holds the runtime settings.
type Config struct {
	// FFmpegPath is the media tool used to save streams
	FFmpegPath string
	// RendererPath is the headless browser driver that inspects show pages
	RendererPath string
	// RendererArgs are extra renderer flags, passed before the script
	RendererArgs []string
	// RendererScript is the page script; empty runs the built-in one
	RendererScript string
	// UserAgent is sent with manifest requests
	UserAgent string
	// HTTPTimeout bounds a manifest fetch
	HTTPTimeout time.Duration
	// LogFile, when set, receives a copy of the log with rotation
	LogFile string
	// LogMaxSizeMB is the size at which the log file is rotated
	LogMaxSizeMB int
}

// Load reads a .env file from the working directory if there is one and
// then builds the configuration from the environment. Existing environment
// variables win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		FFmpegPath:   getEnv("SVTREC_FFMPEG", "ffmpeg"),
		RendererPath: getEnv("SVTREC_RENDERER", "phantomjs"),
		UserAgent:    getEnv("SVTREC_USER_AGENT", DefaultUserAgent),
		LogFile:      os.Getenv("SVTREC_LOG_FILE"),

		RendererScript: os.Getenv("SVTREC_RENDERER_SCRIPT"),
		RendererArgs:   strings.Fields(os.Getenv("SVTREC_RENDERER_ARGS")),
	}

	timeout, err := time.ParseDuration(getEnv("SVTREC_HTTP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SVTREC_HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	size, err := strconv.Atoi(getEnv("SVTREC_LOG_MAX_SIZE_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid SVTREC_LOG_MAX_SIZE_MB: %w", err)
	}
	cfg.LogMaxSizeMB = size

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg path is required")
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}

	if c.LogMaxSizeMB < 1 {
		return fmt.Errorf("log max size must be at least 1 MB, got %d", c.LogMaxSizeMB)
	}

	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
