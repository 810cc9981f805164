package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SVTREC_FFMPEG",
	"SVTREC_RENDERER",
	"SVTREC_RENDERER_SCRIPT",
	"SVTREC_RENDERER_ARGS",
	"SVTREC_USER_AGENT",
	"SVTREC_HTTP_TIMEOUT",
	"SVTREC_LOG_FILE",
	"SVTREC_LOG_MAX_SIZE_MB",
}

// clearEnv unsets every svtrec variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "phantomjs", cfg.RendererPath)
	assert.Empty(t, cfg.RendererArgs)
	assert.Empty(t, cfg.RendererScript)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10, cfg.LogMaxSizeMB)
	assert.Empty(t, cfg.LogFile)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SVTREC_FFMPEG", "/opt/ffmpeg")
	t.Setenv("SVTREC_RENDERER_ARGS", "--ssl-protocol=any  --ignore-ssl-errors=true")
	t.Setenv("SVTREC_RENDERER_SCRIPT", "/opt/my scripts/render.js")
	t.Setenv("SVTREC_HTTP_TIMEOUT", "5s")
	t.Setenv("SVTREC_LOG_FILE", "/tmp/svtrec.log")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/opt/ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, []string{"--ssl-protocol=any", "--ignore-ssl-errors=true"}, cfg.RendererArgs)
	assert.Equal(t, "/opt/my scripts/render.js", cfg.RendererScript)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "/tmp/svtrec.log", cfg.LogFile)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SVTREC_FFMPEG=/from/dotenv\nSVTREC_RENDERER=chromium-render\n"), 0644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	// Environment wins over the file
	t.Setenv("SVTREC_RENDERER", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/from/dotenv", cfg.FFmpegPath)
	assert.Equal(t, "from-env", cfg.RendererPath)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad timeout", key: "SVTREC_HTTP_TIMEOUT", val: "soon"},
		{name: "negative timeout", key: "SVTREC_HTTP_TIMEOUT", val: "-1s"},
		{name: "bad log size", key: "SVTREC_LOG_MAX_SIZE_MB", val: "big"},
		{name: "zero log size", key: "SVTREC_LOG_MAX_SIZE_MB", val: "0"},
		{name: "empty ffmpeg", key: "SVTREC_FFMPEG", val: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
