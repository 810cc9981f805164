package show

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	out := []byte("url:https://svt.example/hls/master.m3u8?alt=x\n" +
		"length:1800\n" +
		"title:Rapport | SVT Play\n" +
		"alt:rapport-19-30\n" +
		"name:Rapport: kväll\n" +
		"description:Nyheter\n" +
		"filename:rapport-19-30\n" +
		"unknown:ignored\n" +
		"garbage line without separator\n")

	meta, err := ParseMetadata(out)
	require.NoError(t, err)

	assert.Equal(t, "https://svt.example/hls/master.m3u8?alt=x", meta.ManifestURL)
	assert.Equal(t, int64(1800), meta.LengthSeconds)
	assert.Equal(t, "Rapport | SVT Play", meta.Title)
	assert.Equal(t, "rapport-19-30", meta.Alt)
	assert.Equal(t, "Rapport: kväll", meta.Name)
	assert.Equal(t, "Nyheter", meta.Description)
	assert.Equal(t, "rapport-19-30", meta.Filename)
}

func TestParseMetadata_Errors(t *testing.T) {
	tests := []struct {
		name string
		out  string
	}{
		{name: "missing url", out: "length:10\ntitle:x\n"},
		{name: "null url", out: "url:null\n"},
		{name: "bad length", out: "url:http://x/m.m3u8\nlength:ten\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMetadata([]byte(tt.out))
			assert.Error(t, err)
		})
	}
}

func TestParseMetadata_MissingLength(t *testing.T) {
	meta, err := ParseMetadata([]byte("url:http://x/m.m3u8\nlength:null\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), meta.LengthSeconds)
}

func TestStatic(t *testing.T) {
	s := Static{ManifestURL: "http://x/m.m3u8", Title: "t", LengthSeconds: 60}

	meta, err := s.Inspect(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, "http://x/m.m3u8", meta.ManifestURL)
	assert.Equal(t, int64(60), meta.LengthSeconds)

	_, err = Static{}.Inspect(context.Background(), "ignored")
	assert.Error(t, err)
}

// writeRenderer installs an executable shell script standing in for the
// headless browser.
func writeRenderer(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("renderer stand-in needs /bin/sh")
	}

	path := filepath.Join(t.TempDir(), "renderer")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestCommandInspector_BuiltInScript(t *testing.T) {
	seen := filepath.Join(t.TempDir(), "seen.js")
	renderer := writeRenderer(t, `cp "$1" '`+seen+`'
echo "url:http://x/m.m3u8"
echo "title:$2"
echo "filename:$1"
`)

	inspector := &CommandInspector{
		Path:   renderer,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	meta, err := inspector.Inspect(context.Background(), "https://svt.example/video/1")
	require.NoError(t, err)

	assert.Equal(t, "http://x/m.m3u8", meta.ManifestURL)
	assert.Equal(t, "https://svt.example/video/1", meta.Title)

	script, err := os.ReadFile(seen)
	require.NoError(t, err)
	assert.Equal(t, RenderScript, script)
	assert.Contains(t, string(script), "video.svp_video")

	// The temporary copy is gone once the renderer has finished
	_, err = os.Stat(meta.Filename)
	assert.True(t, os.IsNotExist(err), "expected %s to be removed", meta.Filename)
}

func TestCommandInspector_ConfiguredScript(t *testing.T) {
	renderer := writeRenderer(t, `echo "url:http://x/m.m3u8"
echo "title:$1|$2|$3"
`)

	inspector := &CommandInspector{
		Path:   renderer,
		Args:   []string{"--ssl-protocol=any"},
		Script: "/opt/my scripts/render.js",
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	meta, err := inspector.Inspect(context.Background(), "page")
	require.NoError(t, err)
	assert.Equal(t, "--ssl-protocol=any|/opt/my scripts/render.js|page", meta.Title)
}

func TestCommandInspector_RendererFails(t *testing.T) {
	renderer := writeRenderer(t, "echo 'cannot load page' >&2\nexit 1\n")

	inspector := &CommandInspector{
		Path:   renderer,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	_, err := inspector.Inspect(context.Background(), "page")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot load page")
}
