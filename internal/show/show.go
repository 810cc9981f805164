// Package show describes a show page and obtains its metadata from an
// external page renderer.
package show

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Metadata is what the renderer reports about a show page.
type Metadata struct {
	Title         string `json:"title" yaml:"title"`
	Alt           string `json:"alt" yaml:"alt"`
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	Filename      string `json:"filename,omitempty" yaml:"filename,omitempty"`
	LengthSeconds int64  `json:"length_seconds" yaml:"length_seconds"`
	ManifestURL   string `json:"manifest_url" yaml:"manifest_url"`
}

// Inspector obtains show metadata for a page URL.
type Inspector interface {
	Inspect(ctx context.Context, pageURL string) (Metadata, error)
}

// Static is an Inspector that always returns the same metadata. It is used
// when the manifest URL is already known.
type Static Metadata

// Inspect returns the fixed metadata.
func (s Static) Inspect(ctx context.Context, pageURL string) (Metadata, error) {
	if s.ManifestURL == "" {
		return Metadata{}, fmt.Errorf("manifest URL is required")
	}
	return Metadata(s), nil
}

// RenderScript is the PhantomJS program used when no script is configured.
//
//go:embed render.js
var RenderScript []byte

// CommandInspector runs an external renderer (a headless browser driver)
// as "Path Args... Script pageURL" and reads "key:value" lines from its
// standard output. An empty Script runs the built-in RenderScript.
type CommandInspector struct {
	Path   string
	Args   []string
	Script string
	Logger *slog.Logger
}

// Inspect runs the renderer and parses its output.
func (c *CommandInspector) Inspect(ctx context.Context, pageURL string) (Metadata, error) {
	script := c.Script
	if script == "" {
		path, err := writeRenderScript()
		if err != nil {
			return Metadata{}, err
		}
		defer os.Remove(path)
		script = path
	}

	args := append(append([]string{}, c.Args...), script, pageURL)

	cmd := exec.CommandContext(ctx, c.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.Logger.Debug("running page renderer", "path", c.Path, "args", args)

	out, err := cmd.Output()
	if err != nil {
		return Metadata{}, fmt.Errorf("page renderer failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	meta, err := ParseMetadata(out)
	if err != nil {
		return Metadata{}, fmt.Errorf("invalid page renderer output: %w", err)
	}

	c.Logger.Info("show metadata", "title", meta.Title, "length", meta.LengthSeconds, "url", meta.ManifestURL)

	return meta, nil
}

// writeRenderScript puts RenderScript in a temporary file and returns its path.
func writeRenderScript() (string, error) {
	f, err := os.CreateTemp("", "svtrec-render-*.js")
	if err != nil {
		return "", fmt.Errorf("failed to create render script: %w", err)
	}

	if _, err := f.Write(RenderScript); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write render script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write render script: %w", err)
	}

	return f.Name(), nil
}

// ParseMetadata reads renderer output made of "key:value" lines. Only the
// first ':' separates key and value, so URLs survive. Unknown keys are ignored.
func ParseMetadata(out []byte) (Metadata, error) {
	var meta Metadata

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		switch strings.TrimSpace(key) {
		case "url":
			meta.ManifestURL = strings.TrimSpace(value)
		case "length":
			value = strings.TrimSpace(value)
			if value == "" || value == "null" {
				continue
			}
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Metadata{}, fmt.Errorf("invalid length %q: %w", value, err)
			}
			meta.LengthSeconds = n
		case "title":
			meta.Title = value
		case "alt":
			meta.Alt = value
		case "name":
			meta.Name = value
		case "description":
			meta.Description = value
		case "filename":
			meta.Filename = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Metadata{}, err
	}

	if meta.ManifestURL == "" || meta.ManifestURL == "null" {
		return Metadata{}, fmt.Errorf("no stream URL found on page")
	}

	return meta, nil
}
