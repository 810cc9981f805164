// Package integration provides integration testing utilities for svtrec.
package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// TestHarness manages the test environment for integration tests: a file
// server for manifests, fake renderer and ffmpeg scripts, and the svtrec
// binary itself.
type TestHarness struct {
	t          *testing.T
	httpServer *http.Server
	httpPort   int
	svtrecCmd  *exec.Cmd
	svtrecPort int
	binaryPath string
	tempDir    string
	env        []string
	cancel     context.CancelFunc
}

// NewTestHarness creates a new test harness. The test is skipped when the
// svtrec binary has not been built.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	h := &TestHarness{
		t:          t,
		httpPort:   findAvailablePort(t),
		svtrecPort: findAvailablePort(t),
		tempDir:    t.TempDir(),
	}
	h.binaryPath = h.findSvtrecBinary()

	h.env = append(os.Environ(),
		"SVTREC_LOG_FILE=",
		"SVTREC_HTTP_TIMEOUT=5s",
	)

	return h
}

// BaseURL is the address of the manifest file server.
func (h *TestHarness) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d", h.httpPort)
}

// StartHTTPServer starts an HTTP server serving files added with AddFile.
func (h *TestHarness) StartHTTPServer() {
	h.t.Helper()

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(filepath.Join(h.tempDir, "www"))))

	h.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", h.httpPort),
		Handler: mux,
	}

	go func() {
		if err := h.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.t.Logf("HTTP server error: %v", err)
		}
	}()

	h.waitForServer(h.BaseURL(), 5*time.Second)
	h.t.Logf("HTTP server started on port %d", h.httpPort)
}

// AddFile makes content available at name on the file server.
func (h *TestHarness) AddFile(content string, name string) {
	h.t.Helper()

	path := filepath.Join(h.tempDir, "www", name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		h.t.Fatalf("failed to write %s: %v", name, err)
	}
}

// SetRendererOutput installs a fake page renderer that prints the given
// metadata lines for any page.
func (h *TestHarness) SetRendererOutput(metadata string) {
	h.t.Helper()

	metaPath := filepath.Join(h.tempDir, "metadata.txt")
	if err := os.WriteFile(metaPath, []byte(metadata), 0644); err != nil {
		h.t.Fatalf("failed to write renderer metadata: %v", err)
	}

	script := filepath.Join(h.tempDir, "render.sh")
	if err := os.WriteFile(script, []byte(fmt.Sprintf("cat '%s'\n", metaPath)), 0644); err != nil {
		h.t.Fatalf("failed to write renderer script: %v", err)
	}

	h.env = append(h.env, "SVTREC_RENDERER=/bin/sh", "SVTREC_RENDERER_SCRIPT="+script)
}

// InstallFakeFFmpeg replaces ffmpeg with a script that records its
// arguments. It returns the path of the file the arguments go to.
func (h *TestHarness) InstallFakeFFmpeg() string {
	h.t.Helper()

	argsPath := filepath.Join(h.tempDir, "ffmpeg-args.txt")
	script := filepath.Join(h.tempDir, "ffmpeg")
	content := fmt.Sprintf("#!/bin/sh\necho \"$@\" > '%s'\n", argsPath)
	if err := os.WriteFile(script, []byte(content), 0755); err != nil {
		h.t.Fatalf("failed to write fake ffmpeg: %v", err)
	}

	h.env = append(h.env, "SVTREC_FFMPEG="+script)
	return argsPath
}

// Run executes svtrec with args and returns its standard output.
func (h *TestHarness) Run(args ...string) string {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.binaryPath, args...)
	cmd.Dir = h.tempDir
	cmd.Env = h.env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		h.t.Fatalf("svtrec %v failed: %v\n%s", args, err, stderr.String())
	}

	return stdout.String()
}

// StartServe starts "svtrec serve" and waits for it to become healthy.
func (h *TestHarness) StartServe() {
	h.t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	h.svtrecCmd = exec.CommandContext(ctx, h.binaryPath, "serve", "--port", fmt.Sprintf("%d", h.svtrecPort))
	h.svtrecCmd.Dir = h.tempDir
	h.svtrecCmd.Env = h.env
	h.svtrecCmd.Stdout = os.Stdout
	h.svtrecCmd.Stderr = os.Stderr

	if err := h.svtrecCmd.Start(); err != nil {
		h.t.Fatalf("failed to start svtrec: %v", err)
	}

	h.waitForServer(fmt.Sprintf("http://localhost:%d/health", h.svtrecPort), 10*time.Second)
	h.t.Logf("svtrec serving on port %d", h.svtrecPort)
}

// Fetch GETs a path from the running svtrec server.
func (h *TestHarness) Fetch(path string) (int, string) {
	h.t.Helper()

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d%s", h.svtrecPort, path))
	if err != nil {
		h.t.Fatalf("failed to fetch %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("failed to read %s body: %v", path, err)
	}

	return resp.StatusCode, string(body)
}

// Cleanup stops all running services.
func (h *TestHarness) Cleanup() {
	h.t.Helper()

	if h.cancel != nil {
		h.cancel()
	}
	if h.svtrecCmd != nil && h.svtrecCmd.Process != nil {
		h.svtrecCmd.Process.Kill()
		h.svtrecCmd.Wait()
	}

	if h.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.httpServer.Shutdown(ctx)
	}
}

// findSvtrecBinary locates the svtrec binary.
func (h *TestHarness) findSvtrecBinary() string {
	h.t.Helper()

	candidates := []string{
		"../../svtrec",        // From test/integration
		"./svtrec",            // From project root
		"./cmd/svtrec/svtrec", // Built in place
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, _ := filepath.Abs(path)
			h.t.Logf("Found svtrec binary at: %s", absPath)
			return absPath
		}
	}

	h.t.Skip("svtrec binary not found. Run 'go build -o svtrec ./cmd/svtrec' first")
	return ""
}

// waitForServer waits for a server to become available.
func (h *TestHarness) waitForServer(url string, timeout time.Duration) {
	h.t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	h.t.Fatalf("server at %s did not become available within %v", url, timeout)
}

// findAvailablePort finds an available TCP port.
func findAvailablePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to find available port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}
