package parser

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}))
}

func TestFetch_FollowsRedirects(t *testing.T) {
	var userAgent string
	mux := http.NewServeMux()
	mux.HandleFunc("/show/manifest.m3u8", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/cdn/v1/master.m3u8", http.StatusFound)
	})
	mux.HandleFunc("/cdn/v1/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(masterManifest))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := NewFetcher(5*time.Second, "test-agent", createTestLogger())
	text, baseURL, err := f.Fetch(context.Background(), server.URL+"/show/manifest.m3u8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if text != masterManifest {
		t.Error("Expected manifest body to be returned unchanged")
	}
	if baseURL != server.URL+"/cdn/v1/master.m3u8" {
		t.Errorf("Expected base URL after redirect, got %s", baseURL)
	}
	if userAgent != "test-agent" {
		t.Errorf("Expected User-Agent test-agent, got %q", userAgent)
	}

	// Relative URIs resolve against the redirect target
	m, err := Parse(text, baseURL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if m.Streams[0].AbsoluteURL != server.URL+"/cdn/v1/hi/index.m3u8" {
		t.Errorf("Expected stream resolved against final URL, got %s", m.Streams[0].AbsoluteURL)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "", createTestLogger())
	if _, _, err := f.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("Expected error for HTTP 404, got nil")
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	f := NewFetcher(5*time.Second, "", createTestLogger())
	if _, _, err := f.Fetch(context.Background(), "not-a-valid-url"); err == nil {
		t.Fatal("Expected error for invalid URL, got nil")
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected Kind
	}{
		{
			name:     "master playlist",
			text:     masterManifest,
			expected: KindMaster,
		},
		{
			name: "media playlist",
			text: `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:9.9,
segment001.ts
#EXTINF:10.0,
segment002.ts
#EXT-X-ENDLIST
`,
			expected: KindMedia,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := Detect(tt.text)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if kind != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, kind)
			}
		})
	}
}

func TestDetect_NotAPlaylist(t *testing.T) {
	if _, err := Detect("not a valid m3u8 file"); err == nil {
		t.Fatal("Expected error for invalid m3u8, got nil")
	}
}
