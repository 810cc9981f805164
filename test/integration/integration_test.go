// Package integration provides integration tests for svtrec.
package integration

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"
)

const masterPlaylist = `#EXTM3U
#EXT-X-VERSION:4
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="audio",NAME="Svenska",LANGUAGE="sv",AUTOSELECT=YES,DEFAULT=YES,URI="audio/index.m3u8"
#EXT-X-MEDIA:TYPE=SUBTITLES,GROUP-ID="subs",NAME="Svenska",LANGUAGE="sv",AUTOSELECT=YES,URI="subs/sv.m3u8"
#EXT-X-STREAM-INF:BANDWIDTH=2500000,AVERAGE-BANDWIDTH=2400000,RESOLUTION=1920x1080,CODECS="avc1.640028,mp4a.40.2",AUDIO="audio",SUBTITLES="subs"
hd/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1200000,AVERAGE-BANDWIDTH=1100000,RESOLUTION=1280x720,CODECS="avc1.4d401f,mp4a.40.2",AUDIO="audio",SUBTITLES="subs"
hi/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=500000,AVERAGE-BANDWIDTH=450000,RESOLUTION=640x360,CODECS="avc1.4d401e,mp4a.40.2",AUDIO="audio",SUBTITLES="subs"
lo/index.m3u8
`

type listing struct {
	Streams []struct {
		Bandwidth    int64  `json:"bandwidth"`
		URL          string `json:"url"`
		AutoSelected bool   `json:"auto_selected"`
		Output       string `json:"output"`
	} `json:"streams"`
}

// TestListingFromManifest runs the one-shot listing against a known manifest.
func TestListingFromManifest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	harness := NewTestHarness(t)
	defer harness.Cleanup()

	harness.AddFile(masterPlaylist, "show/master.m3u8")
	harness.StartHTTPServer()

	out := harness.Run(
		"--manifest-url", harness.BaseURL()+"/show/master.m3u8",
		"--title", "Rapport",
		"--length", "600",
		"--format", "json",
	)

	var doc listing
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("failed to parse listing: %v\n%s", err, out)
	}

	if len(doc.Streams) != 3 {
		t.Fatalf("expected 3 streams, got %d", len(doc.Streams))
	}

	wantBandwidths := []int64{500000, 1200000, 2500000}
	for i, s := range doc.Streams {
		if s.Bandwidth != wantBandwidths[i] {
			t.Errorf("stream %d: expected bandwidth %d, got %d", i, wantBandwidths[i], s.Bandwidth)
		}
		if s.AutoSelected {
			t.Errorf("stream %d: nothing should be auto-selected without a bitrate", i)
		}
	}

	if doc.Streams[0].URL != harness.BaseURL()+"/show/lo/index.m3u8" {
		t.Errorf("expected resolved URL, got %s", doc.Streams[0].URL)
	}
	if doc.Streams[0].Output != "rapport_500kbps.mkv" {
		t.Errorf("expected mkv output with subtitles, got %s", doc.Streams[0].Output)
	}
}

// TestRecordFromShowPage goes through the page renderer and saves the
// stream picked by bitrate.
func TestRecordFromShowPage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	harness := NewTestHarness(t)
	defer harness.Cleanup()

	harness.AddFile(masterPlaylist, "show/master.m3u8")
	harness.StartHTTPServer()

	harness.SetRendererOutput(strings.Join([]string{
		"title:Rapport",
		"alt:Rapport - 19.30",
		"length:600",
		"url:" + harness.BaseURL() + "/show/master.m3u8",
	}, "\n") + "\n")
	argsPath := harness.InstallFakeFFmpeg()

	out := harness.Run("-u", "https://www.svtplay.se/video/1/rapport", "-b", "1M")

	if !strings.Contains(out, "Rapport - 19.30") {
		t.Errorf("expected show name in listing, got:\n%s", out)
	}
	if !strings.Contains(out, "Saving stream to rapport_19.30_1200kbps.mkv") {
		t.Errorf("expected 1200kbps stream to be saved, got:\n%s", out)
	}

	args, err := os.ReadFile(argsPath)
	if err != nil {
		t.Fatalf("ffmpeg was not run: %v", err)
	}

	for _, want := range []string{
		"-i " + harness.BaseURL() + "/show/hi/index.m3u8",
		"-i " + harness.BaseURL() + "/show/audio/index.m3u8",
		"-i " + harness.BaseURL() + "/show/subs/sv.m3u8",
		"-c copy",
		"rapport_19.30_1200kbps.mkv",
	} {
		if !strings.Contains(string(args), want) {
			t.Errorf("expected ffmpeg args to contain %q, got %q", want, string(args))
		}
	}
}

// TestServe exercises the HTTP front end.
func TestServe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	harness := NewTestHarness(t)
	defer harness.Cleanup()

	harness.AddFile(masterPlaylist, "show/master.m3u8")
	harness.StartHTTPServer()
	harness.SetRendererOutput("title:Rapport\nalt:Rapport\nlength:60\nurl:" + harness.BaseURL() + "/show/master.m3u8\n")
	harness.StartServe()

	status, body := harness.Fetch("/health")
	if status != http.StatusOK || !strings.Contains(body, `"ok"`) {
		t.Errorf("unexpected health response %d: %s", status, body)
	}

	status, body = harness.Fetch("/streams?url=page&bitrate=1M")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", status, body)
	}

	var doc listing
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("failed to parse listing: %v", err)
	}
	if len(doc.Streams) != 3 || !doc.Streams[1].AutoSelected {
		t.Errorf("expected the 1200kbps stream to be auto-selected, got %+v", doc.Streams)
	}

	status, body = harness.Fetch("/playlist.m3u8?url=page")
	if status != http.StatusOK {
		t.Fatalf("unexpected playlist status %d: %s", status, body)
	}
	if !strings.HasPrefix(body, "#EXTM3U") {
		t.Errorf("expected master playlist, got:\n%s", body)
	}
	if !strings.Contains(body, harness.BaseURL()+"/show/hd/index.m3u8") {
		t.Errorf("expected absolute variant URIs, got:\n%s", body)
	}

	status, _ = harness.Fetch("/streams")
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 without url, got %d", status)
	}
}
