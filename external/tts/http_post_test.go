package tts

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func newTestProvider(t *testing.T, cfg HTTPPostConfig) *HTTPPostProvider {
	t.Helper()
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	provider, err := NewHTTPPostProvider(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return provider
}

func TestNewHTTPPostProvider_RequiresURL(t *testing.T) {
	if _, err := NewHTTPPostProvider(HTTPPostConfig{}, slog.New(slog.DiscardHandler)); err == nil {
		t.Fatal("expected construction to fail without url")
	}
}

func TestNewHTTPPostProvider_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tts-out")
	newTestProvider(t, HTTPPostConfig{URL: "http://tts.local", OutputDir: dir})

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected output dir to exist: %v", err)
	}
}

func TestSynthesize_WritesAudioFile(t *testing.T) {
	audioBytes := []byte("RIFF-audio-bytes")

	var gotHeader string
	var gotPayload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		gotHeader = r.Header.Get("X-Api-Key")
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		if err := json.Unmarshal(raw, &gotPayload); err != nil {
			t.Fatalf("failed to parse body: %v", err)
		}
		w.Write(audioBytes)
	}))
	defer server.Close()

	dir := t.TempDir()
	provider := newTestProvider(t, HTTPPostConfig{
		URL:       server.URL,
		Headers:   map[string]string{"X-Api-Key": "secret"},
		Payload:   map[string]string{"text": "{prompt_text}", "voice": "alloy"},
		Format:    "wav",
		OutputDir: dir,
	})

	path, err := provider.Synthesize(context.Background(), "hello device")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotHeader != "secret" {
		t.Fatalf("unexpected api key header: %q", gotHeader)
	}
	if gotPayload["text"] != "hello device" {
		t.Fatalf("expected prompt to be templated in, got %q", gotPayload["text"])
	}
	if gotPayload["voice"] != "alloy" {
		t.Fatalf("unexpected voice field: %q", gotPayload["voice"])
	}

	if filepath.Dir(path) != dir {
		t.Fatalf("file %q not under output dir %q", path, dir)
	}
	namePattern := regexp.MustCompile(`^tts-\d{4}-\d{2}-\d{2}@[0-9a-f]{32}\.wav$`)
	if !namePattern.MatchString(filepath.Base(path)) {
		t.Fatalf("unexpected file name: %q", filepath.Base(path))
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read audio file: %v", err)
	}
	if string(written) != string(audioBytes) {
		t.Fatalf("unexpected audio bytes: %q", written)
	}
}

func TestSynthesize_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	dir := t.TempDir()
	provider := newTestProvider(t, HTTPPostConfig{URL: server.URL, OutputDir: dir})

	if _, err := provider.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no audio files, found %d", len(entries))
	}
}
