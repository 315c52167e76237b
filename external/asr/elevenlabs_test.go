package asr

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lvturner/xiaozhi-esp32-server/internal/asr"
)

func writeTestArtifact(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "elevenlabs_asr_session-1_token.wav")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write test artifact: %v", err)
	}
	return path
}

func newTestClient(t *testing.T, baseURL string) *ElevenLabsClient {
	t.Helper()
	client, err := NewElevenLabsClient("test-key", "", baseURL, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client
}

func TestNewElevenLabsClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewElevenLabsClient("", "scribe_v1", "", slog.New(slog.DiscardHandler)); err == nil {
		t.Fatal("expected construction to fail without api key")
	}
}

func TestNewElevenLabsClient_Defaults(t *testing.T) {
	client := newTestClient(t, "")
	if client.modelID != "scribe_v1" {
		t.Fatalf("unexpected default model: %s", client.modelID)
	}
	if client.baseURL != "https://api.elevenlabs.io/v1/speech-to-text" {
		t.Fatalf("unexpected default base url: %s", client.baseURL)
	}
	if client.Name() != "elevenlabs" {
		t.Fatalf("unexpected provider name: %s", client.Name())
	}
}

func TestTranscribe_SendsMultipartRequest(t *testing.T) {
	wavBytes := []byte("RIFF-fake-wav-bytes")

	var gotAPIKey string
	var gotFields map[string][]string
	var gotFileName string
	var gotFileBytes []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		gotAPIKey = r.Header.Get("xi-api-key")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse multipart form: %v", err)
		}
		gotFields = r.MultipartForm.Value
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("failed to read file part: %v", err)
		}
		defer file.Close()
		gotFileName = header.Filename
		gotFileBytes, err = io.ReadAll(file)
		if err != nil {
			t.Fatalf("failed to read file bytes: %v", err)
		}
		w.Write([]byte(`{"text": " hello world "}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	path := writeTestArtifact(t, wavBytes)

	text, err := client.Transcribe(context.Background(), path, asr.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("expected trimmed transcript, got %q", text)
	}
	if gotAPIKey != "test-key" {
		t.Fatalf("unexpected api key header: %q", gotAPIKey)
	}

	want := map[string]string{
		"model_id":               "scribe_v1",
		"enable_logging":         "true",
		"tag_audio_events":       "true",
		"timestamps_granularity": "word",
		"diarize":                "false",
		"file_format":            "pcm_s16le_16",
	}
	for key, value := range want {
		got := gotFields[key]
		if len(got) != 1 || got[0] != value {
			t.Fatalf("field %s = %v, want %q", key, got, value)
		}
	}
	for _, key := range []string{"language_code", "num_speakers"} {
		if _, ok := gotFields[key]; ok {
			t.Fatalf("expected %s to be omitted when unset", key)
		}
	}
	if gotFileName != filepath.Base(path) {
		t.Fatalf("unexpected file name: %q", gotFileName)
	}
	if string(gotFileBytes) != string(wavBytes) {
		t.Fatalf("unexpected file bytes: %q", gotFileBytes)
	}
}

func TestTranscribe_OptionalFieldsSentWhenSet(t *testing.T) {
	var gotFields map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse multipart form: %v", err)
		}
		gotFields = r.MultipartForm.Value
		w.Write([]byte(`{"text": "ok"}`))
	}))
	defer server.Close()

	opts := asr.DefaultOptions()
	opts.Language = "ja"
	opts.NumSpeakers = 2
	opts.Diarize = true

	client := newTestClient(t, server.URL)
	if _, err := client.Transcribe(context.Background(), writeTestArtifact(t, []byte("wav")), opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gotFields["language_code"]; len(got) != 1 || got[0] != "ja" {
		t.Fatalf("language_code = %v, want ja", got)
	}
	if got := gotFields["num_speakers"]; len(got) != 1 || got[0] != "2" {
		t.Fatalf("num_speakers = %v, want 2", got)
	}
	if got := gotFields["diarize"]; len(got) != 1 || got[0] != "true" {
		t.Fatalf("diarize = %v, want true", got)
	}
}

func TestTranscribe_NonOKSurfacesRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("rate limited"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Transcribe(context.Background(), writeTestArtifact(t, []byte("wav")), asr.DefaultOptions())
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if err.Error() != "rate limited" {
		t.Fatalf("expected raw body as error message, got %q", err.Error())
	}
}

func TestTranscribe_MissingTextFieldDefaultsToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	text, err := client.Transcribe(context.Background(), writeTestArtifact(t, []byte("wav")), asr.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty transcript, got %q", text)
	}
}

func TestTranscribe_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.Transcribe(context.Background(), writeTestArtifact(t, []byte("wav")), asr.DefaultOptions()); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestTranscribe_MissingArtifact(t *testing.T) {
	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), asr.DefaultOptions()); err == nil {
		t.Fatal("expected error for missing artifact")
	}
	if requested {
		t.Fatal("expected no request for missing artifact")
	}
}
