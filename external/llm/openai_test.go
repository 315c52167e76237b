package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOpenAICompleter_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAICompleter("", "gpt-4o-mini", "", slog.New(slog.DiscardHandler)); err == nil {
		t.Fatal("expected construction to fail without api key")
	}
}

func TestComplete(t *testing.T) {
	var gotPath string
	var gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("failed to read request body: %v", err)
		}
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Fatalf("failed to parse request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"the answer"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	completer, err := NewOpenAICompleter("test-key", "gpt-4o-mini", server.URL, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := completer.Complete(context.Background(), "you are a helper", "what is the answer?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "the answer" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected authorization header: %s", gotAuth)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %v", gotBody["model"])
	}
	messages, ok := gotBody["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("expected two messages, got %v", gotBody["messages"])
	}
	first := messages[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "you are a helper" {
		t.Fatalf("unexpected system message: %v", first)
	}
	second := messages[1].(map[string]any)
	if second["role"] != "user" || second["content"] != "what is the answer?" {
		t.Fatalf("unexpected user message: %v", second)
	}
}

func TestComplete_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer server.Close()

	completer, err := NewOpenAICompleter("test-key", "gpt-4o-mini", server.URL, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := completer.Complete(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
