package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lvturner/xiaozhi-esp32-server/internal/llm"
)

// FallbackIntent is returned whenever the model output cannot be parsed.
const FallbackIntent = `{"function_call": {"name": "continue_chat"}}`

var DefaultIntentOptions = []string{"continue_chat", "handle_exit_intent", "play_music", "get_time"}

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// Turn is one prior dialogue message shown to the model for context.
type Turn struct {
	Role    string
	Content string
}

// Detector classifies an utterance into a function_call intent JSON
// string using the completer, with a TTL cache in front of it.
type Detector struct {
	completer llm.Completer
	cache     *Cache
	prompt    string
	log       *slog.Logger
}

func NewDetector(completer llm.Completer, cache *Cache, options []string, log *slog.Logger) *Detector {
	if len(options) == 0 {
		options = DefaultIntentOptions
	}
	return &Detector{
		completer: completer,
		cache:     cache,
		prompt:    systemPrompt(options),
		log:       log,
	}
}

func (d *Detector) Detect(ctx context.Context, history []Turn, text string) (string, error) {
	if cached, ok := d.cache.Get(text); ok {
		d.log.Debug("intent served from cache", "text", text)
		return cached, nil
	}

	raw, err := d.completer.Complete(ctx, d.prompt, userPrompt(history, text))
	if err != nil {
		return "", err
	}

	intentJSON := strings.TrimSpace(raw)
	if match := jsonBlockRe.FindString(intentJSON); match != "" {
		intentJSON = match
	}

	var parsed struct {
		FunctionCall struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		} `json:"function_call"`
	}
	if err := json.Unmarshal([]byte(intentJSON), &parsed); err != nil {
		d.log.Error("intent response is not valid json; using fallback", "response", raw)
		return FallbackIntent, nil
	}
	if parsed.FunctionCall.Name != "" {
		d.log.Info("detected function call", "name", parsed.FunctionCall.Name)
	}

	d.cache.Put(text, intentJSON)
	return intentJSON, nil
}

// FunctionName extracts function_call.name from an intent JSON string.
// It returns "" when the intent carries no function call.
func FunctionName(intentJSON string) string {
	var parsed struct {
		FunctionCall struct {
			Name string `json:"name"`
		} `json:"function_call"`
	}
	if err := json.Unmarshal([]byte(intentJSON), &parsed); err != nil {
		return ""
	}
	return parsed.FunctionCall.Name
}

// userPrompt shows the model the last two dialogue turns plus the new
// utterance.
func userPrompt(history []Turn, text string) string {
	var sb strings.Builder
	sb.WriteString("The conversation so far:\n")
	start := len(history) - 2
	if start < 0 {
		start = 0
	}
	for _, turn := range history[start:] {
		fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
	}
	fmt.Fprintf(&sb, "User: %s\n", text)
	return sb.String()
}

func systemPrompt(options []string) string {
	var sb strings.Builder
	sb.WriteString("You are an intent recognition assistant. Analyze the user's last sentence and determine which of the following intent categories it belongs to:\n")
	sb.WriteString("<start>")
	sb.WriteString(strings.Join(options, ", "))
	sb.WriteString("<end>\n")
	sb.WriteString("Think about the intent type and answer with a function_call JSON object.\n\n")
	sb.WriteString("Example return format:\n")
	sb.WriteString(`1. Play music intent: {"function_call": {"name": "play_music", "arguments": {"song_name": "song_name"}}}` + "\n")
	sb.WriteString(`2. End conversation intent: {"function_call": {"name": "handle_exit_intent", "arguments": {"say_goodbye": "goodbye"}}}` + "\n")
	sb.WriteString(`3. Get current date and time: {"function_call": {"name": "get_time"}}` + "\n")
	sb.WriteString(`4. Continue chatting intent: {"function_call": {"name": "continue_chat"}}` + "\n\n")
	sb.WriteString("Notes:\n")
	sb.WriteString(`- Play music: if no song name is provided, set song_name to "random"` + "\n")
	sb.WriteString("- If no clear intent is detected, default to the continue chatting intent\n")
	sb.WriteString("- Return only pure JSON, without any additional text\n")
	return sb.String()
}
