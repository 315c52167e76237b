package session

import (
	"fmt"
	"strings"

	"github.com/lvturner/xiaozhi-esp32-server/internal/intent"
	"github.com/lvturner/xiaozhi-esp32-server/internal/repository"
)

const chatSystemPrompt = "You are Xiaozhi, a friendly voice assistant running on a small smart device. " +
	"Reply in one or two short conversational sentences suitable for being read aloud. " +
	"Never use markup, lists or emoji."

// chatUserPrompt renders the persisted dialogue plus the new utterance
// into the user prompt of the reply completion.
func chatUserPrompt(history []repository.Message, text string) string {
	var sb strings.Builder
	sb.WriteString("The conversation so far:\n")
	for _, msg := range history {
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
	}
	fmt.Fprintf(&sb, "User: %s\n", text)
	return sb.String()
}

func historyTurns(history []repository.Message) []intent.Turn {
	turns := make([]intent.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, intent.Turn{Role: string(msg.Role), Content: msg.Content})
	}
	return turns
}
