package tts

import "context"

// Provider synthesizes spoken audio for a reply and returns the path of
// the written audio file.
type Provider interface {
	Synthesize(ctx context.Context, text string) (string, error)
}
