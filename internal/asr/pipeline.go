package asr

import (
	"context"
	"log/slog"

	"github.com/lvturner/xiaozhi-esp32-server/internal/audio"
)

// Pipeline turns a buffered utterance of opus packets into a transcript.
type Pipeline struct {
	store      *ArtifactStore
	client     Client
	newDecoder audio.DecoderFactory
	log        *slog.Logger
}

func NewPipeline(store *ArtifactStore, client Client, newDecoder audio.DecoderFactory, log *slog.Logger) *Pipeline {
	return &Pipeline{store: store, client: client, newDecoder: newDecoder, log: log}
}

// SpeechToText decodes the packets, writes the WAV artifact, submits it
// and removes the artifact again on every exit path. It blocks until the
// backend responds. The zero Outcome means the artifact was never
// produced.
func (p *Pipeline) SpeechToText(ctx context.Context, packets [][]byte, sessionID string, opts Options) Outcome {
	dec, err := p.newDecoder()
	if err != nil {
		p.log.Error("failed to construct opus decoder", "session_id", sessionID, "error", err)
		return Outcome{}
	}

	frames := make([][]int16, 0, len(packets))
	for i, packet := range packets {
		pcm, err := dec.Decode(packet)
		if err != nil {
			p.log.Warn("opus decode failed; skipping packet", "session_id", sessionID, "packet_index", i, "error", err)
			continue
		}
		frames = append(frames, pcm)
	}

	path := p.store.Allocate(p.client.Name(), sessionID)
	defer p.store.Release(path)

	if err := audio.WriteWAV(path, frames); err != nil {
		p.log.Error("failed to write audio artifact", "session_id", sessionID, "path", path, "error", err)
		return Outcome{}
	}
	if !p.store.Exists(path) {
		p.log.Error("audio artifact missing after write", "session_id", sessionID, "path", path)
		return Outcome{}
	}

	p.log.Debug("submitting audio for transcription",
		"session_id", sessionID, "provider", p.client.Name(),
		"packets", len(packets), "frames", len(frames))

	text, err := p.client.Transcribe(ctx, path, opts)
	if err != nil {
		p.log.Warn("transcription failed", "session_id", sessionID, "provider", p.client.Name(), "error", err)
		return Failure(err.Error())
	}
	return Success(text)
}
