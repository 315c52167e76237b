//go:build opus

package audio

import (
	"fmt"

	"github.com/hraban/opus"
	"github.com/lvturner/xiaozhi-esp32-server/internal/audio"
)

type opusDecoder struct {
	dec *opus.Decoder
}

// NewOpusDecoder builds a decoder for one transcription run. Codec state
// lives inside the returned decoder, so callers get a fresh one per
// utterance.
func NewOpusDecoder() (audio.Decoder, error) {
	dec, err := opus.NewDecoder(audio.SampleRate, audio.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to construct opus decoder: %w", err)
	}
	return &opusDecoder{dec: dec}, nil
}

func (d *opusDecoder) Decode(packet []byte) ([]int16, error) {
	pcm := make([]int16, audio.FrameSamples)
	n, err := d.dec.Decode(packet, pcm)
	if err != nil {
		return nil, err
	}
	return pcm[:n*audio.Channels], nil
}
