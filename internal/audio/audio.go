package audio

const (
	// SampleRate is the PCM sample rate produced by the decoder.
	SampleRate = 16000
	// Channels is the number of audio channels (mono).
	Channels = 1
	// FrameSamples is the number of samples decoded from one opus packet
	// (60ms at 16kHz).
	FrameSamples = 960
)

// Decoder turns a single opus packet into PCM samples. Implementations
// keep codec state between calls, so one Decoder must not be shared
// across concurrent transcriptions.
type Decoder interface {
	Decode(packet []byte) ([]int16, error)
}

// DecoderFactory builds a fresh Decoder for one transcription run.
type DecoderFactory func() (Decoder, error)
