package asr

import "context"

// Client transcribes a finished audio file through one speech-to-text
// backend.
type Client interface {
	Transcribe(ctx context.Context, audioPath string, opts Options) (string, error)
	Name() string
}

// Options carries the per-request transcription parameters. Zero values
// of the optional fields (Language, NumSpeakers) are omitted from the
// request.
type Options struct {
	Language              string
	NumSpeakers           int
	TagAudioEvents        bool
	Diarize               bool
	EnableLogging         bool
	TimestampsGranularity string
}

func DefaultOptions() Options {
	return Options{
		TagAudioEvents:        true,
		Diarize:               false,
		EnableLogging:         true,
		TimestampsGranularity: "word",
	}
}

// Outcome is the result of one speech-to-text run. Exactly one of Text
// and Err is set when the run reached the backend; both are nil when
// the audio artifact was never produced.
type Outcome struct {
	Text *string
	Err  *string
}

func Success(text string) Outcome {
	return Outcome{Text: &text}
}

func Failure(message string) Outcome {
	return Outcome{Err: &message}
}

func (o Outcome) OK() bool {
	return o.Text != nil
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}
