package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/lvturner/xiaozhi-esp32-server/internal/config"
)

type envConfig struct {
	Env        string `env:"ENV" envDefault:"production"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8000"`

	ASRProvider        string `env:"ASR_PROVIDER" envDefault:"elevenlabs"`
	TranscribeLanguage string `env:"TRANSCRIBE_LANGUAGE"`

	ElevenLabsAPIKey     string `env:"ELEVENLABS_API_KEY"`
	ElevenLabsModelID    string `env:"ELEVENLABS_MODEL_ID" envDefault:"scribe_v1"`
	ElevenLabsSTTBaseURL string `env:"ELEVENLABS_STT_BASE_URL" envDefault:"https://api.elevenlabs.io/v1/speech-to-text"`

	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`

	TempAudioDir string `env:"TEMP_AUDIO_DIR" envDefault:"temp/audio"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY,required"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	TTSURL         string `env:"TTS_URL,required"`
	TTSFormat      string `env:"TTS_FORMAT" envDefault:"wav"`
	TTSOutputDir   string `env:"TTS_OUTPUT_DIR" envDefault:"tmp/"`
	TTSHeadersJSON string `env:"TTS_HEADERS"`
	TTSPayloadJSON string `env:"TTS_PAYLOAD"`

	IntentCacheTTLSec     int `env:"INTENT_CACHE_TTL_SEC" envDefault:"600"`
	IntentCacheMaxEntries int `env:"INTENT_CACHE_MAX_ENTRIES" envDefault:"100"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	ttsHeaders, err := parseJSONMap("TTS_HEADERS", raw.TTSHeadersJSON)
	if err != nil {
		return nil, err
	}
	ttsPayload, err := parseJSONMap("TTS_PAYLOAD", raw.TTSPayloadJSON)
	if err != nil {
		return nil, err
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		ListenAddr:                 raw.ListenAddr,
		ASRProvider:                raw.ASRProvider,
		TranscribeLanguage:         raw.TranscribeLanguage,
		ElevenLabsAPIKey:           raw.ElevenLabsAPIKey,
		ElevenLabsModelID:          raw.ElevenLabsModelID,
		ElevenLabsSTTBaseURL:       raw.ElevenLabsSTTBaseURL,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		TempAudioDir:               raw.TempAudioDir,
		DatabaseURL:                raw.DatabaseURL,
		OpenAIAPIKey:               raw.OpenAIAPIKey,
		OpenAIModel:                raw.OpenAIModel,
		OpenAIBaseURL:              raw.OpenAIBaseURL,
		TTSURL:                     raw.TTSURL,
		TTSFormat:                  raw.TTSFormat,
		TTSOutputDir:               raw.TTSOutputDir,
		TTSHeaders:                 ttsHeaders,
		TTSPayload:                 ttsPayload,
		IntentCacheTTL:             time.Duration(raw.IntentCacheTTLSec) * time.Second,
		IntentCacheMaxEntries:      raw.IntentCacheMaxEntries,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseJSONMap(name, value string) (map[string]string, error) {
	if value == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(value), &m); err != nil {
		return nil, fmt.Errorf("%s is not a valid JSON object of strings: %w", name, err)
	}
	return m, nil
}
