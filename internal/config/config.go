package config

import (
	"fmt"
	"time"
)

const (
	ASRProviderElevenLabs = "elevenlabs"
	ASRProviderGoogle     = "google"
)

type Config struct {
	Env        string
	ListenAddr string

	ASRProvider        string
	TranscribeLanguage string

	ElevenLabsAPIKey     string
	ElevenLabsModelID    string
	ElevenLabsSTTBaseURL string

	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string

	TempAudioDir string

	DatabaseURL string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	TTSURL       string
	TTSFormat    string
	TTSOutputDir string
	TTSHeaders   map[string]string
	TTSPayload   map[string]string

	IntentCacheTTL        time.Duration
	IntentCacheMaxEntries int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.ASRProvider {
	case ASRProviderElevenLabs:
		if c.ElevenLabsAPIKey == "" {
			return fmt.Errorf("ELEVENLABS_API_KEY is required when ASR_PROVIDER=%s", ASRProviderElevenLabs)
		}
	case ASRProviderGoogle:
		if c.GoogleCloudProjectID == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID is required when ASR_PROVIDER=%s", ASRProviderGoogle)
		}
		if c.GoogleCloudCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CLOUD_CREDENTIALS_JSON is required when ASR_PROVIDER=%s", ASRProviderGoogle)
		}
	default:
		return fmt.Errorf("ASR_PROVIDER must be %s or %s, got %q", ASRProviderElevenLabs, ASRProviderGoogle, c.ASRProvider)
	}
	if c.IntentCacheTTL <= 0 {
		return fmt.Errorf("INTENT_CACHE_TTL_SEC must be positive, got %s", c.IntentCacheTTL)
	}
	if c.IntentCacheMaxEntries <= 0 {
		return fmt.Errorf("INTENT_CACHE_MAX_ENTRIES must be positive, got %d", c.IntentCacheMaxEntries)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "LISTEN_ADDR", value: c.ListenAddr},
		{name: "TEMP_AUDIO_DIR", value: c.TempAudioDir},
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "OPENAI_API_KEY", value: c.OpenAIAPIKey},
		{name: "TTS_URL", value: c.TTSURL},
		{name: "TTS_OUTPUT_DIR", value: c.TTSOutputDir},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
