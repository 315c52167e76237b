package asr

import (
	"fmt"
	"log/slog"

	"github.com/lvturner/xiaozhi-esp32-server/internal/asr"
	"github.com/lvturner/xiaozhi-esp32-server/internal/audio"
	"github.com/lvturner/xiaozhi-esp32-server/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (asr.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*slog.Logger](i)

		switch cfg.ASRProvider {
		case config.ASRProviderElevenLabs:
			return NewElevenLabsClient(cfg.ElevenLabsAPIKey, cfg.ElevenLabsModelID, cfg.ElevenLabsSTTBaseURL, log)
		case config.ASRProviderGoogle:
			return NewGoogleSpeechClient(GoogleSpeechConfig{
				ProjectID:       cfg.GoogleCloudProjectID,
				CredentialsJSON: cfg.GoogleCloudCredentialsJSON,
				Location:        cfg.GoogleCloudSpeechLocation,
				Model:           cfg.GoogleCloudSpeechModel,
				Language:        cfg.TranscribeLanguage,
			}, log)
		default:
			return nil, fmt.Errorf("unknown asr provider: %s", cfg.ASRProvider)
		}
	})

	do.Provide(injector, func(i do.Injector) (*asr.ArtifactStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*slog.Logger](i)
		return asr.NewArtifactStore(cfg.TempAudioDir, log)
	})

	do.Provide(injector, func(i do.Injector) (*asr.Pipeline, error) {
		store := do.MustInvoke[*asr.ArtifactStore](i)
		client := do.MustInvoke[asr.Client](i)
		factory := do.MustInvoke[audio.DecoderFactory](i)
		log := do.MustInvoke[*slog.Logger](i)
		return asr.NewPipeline(store, client, factory, log), nil
	})
}
