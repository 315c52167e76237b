package tts

import (
	"log/slog"

	"github.com/lvturner/xiaozhi-esp32-server/internal/config"
	"github.com/lvturner/xiaozhi-esp32-server/internal/tts"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (tts.Provider, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*slog.Logger](i)
		return NewHTTPPostProvider(HTTPPostConfig{
			URL:       cfg.TTSURL,
			Headers:   cfg.TTSHeaders,
			Payload:   cfg.TTSPayload,
			Format:    cfg.TTSFormat,
			OutputDir: cfg.TTSOutputDir,
		}, log)
	})
}
