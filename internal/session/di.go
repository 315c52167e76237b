package session

import (
	"log/slog"

	"github.com/lvturner/xiaozhi-esp32-server/internal/asr"
	"github.com/lvturner/xiaozhi-esp32-server/internal/config"
	"github.com/lvturner/xiaozhi-esp32-server/internal/intent"
	"github.com/lvturner/xiaozhi-esp32-server/internal/llm"
	"github.com/lvturner/xiaozhi-esp32-server/internal/repository"
	"github.com/lvturner/xiaozhi-esp32-server/internal/tts"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		pipeline := do.MustInvoke[*asr.Pipeline](i)
		repo := do.MustInvoke[repository.Repository](i)
		detector := do.MustInvoke[*intent.Detector](i)
		completer := do.MustInvoke[llm.Completer](i)
		ttsProvider := do.MustInvoke[tts.Provider](i)
		log := do.MustInvoke[*slog.Logger](i)
		return NewManager(cfg, pipeline, repo, detector, completer, ttsProvider, log), nil
	})
}
