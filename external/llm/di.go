package llm

import (
	"log/slog"

	"github.com/lvturner/xiaozhi-esp32-server/internal/config"
	"github.com/lvturner/xiaozhi-esp32-server/internal/llm"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (llm.Completer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*slog.Logger](i)
		return NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, log)
	})
}
