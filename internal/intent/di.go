package intent

import (
	"log/slog"

	"github.com/lvturner/xiaozhi-esp32-server/internal/config"
	"github.com/lvturner/xiaozhi-esp32-server/internal/llm"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Cache, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewCache(cfg.IntentCacheTTL, cfg.IntentCacheMaxEntries), nil
	})
	do.Provide(injector, func(i do.Injector) (*Detector, error) {
		completer := do.MustInvoke[llm.Completer](i)
		cache := do.MustInvoke[*Cache](i)
		log := do.MustInvoke[*slog.Logger](i)
		return NewDetector(completer, cache, nil, log), nil
	})
}
