package ws

import (
	"log/slog"

	"github.com/lvturner/xiaozhi-esp32-server/internal/config"
	"github.com/lvturner/xiaozhi-esp32-server/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		manager := do.MustInvoke[*session.Manager](i)
		log := do.MustInvoke[*slog.Logger](i)
		return NewServer(cfg, manager, log), nil
	})
}
