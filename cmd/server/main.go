package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	asrimpl "github.com/lvturner/xiaozhi-esp32-server/external/asr"
	audioimpl "github.com/lvturner/xiaozhi-esp32-server/external/audio"
	configloader "github.com/lvturner/xiaozhi-esp32-server/external/config"
	llmimpl "github.com/lvturner/xiaozhi-esp32-server/external/llm"
	repositoryimpl "github.com/lvturner/xiaozhi-esp32-server/external/repository"
	ttsimpl "github.com/lvturner/xiaozhi-esp32-server/external/tts"
	"github.com/lvturner/xiaozhi-esp32-server/external/ws"
	"github.com/lvturner/xiaozhi-esp32-server/internal/config"
	"github.com/lvturner/xiaozhi-esp32-server/internal/intent"
	"github.com/lvturner/xiaozhi-esp32-server/internal/session"
	"github.com/samber/do/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	log := initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "asr_provider", cfg.ASRProvider)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg, log)

	slog.Info("startup: launching device server")
	runServer(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
	return log
}

func setupDI(cfg *config.Config, log *slog.Logger) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, log)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	asrimpl.RegisterDI(injector)
	llmimpl.RegisterDI(injector)
	intent.RegisterDI(injector)
	ttsimpl.RegisterDI(injector)
	session.RegisterDI(injector)
	ws.RegisterDI(injector)

	return injector
}

func runServer(injector do.Injector) {
	server, err := do.Invoke[*ws.Server](injector)
	if err != nil {
		slog.Error("failed to resolve device server", "error", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		if err := server.ListenAndServe(); err != nil {
			slog.Error("device server failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
		<-done
	case <-done:
	}
}
