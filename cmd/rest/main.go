package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"noteguard-be/internal/bootstrap"
	"noteguard-be/internal/config"
	"noteguard-be/internal/pkg/logger"
	"noteguard-be/internal/server"
	"noteguard-be/internal/tracer"
	"noteguard-be/pkg/clock"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Logger and tracer
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer func() { _ = sysLogger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer := tracer.InitTracer(ctx, cfg.Tracing, sysLogger)

	// 3. Storage
	uowFactory, closeStorage, err := bootstrap.OpenStorage(cfg)
	if err != nil {
		sysLogger.Error("Main", "Unable to open storage", map[string]interface{}{"error": err.Error()})
		return
	}

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, cfg, uowFactory, sysLogger, clock.Real())
	if err != nil {
		sysLogger.Error("Main", "Unable to build container", map[string]interface{}{"error": err.Error()})
		_ = closeStorage()
		return
	}

	// 5. Background services
	if err := container.Start(ctx, cfg); err != nil {
		sysLogger.Error("Main", "Unable to start background services", map[string]interface{}{"error": err.Error()})
		container.Close()
		_ = closeStorage()
		return
	}

	// 6. Run Server
	srv := server.New(cfg, container)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		sysLogger.Info("Main", "Shutting down", map[string]interface{}{"signal": sig.String()})
	case err := <-serverErr:
		if err != nil {
			sysLogger.Error("Main", "Server stopped", map[string]interface{}{"error": err.Error()})
		}
	}

	// 7. Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sysLogger.Warn("Main", "Server shutdown incomplete", map[string]interface{}{"error": err.Error()})
	}
	cancel()
	container.Close()
	if err := shutdownTracer(shutdownCtx); err != nil {
		sysLogger.Warn("Main", "Tracer shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if err := closeStorage(); err != nil {
		sysLogger.Warn("Main", "Storage close failed", map[string]interface{}{"error": err.Error()})
	}
}
