package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"noteguard-be/internal/bootstrap"
	"noteguard-be/internal/cli"
	"noteguard-be/internal/config"
	"noteguard-be/internal/pkg/logger"
	"noteguard-be/pkg/clock"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	sysLogger := logger.NewFileLogger(cfg.App.LogFilePath)
	defer func() { _ = sysLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(cli.Options{
		Config:  cfg,
		Clock:   clock.Real(),
		Logger:  sysLogger,
		Storage: bootstrap.OpenStorage,
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
