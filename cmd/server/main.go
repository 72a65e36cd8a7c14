package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"iotconsole/iot-ui/internal/app"
	"iotconsole/iot-ui/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("iot console exited", "operation", "startup", "outcome", "failure", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
