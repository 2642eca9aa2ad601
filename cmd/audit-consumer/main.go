// audit-consumer drains the scan audit queue into an append-only log file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/config"
	"github.com/glowscan/skincare-admin/internal/logging"
	"github.com/glowscan/skincare-admin/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "audit-consumer:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "audit-consumer:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("audit consumer starting",
		zap.String("queue", cfg.RabbitMQ.Queue),
		zap.String("log_path", cfg.RabbitMQ.LogPath))
	err = queue.StartAuditConsumer(ctx, queue.ConsumerConfig{
		URL:     cfg.RabbitMQ.URL,
		Queue:   cfg.RabbitMQ.Queue,
		LogPath: cfg.RabbitMQ.LogPath,
	}, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("audit consumer stopped", zap.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("audit consumer stopped")
}
