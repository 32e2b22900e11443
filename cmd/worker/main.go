package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"automation-backend/infrastructure/config"
	"automation-backend/infrastructure/di"

	"go.uber.org/zap"
)

// worker runs dispatch sweeps on a fixed interval outside Lambda
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Shutdown()

	logger := container.Logger
	logger.Info("Starting dispatch worker", zap.Duration("interval", cfg.SweepInterval))

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		sweep(ctx, container)

		select {
		case <-ctx.Done():
			logger.Info("Dispatch worker stopped")
			return
		case <-ticker.C:
		}
	}
}

func sweep(ctx context.Context, container *di.Container) {
	start := time.Now()
	report, err := container.Sweeper.Run(ctx, start.UTC())
	if err != nil {
		container.Logger.Error("Dispatch sweep failed", zap.Error(err))
		return
	}
	container.SweepReporter.ReportSweep(ctx, report.Candidates, report.Delivered, report.Skipped, report.Failed, time.Since(start))
}
