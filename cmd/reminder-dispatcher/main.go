package main

import (
	"context"
	"log"
	"time"

	"automation-backend/application/services"
	"automation-backend/infrastructure/config"
	"automation-backend/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

var container *di.Container

// DispatchResult is returned to the scheduler after each sweep
type DispatchResult struct {
	Dispatched int `json:"dispatched"`
}

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
}

// Handler runs one dispatch sweep per scheduled event
func Handler(ctx context.Context, event events.CloudWatchEvent) (DispatchResult, error) {
	start := time.Now()
	logger := container.Logger.With(zap.String("event_id", event.ID))

	var report services.SweepReport
	err := container.Tracer.TraceFunction(ctx, "DispatchSweep", func(ctx context.Context) error {
		var runErr error
		report, runErr = container.Sweeper.Run(ctx, start.UTC())
		return runErr
	})
	duration := time.Since(start)

	if err != nil {
		logger.Error("Dispatch sweep failed", zap.Error(err))
		return DispatchResult{}, err
	}

	container.SweepReporter.ReportSweep(ctx, report.Candidates, report.Delivered, report.Skipped, report.Failed, duration)
	logger.Info("Dispatch sweep completed",
		zap.Int("dispatched", report.Delivered),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", duration),
	)

	return DispatchResult{Dispatched: report.Delivered}, nil
}

func main() {
	lambda.Start(Handler)
}
