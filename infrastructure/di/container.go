package di

import (
	"automation-backend/application/ports"
	"automation-backend/application/services"
	"automation-backend/infrastructure/config"
	"automation-backend/infrastructure/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Tracer        *observability.Tracer
	Store         ports.ReminderStore
	Publisher     ports.EventPublisher
	Sender        ports.NotificationSender
	Metrics       *observability.Collector
	SweepReporter *observability.SweepReporter
	Router        *services.MessageRouter
	Sweeper       *services.DispatchSweeper
}

// Shutdown flushes buffered logs
func (c *Container) Shutdown() {
	if c == nil || c.Logger == nil {
		return
	}
	_ = c.Logger.Sync()
}
