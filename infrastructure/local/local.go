// Package local holds collaborators for running the bot without AWS.
package local

import (
	"context"
	"encoding/json"
	"sync"

	"automation-backend/application/ports"
	"automation-backend/domain/events"

	"go.uber.org/zap"
)

// LogSender writes notifications to the log and keeps them for inspection
type LogSender struct {
	mu     sync.Mutex
	sent   []ports.Notification
	logger *zap.Logger
}

// NewLogSender creates a new LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the notification
func (s *LogSender) Send(ctx context.Context, notification ports.Notification) error {
	s.mu.Lock()
	s.sent = append(s.sent, notification)
	s.mu.Unlock()

	s.logger.Info("Notification",
		zap.String("to", notification.To),
		zap.String("subject", notification.Subject),
		zap.String("body", notification.Body),
	)
	return nil
}

// Sent returns a copy of every notification sent so far
func (s *LogSender) Sent() []ports.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Notification(nil), s.sent...)
}

// LogPublisher writes events to the log and keeps them for inspection
type LogPublisher struct {
	mu        sync.Mutex
	published []events.DomainEvent
	logger    *zap.Logger
}

// NewLogPublisher creates a new LogPublisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event with its JSON detail
func (p *LogPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.published = append(p.published, event)
	p.mu.Unlock()

	p.logger.Info("Event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateId", event.GetAggregateID()),
		zap.ByteString("detail", detail),
	)
	return nil
}

// Published returns a copy of every event published so far
func (p *LogPublisher) Published() []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.DomainEvent(nil), p.published...)
}

var (
	_ ports.NotificationSender = (*LogSender)(nil)
	_ ports.EventPublisher     = (*LogPublisher)(nil)
)
