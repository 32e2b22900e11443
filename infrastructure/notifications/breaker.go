package notifications

import (
	"context"
	"errors"
	"time"

	"automation-backend/application/ports"
	pkgerrors "automation-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig holds configuration for the sender circuit breaker
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that trips the breaker once MinRequests have been seen
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the sender circuit breaker
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      5,
	}
}

// BreakerSender stops calling a failing mail provider for a while instead of
// letting every due reminder in a sweep time out against it.
type BreakerSender struct {
	next   ports.NotificationSender
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreakerSender wraps next with a circuit breaker
func NewBreakerSender(next ports.NotificationSender, config BreakerConfig, logger *zap.Logger) *BreakerSender {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A bad address is the caller's problem, not the provider's.
		IsSuccessful: func(err error) bool {
			return err == nil || pkgerrors.IsValidation(err)
		},
	})

	return &BreakerSender{next: next, cb: cb, logger: logger}
}

var _ ports.NotificationSender = (*BreakerSender)(nil)

// Send forwards to the wrapped sender unless the breaker is open
func (b *BreakerSender) Send(ctx context.Context, notification ports.Notification) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Send(ctx, notification)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.logger.Warn("Notification rejected by circuit breaker",
			zap.String("breaker", b.cb.Name()),
			zap.String("to", notification.To),
		)
		return pkgerrors.NewExternalError(b.cb.Name(), err)
	}
	return err
}

// State reports the breaker state for health output
func (b *BreakerSender) State() string {
	return b.cb.State().String()
}
