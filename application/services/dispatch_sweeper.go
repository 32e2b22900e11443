package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"automation-backend/application/ports"
	"automation-backend/domain/core/entities"
	"automation-backend/domain/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SubjectReminder is the subject of every reminder notification
const SubjectReminder = "Automation reminder"

// SweeperConfig holds the settings for one dispatch sweep
type SweeperConfig struct {
	DefaultRecipient string
	// ClaimLease bounds how long a crashed sweep can block a retry
	ClaimLease  time.Duration
	CallTimeout time.Duration
	Concurrency int
	Location    *time.Location
}

// SweepReport counts what one sweep did with the reminders it found due.
// Delivered only counts reminders whose delivered mark persisted; Unmarked
// counts sends whose mark failed and are also included in Failed.
type SweepReport struct {
	Candidates int `json:"candidates"`
	Delivered  int `json:"delivered"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Unmarked   int `json:"unmarked"`
}

type deliveryOutcome int

const (
	outcomeDelivered deliveryOutcome = iota
	outcomeSkipped
	outcomeFailed
	// outcomeSentUnmarked is a send whose delivered mark did not persist.
	outcomeSentUnmarked
)

// DispatchSweeper delivers due reminders. Each reminder is claimed with a lease
// before sending so overlapping sweeps cannot both deliver it.
type DispatchSweeper struct {
	store     ports.ReminderStore
	sender    ports.NotificationSender
	publisher ports.EventPublisher
	config    SweeperConfig
	logger    *zap.Logger

	metrics ports.Metrics
}

// NewDispatchSweeper creates a new dispatch sweeper
func NewDispatchSweeper(
	store ports.ReminderStore,
	sender ports.NotificationSender,
	publisher ports.EventPublisher,
	config SweeperConfig,
	logger *zap.Logger,
) *DispatchSweeper {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.ClaimLease <= 0 {
		config.ClaimLease = 2 * time.Minute
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &DispatchSweeper{
		store:     store,
		sender:    sender,
		publisher: publisher,
		config:    config,
		logger:    logger,
	}
}

// SetMetrics attaches a metrics recorder
func (s *DispatchSweeper) SetMetrics(metrics ports.Metrics) {
	s.metrics = metrics
}

// Sweep runs one pass and returns how many reminders were delivered
func (s *DispatchSweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	report, err := s.Run(ctx, now)
	return report.Delivered, err
}

// Run runs one pass over every reminder due at now. Only a failure to find the
// due reminders is returned; per-reminder failures are counted and left for the
// next sweep.
func (s *DispatchSweeper) Run(ctx context.Context, now time.Time) (SweepReport, error) {
	started := time.Now()

	var due []*entities.Reminder
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		due, err = s.store.QueryDue(ctx, now)
		return err
	})
	if err != nil {
		return SweepReport{}, fmt.Errorf("failed to query due reminders: %w", err)
	}

	report := SweepReport{Candidates: len(due)}
	if len(due) == 0 {
		s.logger.Info("No reminders due", zap.Time("now", now))
		s.observe(report, time.Since(started))
		return report, nil
	}

	owner := uuid.New().String()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for _, reminder := range due {
		reminder := reminder
		g.Go(func() error {
			outcome := s.deliver(gctx, reminder, owner, now)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeDelivered:
				report.Delivered++
			case outcomeSkipped:
				report.Skipped++
			case outcomeSentUnmarked:
				report.Unmarked++
				report.Failed++
			default:
				report.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("Sweep finished",
		zap.String("owner", owner),
		zap.Int("candidates", report.Candidates),
		zap.Int("delivered", report.Delivered),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("unmarked", report.Unmarked),
	)
	s.observe(report, time.Since(started))
	return report, nil
}

// deliver handles one due reminder. It never returns an error so one bad
// reminder cannot stop the rest of the sweep.
func (s *DispatchSweeper) deliver(ctx context.Context, reminder *entities.Reminder, owner string, now time.Time) (outcome deliveryOutcome) {
	logger := s.logger.With(
		zap.String("sessionId", reminder.SessionID),
		zap.String("reminderId", reminder.ID.String()),
	)
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Panic delivering reminder", zap.Any("panic", p))
			outcome = outcomeFailed
		}
	}()

	if reminder.IsDelivered() {
		return outcomeSkipped
	}

	var removed bool
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		removed, err = s.store.HasRemoval(ctx, reminder.SessionID, reminder.ID)
		return err
	})
	if err != nil {
		logger.Error("Failed to check removal", zap.Error(err))
		return outcomeFailed
	}
	if removed {
		logger.Debug("Skipping cancelled reminder")
		return outcomeSkipped
	}

	err = s.call(ctx, func(ctx context.Context) error {
		return s.store.ClaimForDelivery(ctx, reminder, owner, now, now.Add(s.config.ClaimLease))
	})
	if errors.Is(err, ports.ErrConditionFailed) {
		logger.Debug("Reminder claimed elsewhere")
		return outcomeSkipped
	}
	if err != nil {
		logger.Error("Failed to claim reminder", zap.Error(err))
		return outcomeFailed
	}

	recipient := reminder.RecipientOr(s.config.DefaultRecipient)
	notification := ports.Notification{
		To:      recipient,
		Subject: SubjectReminder,
		Body: fmt.Sprintf("Reminder: %s\nScheduled for %s",
			reminder.Message, reminder.ReminderTime.In(s.config.Location).Format("Mon Jan 2, 2006 15:04 MST")),
	}
	err = s.call(ctx, func(ctx context.Context) error {
		return s.sender.Send(ctx, notification)
	})
	if err != nil {
		logger.Error("Failed to send reminder", zap.Error(err), zap.String("to", recipient))
		s.release(ctx, reminder, owner, logger)
		return outcomeFailed
	}

	sentAt := now
	err = s.call(ctx, func(ctx context.Context) error {
		return s.store.MarkDelivered(ctx, reminder, owner, sentAt)
	})
	if err != nil {
		// Already sent but still Pending in the store. The record becomes
		// claimable again when the lease runs out.
		logger.Error("Reminder sent but not marked delivered", zap.Error(err), zap.String("to", recipient))
		return outcomeSentUnmarked
	}

	logger.Info("Reminder delivered", zap.String("to", recipient))
	delivered := *reminder
	_ = delivered.MarkDelivered(sentAt)
	s.publish(ctx, events.NewReminderDelivered(&delivered, recipient, sentAt), logger)
	return outcomeDelivered
}

func (s *DispatchSweeper) release(ctx context.Context, reminder *entities.Reminder, owner string, logger *zap.Logger) {
	err := s.call(ctx, func(ctx context.Context) error {
		return s.store.ReleaseClaim(ctx, reminder, owner)
	})
	if err != nil {
		logger.Warn("Failed to release claim; it will expire", zap.Error(err))
	}
}

func (s *DispatchSweeper) publish(ctx context.Context, event events.DomainEvent, logger *zap.Logger) {
	err := s.call(ctx, func(ctx context.Context) error {
		return s.publisher.Publish(ctx, event)
	})
	if err != nil {
		logger.Warn("Failed to publish event", zap.Error(err), zap.String("eventType", event.GetEventType()))
	}
}

// call runs fn under the configured per-call timeout
func (s *DispatchSweeper) call(ctx context.Context, fn func(context.Context) error) error {
	if s.config.CallTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()
	return fn(ctx)
}

func (s *DispatchSweeper) observe(report SweepReport, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveSweep(report.Delivered, report.Skipped, report.Failed, duration)
	}
}
