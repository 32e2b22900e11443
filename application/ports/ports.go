package ports

import (
	"context"
	"errors"
	"time"

	"automation-backend/domain/core/entities"
	"automation-backend/domain/core/valueobjects"
	"automation-backend/domain/events"
)

// ErrConditionFailed is returned by conditional store writes that lost against the current record state.
var ErrConditionFailed = errors.New("conditional write failed")

// ReminderStore is the system of record for reminders and removal tombstones.
// Records are partitioned by session and keyed by reminder#<id> or removal#<id>.
type ReminderStore interface {
	// PutReminder upserts a reminder record
	PutReminder(ctx context.Context, reminder *entities.Reminder) error

	// PutRemoval upserts a tombstone
	PutRemoval(ctx context.Context, removal *entities.Removal) error

	// QueryReminders returns every reminder record in the session
	QueryReminders(ctx context.Context, sessionID string) ([]*entities.Reminder, error)

	// QueryRemovals returns every tombstone in the session
	QueryRemovals(ctx context.Context, sessionID string) ([]*entities.Removal, error)

	// HasRemoval reports whether a tombstone exists for reminderID
	HasRemoval(ctx context.Context, sessionID string, reminderID valueobjects.ReminderID) (bool, error)

	// QueryDue returns undelivered reminders whose trigger time is at or before now
	QueryDue(ctx context.Context, now time.Time) ([]*entities.Reminder, error)

	// ClaimForDelivery takes the delivery lease if the reminder is undelivered and
	// no other live lease exists. Returns ErrConditionFailed otherwise.
	ClaimForDelivery(ctx context.Context, reminder *entities.Reminder, owner string, now, leaseUntil time.Time) error

	// MarkDelivered sets sentAt if owner still holds the lease and the reminder is
	// undelivered. Returns ErrConditionFailed otherwise.
	MarkDelivered(ctx context.Context, reminder *entities.Reminder, owner string, sentAt time.Time) error

	// ReleaseClaim drops owner's lease so the next sweep can retry
	ReleaseClaim(ctx context.Context, reminder *entities.Reminder, owner string) error
}

// EventPublisher publishes lifecycle events for other systems. Callers treat it as best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}

// Notification is a message addressed to a human
type Notification struct {
	To      string
	Subject string
	Body    string
}

// NotificationSender delivers a notification synchronously
type NotificationSender interface {
	Send(ctx context.Context, notification Notification) error
}

// Metrics records operational counters. Implementations must tolerate concurrent use.
type Metrics interface {
	ObserveIntent(intent string, err error)
	ObserveSweep(delivered, skipped, failed int, duration time.Duration)
}
