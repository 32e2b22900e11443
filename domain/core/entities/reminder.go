package entities

import (
	"errors"
	"strings"
	"time"

	"automation-backend/domain/core/valueobjects"
	pkgerrors "automation-backend/pkg/errors"
)

// DefaultRetention is how long reminders and tombstones are kept before the table's TTL purges them.
const DefaultRetention = 30 * 24 * time.Hour

// ReminderStatus represents where a reminder is in its lifecycle
type ReminderStatus string

const (
	StatusPending   ReminderStatus = "pending"
	StatusDelivered ReminderStatus = "delivered"
	StatusCancelled ReminderStatus = "cancelled"
)

// ErrAlreadyDelivered is returned when a delivered reminder is asked to transition again.
var ErrAlreadyDelivered = errors.New("reminder already delivered")

// Requester is the metadata a chat client sends about the person talking to the bot.
type Requester struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// Reminder is a scheduled message owned by a session.
//
// Pending reminders become Delivered once SentAt is set, or Cancelled once a
// Removal exists for the same ID. Both terminal states are final.
type Reminder struct {
	SessionID    string
	ID           valueobjects.ReminderID
	Message      string
	ReminderTime time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
	Recipient    string
	SentAt       *time.Time

	// Delivery lease held by a sweep while it sends the notification.
	ClaimedBy      string
	ClaimExpiresAt *time.Time
}

// NewReminder creates a pending reminder that expires retention after creation
func NewReminder(sessionID, message string, reminderTime, now time.Time, retention time.Duration, recipient string) (*Reminder, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.NewValidationError("sessionID cannot be empty")
	}
	if strings.TrimSpace(message) == "" {
		return nil, pkgerrors.NewValidationError("message cannot be empty")
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &Reminder{
		SessionID:    sessionID,
		ID:           valueobjects.NewReminderID(),
		Message:      message,
		ReminderTime: reminderTime,
		CreatedAt:    now,
		ExpiresAt:    now.Add(retention),
		Recipient:    strings.TrimSpace(recipient),
	}, nil
}

// SortKey returns the reminder's key inside its session partition
func (r *Reminder) SortKey() string {
	return r.ID.ReminderSortKey()
}

// Status reports Pending or Delivered. Cancellation lives in a separate record,
// see StatusWith.
func (r *Reminder) Status() ReminderStatus {
	if r.SentAt != nil {
		return StatusDelivered
	}
	return StatusPending
}

// StatusWith folds in whether a tombstone exists. A tombstone hides the
// reminder whatever its delivery state, so it reports Cancelled even after a send.
func (r *Reminder) StatusWith(removed bool) ReminderStatus {
	if removed {
		return StatusCancelled
	}
	return r.Status()
}

// IsDelivered reports whether the reminder has been sent
func (r *Reminder) IsDelivered() bool {
	return r.SentAt != nil
}

// IsDue reports whether the trigger time is at or before now
func (r *Reminder) IsDue(now time.Time) bool {
	return !r.ReminderTime.After(now)
}

// HasLiveClaim reports whether another sweep currently holds the delivery lease
func (r *Reminder) HasLiveClaim(now time.Time) bool {
	return r.ClaimedBy != "" && r.ClaimExpiresAt != nil && r.ClaimExpiresAt.After(now)
}

// RecipientOr returns the stored recipient, or fallback when none was captured
func (r *Reminder) RecipientOr(fallback string) string {
	if r.Recipient != "" {
		return r.Recipient
	}
	return fallback
}

// MarkDelivered records the delivery instant. SentAt never moves once set.
func (r *Reminder) MarkDelivered(at time.Time) error {
	if r.SentAt != nil {
		return ErrAlreadyDelivered
	}
	sentAt := at
	r.SentAt = &sentAt
	r.ClaimedBy = ""
	r.ClaimExpiresAt = nil
	return nil
}

// Removal is the tombstone recording that a reminder was asked to be cancelled
type Removal struct {
	SessionID  string
	ReminderID valueobjects.ReminderID
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// NewRemoval creates a tombstone for reminderID
func NewRemoval(sessionID string, reminderID valueobjects.ReminderID, now time.Time, retention time.Duration) (*Removal, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.NewValidationError("sessionID cannot be empty")
	}
	if reminderID.IsZero() {
		return nil, pkgerrors.NewValidationError("reminderID cannot be empty")
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &Removal{
		SessionID:  sessionID,
		ReminderID: reminderID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(retention),
	}, nil
}

// SortKey returns the tombstone's key inside its session partition
func (r *Removal) SortKey() string {
	return r.ReminderID.RemovalSortKey()
}
