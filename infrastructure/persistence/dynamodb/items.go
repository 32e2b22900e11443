package dynamodb

import (
	"fmt"
	"time"

	"automation-backend/domain/core/entities"
	"automation-backend/domain/core/valueobjects"
)

// Attribute names of the sessions table.
const (
	attrSessionID      = "sessionId"
	attrSortKey        = "sortKey"
	attrReminderTime   = "reminderTime"
	attrSentAt         = "sentAt"
	attrDueBucket      = "dueBucket"
	attrClaimedBy      = "claimedBy"
	attrClaimExpiresAt = "claimExpiresAt"
)

const (
	recordTypeReminder = "reminder"
	recordTypeRemoval  = "removal"

	// pendingBucket is the partition of the sparse due index. Only undelivered
	// reminders carry it, so delivered ones drop out of the index.
	pendingBucket = "PENDING"
)

// timeLayout is fixed-width UTC so string comparison in key and condition
// expressions orders like time does. Matches JavaScript's toISOString.
const timeLayout = "2006-01-02T15:04:05.000Z"

// reminderItem represents the DynamoDB item structure for a reminder
type reminderItem struct {
	SessionID      string `dynamodbav:"sessionId"`
	SortKey        string `dynamodbav:"sortKey"`
	Type           string `dynamodbav:"type"`
	ReminderID     string `dynamodbav:"reminderId"`
	Message        string `dynamodbav:"message"`
	ReminderTime   string `dynamodbav:"reminderTime"`
	CreatedAt      string `dynamodbav:"createdAt"`
	ExpiresAt      int64  `dynamodbav:"expiresAt"`
	Recipient      string `dynamodbav:"recipient,omitempty"`
	SentAt         string `dynamodbav:"sentAt,omitempty"`
	DueBucket      string `dynamodbav:"dueBucket,omitempty"`
	ClaimedBy      string `dynamodbav:"claimedBy,omitempty"`
	ClaimExpiresAt string `dynamodbav:"claimExpiresAt,omitempty"`
}

// removalItem represents the DynamoDB item structure for a tombstone
type removalItem struct {
	SessionID  string `dynamodbav:"sessionId"`
	SortKey    string `dynamodbav:"sortKey"`
	Type       string `dynamodbav:"type"`
	ReminderID string `dynamodbav:"reminderId"`
	CreatedAt  string `dynamodbav:"createdAt"`
	ExpiresAt  int64  `dynamodbav:"expiresAt"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func parseOptionalTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseTime(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toReminderItem(r *entities.Reminder) reminderItem {
	item := reminderItem{
		SessionID:    r.SessionID,
		SortKey:      r.SortKey(),
		Type:         recordTypeReminder,
		ReminderID:   r.ID.String(),
		Message:      r.Message,
		ReminderTime: formatTime(r.ReminderTime),
		CreatedAt:    formatTime(r.CreatedAt),
		ExpiresAt:    r.ExpiresAt.Unix(),
		Recipient:    r.Recipient,
		ClaimedBy:    r.ClaimedBy,
	}
	if r.SentAt != nil {
		item.SentAt = formatTime(*r.SentAt)
	} else {
		item.DueBucket = pendingBucket
	}
	if r.ClaimExpiresAt != nil {
		item.ClaimExpiresAt = formatTime(*r.ClaimExpiresAt)
	}
	return item
}

func (item reminderItem) toEntity() (*entities.Reminder, error) {
	id, err := valueobjects.ParseReminderID(item.ReminderID)
	if err != nil {
		if id, err = valueobjects.ReminderIDFromSortKey(item.SortKey); err != nil {
			return nil, fmt.Errorf("reminder %q: %w", item.SortKey, err)
		}
	}

	reminderTime, err := parseTime(item.ReminderTime)
	if err != nil {
		return nil, fmt.Errorf("reminder %s: invalid reminderTime: %w", id, err)
	}
	createdAt, err := parseTime(item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reminder %s: invalid createdAt: %w", id, err)
	}
	sentAt, err := parseOptionalTime(item.SentAt)
	if err != nil {
		return nil, fmt.Errorf("reminder %s: invalid sentAt: %w", id, err)
	}
	claimExpiresAt, err := parseOptionalTime(item.ClaimExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("reminder %s: invalid claimExpiresAt: %w", id, err)
	}

	return &entities.Reminder{
		SessionID:      item.SessionID,
		ID:             id,
		Message:        item.Message,
		ReminderTime:   reminderTime,
		CreatedAt:      createdAt,
		ExpiresAt:      time.Unix(item.ExpiresAt, 0).UTC(),
		Recipient:      item.Recipient,
		SentAt:         sentAt,
		ClaimedBy:      item.ClaimedBy,
		ClaimExpiresAt: claimExpiresAt,
	}, nil
}

func toRemovalItem(r *entities.Removal) removalItem {
	return removalItem{
		SessionID:  r.SessionID,
		SortKey:    r.SortKey(),
		Type:       recordTypeRemoval,
		ReminderID: r.ReminderID.String(),
		CreatedAt:  formatTime(r.CreatedAt),
		ExpiresAt:  r.ExpiresAt.Unix(),
	}
}

func (item removalItem) toEntity() (*entities.Removal, error) {
	id, err := valueobjects.ReminderIDFromSortKey(item.SortKey)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("removal %s: invalid createdAt: %w", id, err)
	}

	removal := &entities.Removal{
		SessionID:  item.SessionID,
		ReminderID: id,
		CreatedAt:  createdAt,
	}
	if item.ExpiresAt > 0 {
		removal.ExpiresAt = time.Unix(item.ExpiresAt, 0).UTC()
	}
	return removal, nil
}
