package events

import (
	"time"

	"automation-backend/domain/core/entities"
)

// SourceAutomationBot is the EventBridge source for everything this service emits.
const SourceAutomationBot = "automation.bot"

// Event types, used as the EventBridge detail-type.
const (
	TypeReminderCreated          = "ReminderCreated"
	TypeReminderRemovalRequested = "ReminderRemovalRequested"
	TypeReminderDelivered        = "ReminderDelivered"
	TypeEscalationRequested      = "EscalationRequested"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"-"`
	EventType   string    `json:"eventType"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.OccurredAt }

// ReminderCreated is raised when a reminder is persisted
type ReminderCreated struct {
	BaseEvent
	SessionID    string             `json:"sessionId"`
	ReminderID   string             `json:"reminderId"`
	ReminderTime time.Time          `json:"reminderTime"`
	Message      string             `json:"message"`
	User         entities.Requester `json:"user"`
}

// NewReminderCreated creates a ReminderCreated event
func NewReminderCreated(reminder *entities.Reminder, user entities.Requester, timestamp time.Time) ReminderCreated {
	return ReminderCreated{
		BaseEvent: BaseEvent{
			AggregateID: reminder.ID.String(),
			EventType:   TypeReminderCreated,
			OccurredAt:  timestamp,
		},
		SessionID:    reminder.SessionID,
		ReminderID:   reminder.ID.String(),
		ReminderTime: reminder.ReminderTime,
		Message:      reminder.Message,
		User:         user,
	}
}

// ReminderRemovalRequested is raised when a tombstone is written
type ReminderRemovalRequested struct {
	BaseEvent
	SessionID  string `json:"sessionId"`
	ReminderID string `json:"reminderId"`
}

// NewReminderRemovalRequested creates a ReminderRemovalRequested event
func NewReminderRemovalRequested(removal *entities.Removal, timestamp time.Time) ReminderRemovalRequested {
	return ReminderRemovalRequested{
		BaseEvent: BaseEvent{
			AggregateID: removal.ReminderID.String(),
			EventType:   TypeReminderRemovalRequested,
			OccurredAt:  timestamp,
		},
		SessionID:  removal.SessionID,
		ReminderID: removal.ReminderID.String(),
	}
}

// ReminderDelivered is raised by the dispatcher after a reminder is marked sent
type ReminderDelivered struct {
	BaseEvent
	SessionID  string    `json:"sessionId"`
	ReminderID string    `json:"reminderId"`
	Recipient  string    `json:"recipient"`
	SentAt     time.Time `json:"sentAt"`
}

// NewReminderDelivered creates a ReminderDelivered event
func NewReminderDelivered(reminder *entities.Reminder, recipient string, sentAt time.Time) ReminderDelivered {
	return ReminderDelivered{
		BaseEvent: BaseEvent{
			AggregateID: reminder.ID.String(),
			EventType:   TypeReminderDelivered,
			OccurredAt:  sentAt,
		},
		SessionID:  reminder.SessionID,
		ReminderID: reminder.ID.String(),
		Recipient:  recipient,
		SentAt:     sentAt,
	}
}

// EscalationRequested is raised after an escalation email went out
type EscalationRequested struct {
	BaseEvent
	SessionID string `json:"sessionId"`
	Recipient string `json:"recipient"`
	Topic     string `json:"topic"`
}

// NewEscalationRequested creates an EscalationRequested event
func NewEscalationRequested(sessionID, recipient, topic string, timestamp time.Time) EscalationRequested {
	return EscalationRequested{
		BaseEvent: BaseEvent{
			AggregateID: sessionID,
			EventType:   TypeEscalationRequested,
			OccurredAt:  timestamp,
		},
		SessionID: sessionID,
		Recipient: recipient,
		Topic:     topic,
	}
}
