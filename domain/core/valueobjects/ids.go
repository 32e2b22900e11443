package valueobjects

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Sort-key namespaces inside a session partition.
const (
	ReminderKeyPrefix = "reminder#"
	RemovalKeyPrefix  = "removal#"
)

var reminderIDPattern = regexp.MustCompile(`^[a-f0-9-]{6,}$`)

// ErrInvalidReminderID is returned for identifiers that are not hex-like tokens.
var ErrInvalidReminderID = errors.New("reminder ID must be at least 6 hex characters")

// NewSessionID generates an identifier for a conversation that did not supply one.
func NewSessionID() string {
	return uuid.New().String()
}

// ReminderID is a value object identifying a reminder within a session
type ReminderID struct {
	value string
}

// NewReminderID creates a new random ReminderID
func NewReminderID() ReminderID {
	return ReminderID{value: uuid.New().String()}
}

// ParseReminderID normalizes and validates an identifier typed by a user or read from storage
func ParseReminderID(id string) (ReminderID, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if !reminderIDPattern.MatchString(id) {
		return ReminderID{}, ErrInvalidReminderID
	}
	return ReminderID{value: id}, nil
}

// String returns the string representation of the ReminderID
func (id ReminderID) String() string {
	return id.value
}

// IsZero checks if the ReminderID is the zero value
func (id ReminderID) IsZero() bool {
	return id.value == ""
}

// ReminderSortKey is the sort key of the reminder record.
func (id ReminderID) ReminderSortKey() string {
	return ReminderKeyPrefix + id.value
}

// RemovalSortKey is the sort key of the tombstone cancelling this reminder.
func (id ReminderID) RemovalSortKey() string {
	return RemovalKeyPrefix + id.value
}

// ReminderIDFromSortKey recovers the identifier from either namespace.
func ReminderIDFromSortKey(sortKey string) (ReminderID, error) {
	for _, prefix := range []string{ReminderKeyPrefix, RemovalKeyPrefix} {
		if strings.HasPrefix(sortKey, prefix) {
			return ParseReminderID(strings.TrimPrefix(sortKey, prefix))
		}
	}
	return ReminderID{}, errors.New("sort key is not in a reminder namespace: " + sortKey)
}
