package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"automation-backend/application/ports"
	"automation-backend/domain/core/entities"
	"automation-backend/domain/core/valueobjects"
)

// ReminderStore is an in-process ReminderStore for local runs and tests.
// It mirrors the DynamoDB store's conditional semantics; records are copied on
// every read and write so callers never share memory with the store.
type ReminderStore struct {
	mu        sync.RWMutex
	reminders map[string]map[string]*entities.Reminder
	removals  map[string]map[string]*entities.Removal
}

// NewReminderStore creates an empty store
func NewReminderStore() *ReminderStore {
	return &ReminderStore{
		reminders: make(map[string]map[string]*entities.Reminder),
		removals:  make(map[string]map[string]*entities.Removal),
	}
}

// PutReminder upserts a reminder record
func (s *ReminderStore) PutReminder(ctx context.Context, reminder *entities.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.reminders[reminder.SessionID]
	if !ok {
		partition = make(map[string]*entities.Reminder)
		s.reminders[reminder.SessionID] = partition
	}
	partition[reminder.SortKey()] = copyReminder(reminder)
	return nil
}

// PutRemoval upserts a tombstone
func (s *ReminderStore) PutRemoval(ctx context.Context, removal *entities.Removal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.removals[removal.SessionID]
	if !ok {
		partition = make(map[string]*entities.Removal)
		s.removals[removal.SessionID] = partition
	}
	copied := *removal
	partition[removal.SortKey()] = &copied
	return nil
}

// QueryReminders returns every reminder in the session ordered by sort key
func (s *ReminderStore) QueryReminders(ctx context.Context, sessionID string) ([]*entities.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partition := s.reminders[sessionID]
	keys := sortedKeys(partition)
	result := make([]*entities.Reminder, 0, len(keys))
	for _, key := range keys {
		result = append(result, copyReminder(partition[key]))
	}
	return result, nil
}

// QueryRemovals returns every tombstone in the session ordered by sort key
func (s *ReminderStore) QueryRemovals(ctx context.Context, sessionID string) ([]*entities.Removal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partition := s.removals[sessionID]
	keys := sortedKeys(partition)
	result := make([]*entities.Removal, 0, len(keys))
	for _, key := range keys {
		copied := *partition[key]
		result = append(result, &copied)
	}
	return result, nil
}

// HasRemoval reports whether a tombstone exists for reminderID
func (s *ReminderStore) HasRemoval(ctx context.Context, sessionID string, reminderID valueobjects.ReminderID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.removals[sessionID][reminderID.RemovalSortKey()]
	return ok, nil
}

// QueryDue scans all partitions for undelivered reminders due at or before now
func (s *ReminderStore) QueryDue(ctx context.Context, now time.Time) ([]*entities.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*entities.Reminder
	for _, partition := range s.reminders {
		for _, reminder := range partition {
			if reminder.IsDelivered() || !reminder.IsDue(now) {
				continue
			}
			due = append(due, copyReminder(reminder))
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].ReminderTime.Equal(due[j].ReminderTime) {
			return due[i].ID.String() < due[j].ID.String()
		}
		return due[i].ReminderTime.Before(due[j].ReminderTime)
	})
	return due, nil
}

// ClaimForDelivery takes the delivery lease for owner
func (s *ReminderStore) ClaimForDelivery(ctx context.Context, reminder *entities.Reminder, owner string, now, leaseUntil time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.lookup(reminder)
	if !ok || stored.IsDelivered() || stored.HasLiveClaim(now) {
		return ports.ErrConditionFailed
	}

	until := leaseUntil
	stored.ClaimedBy = owner
	stored.ClaimExpiresAt = &until
	return nil
}

// MarkDelivered sets sentAt if owner still holds the lease
func (s *ReminderStore) MarkDelivered(ctx context.Context, reminder *entities.Reminder, owner string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.lookup(reminder)
	if !ok || stored.ClaimedBy != owner {
		return ports.ErrConditionFailed
	}
	if err := stored.MarkDelivered(sentAt); err != nil {
		return ports.ErrConditionFailed
	}
	return nil
}

// ReleaseClaim drops owner's lease; a lease held by someone else is left alone
func (s *ReminderStore) ReleaseClaim(ctx context.Context, reminder *entities.Reminder, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.lookup(reminder)
	if !ok || stored.ClaimedBy != owner {
		return nil
	}
	stored.ClaimedBy = ""
	stored.ClaimExpiresAt = nil
	return nil
}

func (s *ReminderStore) lookup(reminder *entities.Reminder) (*entities.Reminder, bool) {
	stored, ok := s.reminders[reminder.SessionID][reminder.SortKey()]
	return stored, ok
}

func copyReminder(r *entities.Reminder) *entities.Reminder {
	copied := *r
	if r.SentAt != nil {
		sentAt := *r.SentAt
		copied.SentAt = &sentAt
	}
	if r.ClaimExpiresAt != nil {
		expires := *r.ClaimExpiresAt
		copied.ClaimExpiresAt = &expires
	}
	return &copied
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return strings.Compare(keys[i], keys[j]) < 0 })
	return keys
}
