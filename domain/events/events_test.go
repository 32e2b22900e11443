package events

import (
	"encoding/json"
	"testing"
	"time"

	"automation-backend/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderCreated_Payload(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	reminder, err := entities.NewReminder("S", "check the deployment", now.Add(time.Hour), now, 0, "")
	require.NoError(t, err)

	event := NewReminderCreated(reminder, entities.Requester{Name: "Ada", Email: "ada@example.com"}, now)

	assert.Equal(t, TypeReminderCreated, event.GetEventType())
	assert.Equal(t, reminder.ID.String(), event.GetAggregateID())

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &detail))
	assert.Equal(t, "S", detail["sessionId"])
	assert.Equal(t, reminder.ID.String(), detail["reminderId"])
	assert.Equal(t, "check the deployment", detail["message"])
	assert.Equal(t, "2026-03-10T15:30:00Z", detail["reminderTime"])
	assert.Equal(t, "ada@example.com", detail["user"].(map[string]interface{})["email"])
	assert.NotContains(t, detail, "AggregateID")
}
