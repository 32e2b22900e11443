package services

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentClassifier_Classify(t *testing.T) {
	classifier := NewIntentClassifier(nil)

	tests := []struct {
		message string
		want    Intent
	}{
		{"Set a reminder for tomorrow at 9am to check the deployment", IntentCreateReminder},
		{"please CREATE an alert for the backup job", IntentCreateReminder},
		{"schedule a follow up with finance", IntentCreateReminder},
		{"Show my reminders", IntentListReminders},
		{"list follow-ups", IntentListReminders},
		{"view alerts", IntentListReminders},
		{"Delete reminder abcdef123456", IntentDeleteReminder},
		{"cancel the followup", IntentDeleteReminder},
		{"remove that alert", IntentDeleteReminder},
		{"Please escalate this", IntentEscalate},
		{"this is URGENT", IntentEscalate},
		{"critical outage in prod", IntentEscalate},
		{"handover to a human", IntentEscalate},
		{"hello there", IntentUnrecognized},
		{"", IntentUnrecognized},
		{"show me the weather", IntentUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Classify(tt.message))
		})
	}
}

func TestIntentClassifier_EarlierRuleWins(t *testing.T) {
	classifier := NewIntentClassifier(nil)

	// Matches both create and escalate.
	assert.Equal(t, IntentCreateReminder, classifier.Classify("Schedule an urgent alert"))
	// Matches both list and escalate.
	assert.Equal(t, IntentListReminders, classifier.Classify("Show critical alerts"))
	// Matches both create and list.
	assert.Equal(t, IntentCreateReminder, classifier.Classify("Create a reminder and then show reminders"))
}

func TestIntentClassifier_CustomRules(t *testing.T) {
	classifier := NewIntentClassifier([]IntentRule{
		{Intent: IntentEscalate, Pattern: regexp.MustCompile(`(?i)help`)},
		{Intent: IntentCreateReminder, Pattern: regexp.MustCompile(`(?i)help`)},
	})

	assert.Equal(t, IntentEscalate, classifier.Classify("help me"))
	assert.Equal(t, IntentUnrecognized, classifier.Classify("set a reminder"))
}
