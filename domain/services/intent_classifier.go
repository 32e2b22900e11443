package services

import "regexp"

// Intent is the categorized purpose of an inbound message
type Intent string

const (
	IntentCreateReminder Intent = "create-reminder"
	IntentListReminders  Intent = "list-reminders"
	IntentDeleteReminder Intent = "delete-reminder"
	IntentEscalate       Intent = "escalate"
	IntentUnrecognized   Intent = "unrecognized"
)

// IntentRule pairs a pattern with the intent it selects
type IntentRule struct {
	Intent  Intent
	Pattern *regexp.Regexp
}

// DefaultIntentRules is the rule table in evaluation order. Earlier rules win
// when several patterns match the same message.
func DefaultIntentRules() []IntentRule {
	return []IntentRule{
		{Intent: IntentCreateReminder, Pattern: regexp.MustCompile(`(?i)(set|create|schedule).*(reminder|follow[- ]?up|alert)`)},
		{Intent: IntentListReminders, Pattern: regexp.MustCompile(`(?i)(show|list|view).*(reminder|follow[- ]?up|alert)`)},
		{Intent: IntentDeleteReminder, Pattern: regexp.MustCompile(`(?i)(delete|remove|cancel).*(reminder|follow[- ]?up|alert)`)},
		{Intent: IntentEscalate, Pattern: regexp.MustCompile(`(?i)(escalat|urgent|critical|handover)`)},
	}
}

// IntentClassifier maps message text to an intent using an ordered rule table
type IntentClassifier struct {
	rules []IntentRule
}

// NewIntentClassifier creates a classifier over rules; nil selects DefaultIntentRules
func NewIntentClassifier(rules []IntentRule) *IntentClassifier {
	if rules == nil {
		rules = DefaultIntentRules()
	}
	return &IntentClassifier{rules: rules}
}

// Classify returns the intent of the first matching rule, or IntentUnrecognized
func (c *IntentClassifier) Classify(message string) Intent {
	for _, rule := range c.rules {
		if rule.Pattern.MatchString(message) {
			return rule.Intent
		}
	}
	return IntentUnrecognized
}
