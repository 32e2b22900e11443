package services

import (
	"regexp"
	"strings"
	"time"
)

// TimeResolver turns free text into the instant a reminder should fire
type TimeResolver interface {
	Resolve(message string, now time.Time) time.Time
}

const (
	tomorrowHour = 9
	todayHour    = 17
	defaultDelay = time.Hour
)

var dayKeyword = regexp.MustCompile(`(?i)(tomorrow|today)`)

// KeywordTimeResolver understands "tomorrow" and "today" and otherwise schedules an hour out.
// All calendar arithmetic happens in now's location.
type KeywordTimeResolver struct{}

// NewKeywordTimeResolver creates the default resolver
func NewKeywordTimeResolver() *KeywordTimeResolver {
	return &KeywordTimeResolver{}
}

// Resolve applies the first day keyword found in message.
// "today" after 17:00 resolves to the past; the next sweep delivers it.
func (KeywordTimeResolver) Resolve(message string, now time.Time) time.Time {
	switch strings.ToLower(dayKeyword.FindString(message)) {
	case "tomorrow":
		return time.Date(now.Year(), now.Month(), now.Day()+1, tomorrowHour, 0, 0, 0, now.Location())
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), todayHour, 0, 0, 0, now.Location())
	default:
		return now.Add(defaultDelay)
	}
}
