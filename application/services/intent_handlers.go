package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"automation-backend/application/ports"
	"automation-backend/domain/core/entities"
	"automation-backend/domain/core/valueobjects"
	"automation-backend/domain/events"

	"go.uber.org/zap"
)

const (
	MsgNoReminders      = "You have no reminders scheduled."
	MsgRemindersHeader  = "Here are your active reminders:"
	MsgDeleteGuidance   = "Please specify which reminder to delete. For example: “Delete reminder 1234.”"
	MsgEscalationSent   = "Escalation request sent. A support engineer will follow up shortly."
	TopicEscalation     = "support-escalation"
	SubjectEscalation   = "Automation escalation request"
	deliveredListSuffix = " [delivered]"
)

var reminderReference = regexp.MustCompile(`(?i)reminder\s+([a-f0-9-]{6,})`)

func (r *MessageRouter) handleCreateReminder(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	now := r.now()
	reminderTime := r.resolver.Resolve(req.Message, now.In(r.config.Location))

	reminder, err := entities.NewReminder(req.SessionID, req.Message, reminderTime, now, r.config.ReminderTTL, req.User.Email)
	if err != nil {
		return nil, err
	}

	err = r.call(ctx, func(ctx context.Context) error {
		return r.store.PutReminder(ctx, reminder)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save reminder: %w", err)
	}

	r.logger.Info("Reminder created",
		zap.String("sessionId", reminder.SessionID),
		zap.String("reminderId", reminder.ID.String()),
		zap.Time("reminderTime", reminder.ReminderTime),
	)
	r.publish(ctx, events.NewReminderCreated(reminder, req.User, now))

	return &ChatReply{
		Reply: fmt.Sprintf("Got it. I set a reminder for %s: \"%s\". I'll notify you when it's due. (reminder %s)",
			r.formatTime(reminder.ReminderTime), reminder.Message, reminder.ID),
	}, nil
}

func (r *MessageRouter) handleListReminders(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	var (
		reminders []*entities.Reminder
		removals  []*entities.Removal
	)
	err := r.call(ctx, func(ctx context.Context) error {
		var err error
		reminders, err = r.store.QueryReminders(ctx, req.SessionID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	err = r.call(ctx, func(ctx context.Context) error {
		var err error
		removals, err = r.store.QueryRemovals(ctx, req.SessionID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query removals: %w", err)
	}

	visible := activeReminders(reminders, removals)
	if len(visible) == 0 {
		return &ChatReply{Reply: MsgNoReminders}, nil
	}

	lines := make([]string, 0, len(visible)+1)
	lines = append(lines, MsgRemindersHeader)
	for _, reminder := range visible {
		line := fmt.Sprintf("• %s — %s (reminder %s)", r.formatTime(reminder.ReminderTime), reminder.Message, reminder.ID)
		if reminder.IsDelivered() {
			line += deliveredListSuffix
		}
		lines = append(lines, line)
	}
	return &ChatReply{Reply: strings.Join(lines, "\n")}, nil
}

// activeReminders drops tombstoned reminders and orders the rest by trigger time
func activeReminders(reminders []*entities.Reminder, removals []*entities.Removal) []*entities.Reminder {
	removed := make(map[valueobjects.ReminderID]bool, len(removals))
	for _, removal := range removals {
		removed[removal.ReminderID] = true
	}

	visible := make([]*entities.Reminder, 0, len(reminders))
	for _, reminder := range reminders {
		if reminder.StatusWith(removed[reminder.ID]) == entities.StatusCancelled {
			continue
		}
		visible = append(visible, reminder)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].ReminderTime.Equal(visible[j].ReminderTime) {
			return visible[i].ID.String() < visible[j].ID.String()
		}
		return visible[i].ReminderTime.Before(visible[j].ReminderTime)
	})
	return visible
}

func (r *MessageRouter) handleDeleteReminder(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	match := reminderReference.FindStringSubmatch(req.Message)
	if match == nil {
		return &ChatReply{Reply: MsgDeleteGuidance}, nil
	}

	reminderID, err := valueobjects.ParseReminderID(match[1])
	if err != nil {
		return &ChatReply{Reply: MsgDeleteGuidance}, nil
	}

	now := r.now()
	removal, err := entities.NewRemoval(req.SessionID, reminderID, now, r.config.ReminderTTL)
	if err != nil {
		return nil, err
	}

	err = r.call(ctx, func(ctx context.Context) error {
		return r.store.PutRemoval(ctx, removal)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save removal: %w", err)
	}

	r.logger.Info("Reminder removal requested",
		zap.String("sessionId", req.SessionID),
		zap.String("reminderId", reminderID.String()),
	)
	r.publish(ctx, events.NewReminderRemovalRequested(removal, now))

	return &ChatReply{
		Reply: fmt.Sprintf("Acknowledged. I marked reminder %s to be removed.", reminderID),
	}, nil
}

func (r *MessageRouter) handleEscalate(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	recipient := strings.TrimSpace(req.User.Email)
	if recipient == "" {
		recipient = r.config.DefaultRecipient
	}
	if recipient == "" {
		return nil, fmt.Errorf("no escalation recipient configured")
	}

	notification := ports.Notification{
		To:      recipient,
		Subject: SubjectEscalation,
		Body:    fmt.Sprintf("Session %s requested an escalation.\n\nMessage:\n%s", req.SessionID, req.Message),
	}
	err := r.call(ctx, func(ctx context.Context) error {
		return r.sender.Send(ctx, notification)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send escalation: %w", err)
	}

	r.logger.Info("Escalation sent",
		zap.String("sessionId", req.SessionID),
		zap.String("to", recipient),
	)
	r.publish(ctx, events.NewEscalationRequested(req.SessionID, recipient, TopicEscalation, r.now()))

	return &ChatReply{Reply: MsgEscalationSent, Topic: TopicEscalation}, nil
}
