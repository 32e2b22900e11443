package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"automation-backend/application/ports"
	"automation-backend/domain/core/entities"
	"automation-backend/domain/core/valueobjects"
	"automation-backend/domain/events"
	domainservices "automation-backend/domain/services"
	pkgerrors "automation-backend/pkg/errors"
	"automation-backend/pkg/utils"

	"go.uber.org/zap"
)

// Replies the router gives without consulting any collaborator.
const (
	MsgEmptyMessage = "Message cannot be empty."
	MsgHelp         = "I'm your automation helper. I can set reminders, list or delete them, or escalate issues. Try saying “Set a reminder for tomorrow at 9am to check the deployment.”"
)

// ChatRequest is one inbound chat message
type ChatRequest struct {
	SessionID string             `json:"sessionId,omitempty"`
	Message   string             `json:"message"`
	User      entities.Requester `json:"user"`
}

// ChatReply is the router's answer to a ChatRequest
type ChatReply struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
	Topic     string `json:"topic,omitempty"`
}

// RouterConfig holds the settings intent handlers need
type RouterConfig struct {
	// Location is the zone reminder times are resolved and shown in
	Location         *time.Location
	ReminderTTL      time.Duration
	CallTimeout      time.Duration
	DefaultRecipient string
}

type intentHandler func(ctx context.Context, req ChatRequest) (*ChatReply, error)

type intentRoute struct {
	intent  domainservices.Intent
	handler intentHandler
}

// MessageRouter classifies chat messages and runs the matching intent handler.
// It is the only place errors are turned into caller-facing results.
type MessageRouter struct {
	store      ports.ReminderStore
	publisher  ports.EventPublisher
	sender     ports.NotificationSender
	classifier *domainservices.IntentClassifier
	resolver   domainservices.TimeResolver
	config     RouterConfig
	logger     *zap.Logger

	metrics ports.Metrics
	now     func() time.Time
	routes  []intentRoute
}

// NewMessageRouter creates a new message router
func NewMessageRouter(
	store ports.ReminderStore,
	publisher ports.EventPublisher,
	sender ports.NotificationSender,
	classifier *domainservices.IntentClassifier,
	resolver domainservices.TimeResolver,
	config RouterConfig,
	logger *zap.Logger,
) *MessageRouter {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.ReminderTTL <= 0 {
		config.ReminderTTL = entities.DefaultRetention
	}

	r := &MessageRouter{
		store:      store,
		publisher:  publisher,
		sender:     sender,
		classifier: classifier,
		resolver:   resolver,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
	r.routes = []intentRoute{
		{intent: domainservices.IntentCreateReminder, handler: r.handleCreateReminder},
		{intent: domainservices.IntentListReminders, handler: r.handleListReminders},
		{intent: domainservices.IntentDeleteReminder, handler: r.handleDeleteReminder},
		{intent: domainservices.IntentEscalate, handler: r.handleEscalate},
	}
	return r
}

// SetClock replaces the time source
func (r *MessageRouter) SetClock(now func() time.Time) {
	r.now = now
}

// SetMetrics attaches a metrics recorder
func (r *MessageRouter) SetMetrics(metrics ports.Metrics) {
	r.metrics = metrics
}

// Handle routes one chat message. Returned errors are *pkgerrors.AppError:
// VALIDATION for bad input, INTERNAL for everything else.
func (r *MessageRouter) Handle(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, pkgerrors.NewValidationError(MsgEmptyMessage)
	}
	if err := utils.ValidateStruct(req.User); err != nil {
		// Only create and escalate use the address; an unusable one is treated as absent.
		r.logger.Warn("Ignoring invalid requester email", zap.Error(err))
		req.User.Email = ""
	}

	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		req.SessionID = valueobjects.NewSessionID()
	}

	intent := r.classifier.Classify(req.Message)
	r.logger.Info("Routing message",
		zap.String("sessionId", req.SessionID),
		zap.String("intent", string(intent)),
	)

	handler := r.handlerFor(intent)
	if handler == nil {
		r.observe(intent, nil)
		return &ChatReply{SessionID: req.SessionID, Reply: MsgHelp}, nil
	}

	reply, err := r.invoke(ctx, handler, req)
	r.observe(intent, err)
	if err != nil {
		r.logger.Error("Intent handler failed",
			zap.Error(err),
			zap.String("sessionId", req.SessionID),
			zap.String("intent", string(intent)),
		)
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("%s handler failed", intent)).WithCause(err)
	}

	reply.SessionID = req.SessionID
	return reply, nil
}

func (r *MessageRouter) handlerFor(intent domainservices.Intent) intentHandler {
	for _, route := range r.routes {
		if route.intent == intent {
			return route.handler
		}
	}
	return nil
}

// invoke runs handler, converting a panic into an error
func (r *MessageRouter) invoke(ctx context.Context, handler intentHandler, req ChatRequest) (reply *ChatReply, err error) {
	defer func() {
		if p := recover(); p != nil {
			reply = nil
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	reply, err = handler(ctx, req)
	if err == nil && reply == nil {
		err = fmt.Errorf("handler returned no reply")
	}
	return reply, err
}

// call runs fn under the configured per-call timeout
func (r *MessageRouter) call(ctx context.Context, fn func(context.Context) error) error {
	if r.config.CallTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, r.config.CallTimeout)
	defer cancel()
	return fn(ctx)
}

// publish sends a lifecycle event. Failures are logged and dropped.
func (r *MessageRouter) publish(ctx context.Context, event events.DomainEvent) {
	err := r.call(ctx, func(ctx context.Context) error {
		return r.publisher.Publish(ctx, event)
	})
	if err != nil {
		r.logger.Warn("Failed to publish event",
			zap.Error(err),
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateId", event.GetAggregateID()),
		)
	}
}

func (r *MessageRouter) observe(intent domainservices.Intent, err error) {
	if r.metrics != nil {
		r.metrics.ObserveIntent(string(intent), err)
	}
}

// formatTime renders t the way replies show times
func (r *MessageRouter) formatTime(t time.Time) string {
	return t.In(r.config.Location).Format("Mon Jan 2, 2006 15:04 MST")
}
