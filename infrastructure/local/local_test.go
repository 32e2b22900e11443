package local

import (
	"context"
	"testing"
	"time"

	"automation-backend/application/ports"
	"automation-backend/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sender := NewLogSender(zap.New(core))

	require.NoError(t, sender.Send(context.Background(), ports.Notification{To: "a@example.com", Subject: "Automation reminder", Body: "hi"}))

	assert.Len(t, sender.Sent(), 1)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "a@example.com", logs.All()[0].ContextMap()["to"])
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	publisher := NewLogPublisher(zap.New(core))
	event := events.NewEscalationRequested("S", "ops@example.com", "support-escalation", time.Now())

	require.NoError(t, publisher.Publish(context.Background(), event))

	published := publisher.Published()
	require.Len(t, published, 1)
	assert.Equal(t, events.TypeEscalationRequested, published[0].GetEventType())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, events.TypeEscalationRequested, logs.All()[0].ContextMap()["eventType"])
}
