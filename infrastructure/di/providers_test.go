package di

import (
	"context"
	"testing"

	"automation-backend/infrastructure/config"
	"automation-backend/infrastructure/local"
	"automation-backend/infrastructure/messaging/eventbridge"
	"automation-backend/infrastructure/notifications"
	"automation-backend/infrastructure/persistence/dynamodb"
	"automation-backend/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func localConfig() *config.Config {
	cfg := config.Default()
	cfg.StoreBackend = config.BackendMemory
	cfg.NotifierBackend = config.BackendLog
	cfg.PublisherBackend = config.BackendLog
	return cfg
}

func TestInitializeContainer_Local(t *testing.T) {
	container, err := InitializeContainer(context.Background(), localConfig())
	require.NoError(t, err)
	defer container.Shutdown()

	assert.IsType(t, &memory.ReminderStore{}, container.Store)
	assert.IsType(t, &local.LogPublisher{}, container.Publisher)
	assert.IsType(t, &notifications.BreakerSender{}, container.Sender)
	assert.NotNil(t, container.Router)
	assert.NotNil(t, container.Sweeper)
	assert.NotNil(t, container.Metrics)
	assert.False(t, container.Tracer.Enabled())
}

func TestProvideBackends_AWS(t *testing.T) {
	cfg := config.Default()
	cfg.SessionsTable = "sessions"
	cfg.EventBusName = "bus"
	logger := zap.NewNop()

	assert.IsType(t, &dynamodb.ReminderStore{}, ProvideReminderStore(cfg, nil, logger))
	assert.IsType(t, &eventbridge.Publisher{}, ProvideEventPublisher(cfg, nil, logger))
}

func TestProvideLogger_RejectsUnknownLevel(t *testing.T) {
	cfg := localConfig()
	cfg.LogLevel = "loud"

	_, err := ProvideLogger(cfg)
	assert.Error(t, err)
}
