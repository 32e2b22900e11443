//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"automation-backend/infrastructure/config"

	"github.com/google/wire"
)

// AWSSet provides the AWS SDK clients
var AWSSet = wire.NewSet(
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideSESClient,
	ProvideCloudWatchClient,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideTracer,
	AWSSet,
	ProvideReminderStore,
	ProvideEventPublisher,
	ProvideNotificationSender,
	ProvideMetricsCollector,
	ProvideSweepReporter,
	ProvideIntentClassifier,
	ProvideTimeResolver,
	ProvideMessageRouter,
	ProvideDispatchSweeper,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
