package di

import (
	"context"
	"fmt"

	"automation-backend/application/ports"
	"automation-backend/application/services"
	domainservices "automation-backend/domain/services"
	"automation-backend/infrastructure/config"
	"automation-backend/infrastructure/local"
	"automation-backend/infrastructure/messaging/eventbridge"
	"automation-backend/infrastructure/notifications"
	"automation-backend/infrastructure/notifications/ses"
	"automation-backend/infrastructure/observability"
	"automation-backend/infrastructure/persistence/dynamodb"
	"automation-backend/infrastructure/persistence/memory"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awsses "github.com/aws/aws-sdk-go-v2/service/ses"
	"go.uber.org/zap"
)

// ServiceName names the service in traces
const ServiceName = "automation-bot"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(ServiceName, cfg.EnableTracing)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config, tracer *observability.Tracer) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	tracer.InstrumentAWS(&awsCfg)
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideSESClient creates an SES client
func ProvideSESClient(awsCfg aws.Config) *awsses.Client {
	return awsses.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideReminderStore selects the reminder store backend
func ProvideReminderStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.ReminderStore {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Info("Using in-memory reminder store")
		return memory.NewReminderStore()
	}
	return dynamodb.NewReminderStore(client, cfg.SessionsTable, cfg.DueIndexName, logger)
}

// ProvideEventPublisher selects the event publisher backend
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.PublisherBackend == config.BackendLog {
		return local.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, cfg.EventSource, logger)
}

// ProvideNotificationSender selects the mail backend and puts it behind a circuit breaker
func ProvideNotificationSender(cfg *config.Config, client *awsses.Client, logger *zap.Logger) ports.NotificationSender {
	var sender ports.NotificationSender
	if cfg.NotifierBackend == config.BackendLog {
		sender = local.NewLogSender(logger)
	} else {
		sender = ses.NewSender(client, cfg.SenderAddress, logger)
	}

	breakerCfg := notifications.DefaultBreakerConfig("notifications-" + cfg.NotifierBackend)
	breakerCfg.FailureThreshold = cfg.BreakerFailureThreshold
	breakerCfg.MinRequests = cfg.BreakerMinRequests
	breakerCfg.Timeout = cfg.BreakerOpenTimeout
	return notifications.NewBreakerSender(sender, breakerCfg, logger)
}

// ProvideMetricsCollector creates the Prometheus collector
func ProvideMetricsCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.MetricsNamespace)
}

// ProvideSweepReporter creates the CloudWatch sweep reporter. Local runs report nothing.
func ProvideSweepReporter(cfg *config.Config, client *awscloudwatch.Client, logger *zap.Logger) *observability.SweepReporter {
	namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
	if cfg.IsLocal() {
		return observability.NewSweepReporter(namespace, nil, logger)
	}
	return observability.NewSweepReporter(namespace, client, logger)
}

// ProvideIntentClassifier creates the classifier with the default rule order
func ProvideIntentClassifier() *domainservices.IntentClassifier {
	return domainservices.NewIntentClassifier(domainservices.DefaultIntentRules())
}

// ProvideTimeResolver creates the time resolver
func ProvideTimeResolver() domainservices.TimeResolver {
	return domainservices.NewKeywordTimeResolver()
}

// ProvideMessageRouter creates the chat message router
func ProvideMessageRouter(
	cfg *config.Config,
	store ports.ReminderStore,
	publisher ports.EventPublisher,
	sender ports.NotificationSender,
	classifier *domainservices.IntentClassifier,
	resolver domainservices.TimeResolver,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.MessageRouter {
	router := services.NewMessageRouter(store, publisher, sender, classifier, resolver, services.RouterConfig{
		Location:         cfg.Location(),
		ReminderTTL:      cfg.ReminderTTL,
		CallTimeout:      cfg.CallTimeout,
		DefaultRecipient: cfg.DefaultRecipient,
	}, logger)
	router.SetMetrics(metrics)
	return router
}

// ProvideDispatchSweeper creates the reminder dispatch sweeper
func ProvideDispatchSweeper(
	cfg *config.Config,
	store ports.ReminderStore,
	sender ports.NotificationSender,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.DispatchSweeper {
	sweeper := services.NewDispatchSweeper(store, sender, publisher, services.SweeperConfig{
		DefaultRecipient: cfg.DefaultRecipient,
		ClaimLease:       cfg.ClaimLease,
		CallTimeout:      cfg.CallTimeout,
		Concurrency:      cfg.DispatchConcurrency,
		Location:         cfg.Location(),
	}, logger)
	sweeper.SetMetrics(metrics)
	return sweeper
}
