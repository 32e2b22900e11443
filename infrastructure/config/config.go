package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"automation-backend/pkg/utils"

	"gopkg.in/yaml.v3"
)

// Store, notifier and publisher backends.
const (
	BackendDynamoDB    = "dynamodb"
	BackendMemory      = "memory"
	BackendSES         = "ses"
	BackendEventBridge = "eventbridge"
	BackendLog         = "log"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"serverAddress" validate:"required"`
	Environment   string `yaml:"environment" validate:"required,oneof=development staging production"`

	// AWS configuration
	AWSRegion     string `yaml:"awsRegion" validate:"required"`
	SessionsTable string `yaml:"sessionsTable"`
	DueIndexName  string `yaml:"dueIndexName"`
	EventBusName  string `yaml:"eventBusName"`
	EventSource   string `yaml:"eventSource" validate:"required"`

	// Email
	SenderAddress    string `yaml:"senderAddress" validate:"omitempty,email"`
	DefaultRecipient string `yaml:"defaultRecipient" validate:"omitempty,email"`

	// Reminders
	Timezone            string        `yaml:"timezone" validate:"required,timezone"`
	ReminderTTL         time.Duration `yaml:"reminderTTL" validate:"min=1h"`
	ClaimLease          time.Duration `yaml:"claimLease" validate:"min=1s"`
	CallTimeout         time.Duration `yaml:"callTimeout" validate:"min=100ms"`
	DispatchConcurrency int           `yaml:"dispatchConcurrency" validate:"min=1,max=64"`
	SweepInterval       time.Duration `yaml:"sweepInterval" validate:"min=1s"`

	// Backends
	StoreBackend     string `yaml:"storeBackend" validate:"oneof=dynamodb memory"`
	NotifierBackend  string `yaml:"notifierBackend" validate:"oneof=ses log"`
	PublisherBackend string `yaml:"publisherBackend" validate:"oneof=eventbridge log"`

	// HTTP
	AllowedOrigins []string `yaml:"allowedOrigins" validate:"min=1"`

	// Logging and features
	LogLevel         string `yaml:"logLevel" validate:"oneof=debug info warn error"`
	EnableTracing    bool   `yaml:"enableTracing"`
	MetricsNamespace string `yaml:"metricsNamespace" validate:"required"`

	// Notification circuit breaker
	BreakerFailureThreshold float64       `yaml:"breakerFailureThreshold" validate:"gt=0,lte=1"`
	BreakerMinRequests      uint32        `yaml:"breakerMinRequests" validate:"min=1"`
	BreakerOpenTimeout      time.Duration `yaml:"breakerOpenTimeout" validate:"min=1s"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		ServerAddress:           ":8080",
		Environment:             "development",
		AWSRegion:               "us-east-1",
		DueIndexName:            "DueIndex",
		EventSource:             "automation.bot",
		Timezone:                "UTC",
		ReminderTTL:             30 * 24 * time.Hour,
		ClaimLease:              2 * time.Minute,
		CallTimeout:             5 * time.Second,
		DispatchConcurrency:     4,
		SweepInterval:           time.Minute,
		StoreBackend:            BackendDynamoDB,
		NotifierBackend:         BackendSES,
		PublisherBackend:        BackendEventBridge,
		AllowedOrigins:          []string{"*"},
		LogLevel:                "info",
		MetricsNamespace:        "AutomationBot",
		BreakerFailureThreshold: 0.5,
		BreakerMinRequests:      5,
		BreakerOpenTimeout:      30 * time.Second,
	}
}

// LoadConfig builds the configuration from defaults, the YAML file named by
// CONFIG_FILE if set, then environment variables, and validates the result.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.SessionsTable = getEnv("SESSIONS_TABLE", c.SessionsTable)
	c.DueIndexName = getEnv("DUE_INDEX_NAME", c.DueIndexName)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.EventSource = getEnv("EVENT_SOURCE", c.EventSource)
	c.SenderAddress = getEnv("SES_FROM_ADDRESS", c.SenderAddress)
	c.DefaultRecipient = getEnv("SES_DEFAULT_RECIPIENT", c.DefaultRecipient)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)
	c.StoreBackend = getEnv("STORE_BACKEND", c.StoreBackend)
	c.NotifierBackend = getEnv("NOTIFIER_BACKEND", c.NotifierBackend)
	c.PublisherBackend = getEnv("PUBLISHER_BACKEND", c.PublisherBackend)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.MetricsNamespace = getEnv("METRICS_NAMESPACE", c.MetricsNamespace)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}

	var err error
	if c.ReminderTTL, err = getEnvDuration("REMINDER_TTL", c.ReminderTTL); err != nil {
		return err
	}
	if c.ClaimLease, err = getEnvDuration("CLAIM_LEASE", c.ClaimLease); err != nil {
		return err
	}
	if c.CallTimeout, err = getEnvDuration("CALL_TIMEOUT", c.CallTimeout); err != nil {
		return err
	}
	if c.SweepInterval, err = getEnvDuration("SWEEP_INTERVAL", c.SweepInterval); err != nil {
		return err
	}
	if c.BreakerOpenTimeout, err = getEnvDuration("BREAKER_OPEN_TIMEOUT", c.BreakerOpenTimeout); err != nil {
		return err
	}
	c.DispatchConcurrency = getEnvInt("DISPATCH_CONCURRENCY", c.DispatchConcurrency)
	c.BreakerMinRequests = uint32(getEnvInt("BREAKER_MIN_REQUESTS", int(c.BreakerMinRequests)))
	if value := os.Getenv("BREAKER_FAILURE_THRESHOLD"); value != "" {
		threshold, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("BREAKER_FAILURE_THRESHOLD: %w", err)
		}
		c.BreakerFailureThreshold = threshold
	}
	return nil
}

// Validate checks field constraints and the settings each backend needs
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.StoreBackend == BackendDynamoDB {
		if c.SessionsTable == "" {
			return fmt.Errorf("SESSIONS_TABLE is required")
		}
		if c.DueIndexName == "" {
			return fmt.Errorf("DUE_INDEX_NAME is required")
		}
	}
	if c.PublisherBackend == BackendEventBridge && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required")
	}
	if c.NotifierBackend == BackendSES && c.SenderAddress == "" {
		return fmt.Errorf("SES_FROM_ADDRESS is required")
	}
	return nil
}

// Location returns the zone reminder times are resolved and shown in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsLocal reports whether every collaborator runs in-process
func (c *Config) IsLocal() bool {
	return c.StoreBackend == BackendMemory && c.NotifierBackend == BackendLog && c.PublisherBackend == BackendLog
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
