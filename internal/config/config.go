// Package config provides configuration structures and validation for the account
// service binaries. Values come from an optional .env file and the environment.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field is one subsystem
// and is validated during startup.
type Config struct {
	Application       ApplicationConfig
	Logging           LoggingConfig
	Server            ServerConfig
	Kafka             KafkaConfig
	Postgres          PostgresConfig
	MongoDB           MongoDBConfig
	CustomerDirectory CustomerDirectoryConfig
	FaultTolerance    FaultToleranceConfig
	Eod               EodConfig
	WorkerPool        WorkerPoolConfig
	Account           AccountConfig
}

type ApplicationConfig struct {
	Env  string
	Name string
}

type LoggingConfig struct {
	Level  string
	Format string // json or text
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	EventsTopic       string // account lifecycle events
	MovementsTopic    string // movements posted by the transaction service
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

// PostgresConfig contains the analytics store configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains the account store configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// CustomerDirectoryConfig points at the customer service
type CustomerDirectoryConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

// FaultToleranceConfig is shared by every guarded operation
type FaultToleranceConfig struct {
	Timeout                time.Duration
	RequestVolumeThreshold int
	FailureRatio           float64
	Delay                  time.Duration
	SuccessThreshold       int
}

// EodConfig schedules the end-of-day snapshot job
type EodConfig struct {
	Schedule string // standard 5-field cron expression
	Timezone string
}

type WorkerPoolConfig struct {
	Size int
}

type AccountConfig struct {
	NumberRetryAttempts int
}

// validate checks every subsystem and reports all problems at once
func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.EventsTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_EVENTS_TOPIC is required")
	}
	if c.Kafka.MovementsTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_MOVEMENTS_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}

	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	if c.CustomerDirectory.BaseURL == "" {
		validationErrors = append(validationErrors, "CUSTOMER_SERVICE_URL is required")
	}
	if c.CustomerDirectory.HTTPTimeout <= 0 {
		validationErrors = append(validationErrors, "CUSTOMER_SERVICE_HTTP_TIMEOUT must be greater than 0")
	}

	if c.FaultTolerance.Timeout <= 0 {
		validationErrors = append(validationErrors, "FT_TIMEOUT must be greater than 0")
	}
	if c.FaultTolerance.RequestVolumeThreshold <= 0 {
		validationErrors = append(validationErrors, "FT_REQUEST_VOLUME_THRESHOLD must be greater than 0")
	}
	if c.FaultTolerance.FailureRatio <= 0 || c.FaultTolerance.FailureRatio > 1 {
		validationErrors = append(validationErrors, "FT_FAILURE_RATIO must be in (0, 1]")
	}
	if c.FaultTolerance.Delay <= 0 {
		validationErrors = append(validationErrors, "FT_DELAY must be greater than 0")
	}
	if c.FaultTolerance.SuccessThreshold <= 0 {
		validationErrors = append(validationErrors, "FT_SUCCESS_THRESHOLD must be greater than 0")
	}

	if c.Eod.Schedule == "" {
		validationErrors = append(validationErrors, "EOD_SCHEDULE is required")
	}
	if _, err := time.LoadLocation(c.Eod.Timezone); err != nil {
		validationErrors = append(validationErrors, "EOD_TIMEZONE must be a valid IANA zone")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}
	if c.Account.NumberRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "ACCOUNT_NUMBER_RETRY_ATTEMPTS must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
