package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	platformstrings "tallyman/pkg/platform/strings"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Append lock modes.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// Config is the full server configuration, read from LEDGER_* variables.
type Config struct {
	Server  Server
	Store   Store
	Redis   RedisConfig
	Kafka   KafkaConfig
	Log     Log
	Tracing Tracing
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"LEDGER_ADDR"             envDefault:":8080"`
	RequestTimeout  time.Duration `env:"LEDGER_REQUEST_TIMEOUT"  envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"LEDGER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Store selects the transaction and key registry backends.
type Store struct {
	Transactions  string        `env:"LEDGER_STORE"           envDefault:"memory"`
	DataDir       string        `env:"LEDGER_DATA_DIR"        envDefault:"data"`
	DatabaseURL   string        `env:"LEDGER_DATABASE_URL"`
	Keys          string        `env:"LEDGER_KEY_STORE"       envDefault:"memory"`
	AppendLock    string        `env:"LEDGER_APPEND_LOCK"     envDefault:"local"`
	AppendLockTTL time.Duration `env:"LEDGER_APPEND_LOCK_TTL" envDefault:"10s"`
}

// RedisConfig configures the optional Redis connection. An empty URL leaves
// Redis disabled.
type RedisConfig struct {
	URL          string        `env:"LEDGER_REDIS_URL"`
	PoolSize     int           `env:"LEDGER_REDIS_POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"LEDGER_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"LEDGER_REDIS_DIAL_TIMEOUT"   envDefault:"5s"`
	ReadTimeout  time.Duration `env:"LEDGER_REDIS_READ_TIMEOUT"   envDefault:"3s"`
	WriteTimeout time.Duration `env:"LEDGER_REDIS_WRITE_TIMEOUT"  envDefault:"3s"`
}

// KafkaConfig configures append event publishing. No brokers means events
// are not published.
type KafkaConfig struct {
	Brokers  []string `env:"LEDGER_KAFKA_BROKERS"   envSeparator:","`
	Topic    string   `env:"LEDGER_KAFKA_TOPIC"     envDefault:"ledger.transactions"`
	ClientID string   `env:"LEDGER_KAFKA_CLIENT_ID" envDefault:"tallyman"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `env:"LEDGER_LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LEDGER_LOG_FORMAT" envDefault:"json"`
}

// Tracing enables OTLP span export when Endpoint is set.
type Tracing struct {
	Endpoint    string `env:"LEDGER_OTEL_ENDPOINT"`
	ServiceName string `env:"LEDGER_OTEL_SERVICE_NAME" envDefault:"tallyman"`
}

// Load parses the environment and validates backend combinations.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Kafka.Brokers = platformstrings.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown backends and backends missing their connection.
func (c Config) Validate() error {
	switch c.Store.Transactions {
	case BackendMemory, BackendFile:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("LEDGER_STORE=postgres requires LEDGER_DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown LEDGER_STORE %q", c.Store.Transactions)
	}

	switch c.Store.Keys {
	case BackendMemory, BackendFile:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("LEDGER_KEY_STORE=postgres requires LEDGER_DATABASE_URL")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("LEDGER_KEY_STORE=redis requires LEDGER_REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown LEDGER_KEY_STORE %q", c.Store.Keys)
	}

	switch c.Store.AppendLock {
	case LockLocal:
	case LockRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("LEDGER_APPEND_LOCK=redis requires LEDGER_REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown LEDGER_APPEND_LOCK %q", c.Store.AppendLock)
	}
	return nil
}

// UsesPostgres reports whether any backend needs a database connection.
func (c Config) UsesPostgres() bool {
	return c.Store.Transactions == BackendPostgres || c.Store.Keys == BackendPostgres
}

// UsesRedis reports whether any backend needs a Redis connection.
func (c Config) UsesRedis() bool {
	return c.Store.Keys == BackendRedis || c.Store.AppendLock == LockRedis
}
