package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, BackendMemory, cfg.Store.Transactions)
	assert.Equal(t, "data", cfg.Store.DataDir)
	assert.Equal(t, BackendMemory, cfg.Store.Keys)
	assert.Equal(t, LockLocal, cfg.Store.AppendLock)
	assert.Equal(t, "ledger.transactions", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.UsesPostgres())
	assert.False(t, cfg.UsesRedis())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LEDGER_ADDR", ":9090")
	t.Setenv("LEDGER_STORE", "postgres")
	t.Setenv("LEDGER_DATABASE_URL", "postgres://ledger@localhost/ledger")
	t.Setenv("LEDGER_KEY_STORE", "redis")
	t.Setenv("LEDGER_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LEDGER_KAFKA_BROKERS", "k1:9092, k2:9092,k1:9092,")
	t.Setenv("LEDGER_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.UsesPostgres())
	assert.True(t, cfg.UsesRedis())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{Store: Store{Transactions: BackendMemory, Keys: BackendMemory, AppendLock: LockLocal}}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "file store", mutate: func(c *Config) { c.Store.Transactions = BackendFile }},
		{name: "file keys", mutate: func(c *Config) { c.Store.Keys = BackendFile }},
		{
			name:    "unknown store",
			mutate:  func(c *Config) { c.Store.Transactions = "sqlite" },
			wantErr: `unknown LEDGER_STORE "sqlite"`,
		},
		{
			name:    "postgres without url",
			mutate:  func(c *Config) { c.Store.Transactions = BackendPostgres },
			wantErr: "requires LEDGER_DATABASE_URL",
		},
		{
			name:    "redis keys without url",
			mutate:  func(c *Config) { c.Store.Keys = BackendRedis },
			wantErr: "LEDGER_KEY_STORE=redis requires LEDGER_REDIS_URL",
		},
		{
			name:    "redis lock without url",
			mutate:  func(c *Config) { c.Store.AppendLock = LockRedis },
			wantErr: "LEDGER_APPEND_LOCK=redis requires LEDGER_REDIS_URL",
		},
		{
			name:    "unknown lock",
			mutate:  func(c *Config) { c.Store.AppendLock = "zookeeper" },
			wantErr: "unknown LEDGER_APPEND_LOCK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
