package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_SESSION_PEPPER", "secret")
	t.Setenv("STOREFRONT_STORAGE_BACKEND", "memory")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 5*time.Second, cfg.Storage.WriteTimeout)
	assert.Equal(t, "storefront.orders", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_SESSION_PEPPER", "secret")
	t.Setenv("STOREFRONT_STORAGE_BACKEND", "Redis")
	t.Setenv("DATABASE_URL", "postgres://localhost/storefront")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "postgres://localhost/storefront", cfg.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Storage.RedisURL)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
session:
  pepper: from-file
  idle_timeout: 5m
storage:
  backend: sqlite
  sqlite_path: state.db
kafka:
  brokers: ["kafka:9092"]
`), 0o600))

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Session.Pepper)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "state.db", cfg.Storage.SQLitePath)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			DatabaseURL: "postgres://localhost/storefront",
			Storage:     StorageConfig{Backend: BackendPostgres, SQLitePath: "x.db"},
			Session:     SessionConfig{Pepper: "secret"},
			Kafka:       KafkaConfig{Topic: "orders"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Valid", func(*Config) {}, ""},
		{"NoPepper", func(c *Config) { c.Session.Pepper = "" }, "session pepper"},
		{"PostgresWithoutURL", func(c *Config) { c.DatabaseURL = "" }, "database URL"},
		{"MemoryWithoutURL", func(c *Config) { c.DatabaseURL = ""; c.Storage.Backend = BackendMemory }, ""},
		{"RedisWithoutURL", func(c *Config) { c.Storage.Backend = BackendRedis }, "redis URL"},
		{"SQLiteWithoutPath", func(c *Config) { c.Storage.Backend = BackendSQLite; c.Storage.SQLitePath = "" }, "sqlite path"},
		{"UnknownBackend", func(c *Config) { c.Storage.Backend = "etcd" }, "unknown storage backend"},
		{"BrokersWithoutTopic", func(c *Config) { c.Kafka.Brokers = []string{"k:9092"}; c.Kafka.Topic = "" }, "kafka topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
