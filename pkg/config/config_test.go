package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "https://xkcd.com", cfg.Source.BaseURL)
	assert.Equal(t, 3, cfg.Sync.MaxAttempts)
	assert.Equal(t, 9999, cfg.Sync.FallbackFrontier)
	assert.Equal(t, []int{404}, cfg.Sync.KnownBad)
	assert.Equal(t, "file", cfg.Lock.Backend)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
database:
  driver: postgres
  host: db.internal
  port: 6543
sync:
  maxAttempts: 5
  initialDelay: 2s
  knownBad: [404, 1608]
logging:
  level: debug
  format: json
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 5, cfg.Sync.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Sync.InitialDelay)
	assert.Equal(t, []int{404, 1608}, cfg.Sync.KnownBad)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched sections keep their defaults
	assert.Equal(t, 9999, cfg.Sync.FallbackFrontier)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("XI_DATABASE_PATH", "/tmp/other.db")
	t.Setenv("XI_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("XI_SYNC_MAX_ATTEMPTS", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 7, cfg.Sync.MaxAttempts)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }},
		{"unknown lock backend", func(c *Config) { c.Lock.Backend = "etcd" }},
		{"zero attempts", func(c *Config) { c.Sync.MaxAttempts = 0 }},
		{"zero fallback", func(c *Config) { c.Sync.FallbackFrontier = 0 }},
		{"kafka without brokers", func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", d.DSN())
}
