package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_LayersSources(t *testing.T) {
	yamlFile := writeFile(t, "config.yaml", `
server:
  port: 9000
database:
  driver: sqlite
  url: "file:catalogue.db"
jwt:
  accesssecret: from-yaml
  refreshsecret: from-yaml
kafka:
  brokers:
    - kafka:9092
`)
	envFile := writeFile(t, ".env", "CATALOGUE_JWT_REFRESHSECRET=from-dotenv\nUNRELATED=1\n")
	t.Setenv("CATALOGUE_JWT_ACCESSSECRET", "from-env")
	t.Setenv("CATALOGUE_NOTIFY_FAILFATAL", "true")

	cfg, err := Load(yamlFile, envFile)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:catalogue.db", cfg.Database.URL)
	assert.Equal(t, "from-env", cfg.JWT.AccessSecret)
	assert.Equal(t, "from-dotenv", cfg.JWT.RefreshSecret)
	assert.True(t, cfg.Notify.FailFatal)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)

	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, "product_events", cfg.Kafka.Topic)
	assert.Equal(t, uint32(5), cfg.Breaker.ConsecutiveFailures)
}

func TestLoad_MissingFilesUseDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CATALOGUE_DATABASE_URL", "postgres://localhost/catalogue")
	t.Setenv("CATALOGUE_JWT_ACCESSSECRET", "a")
	t.Setenv("CATALOGUE_JWT_REFRESHSECRET", "r")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Password.BcryptCost)
	assert.Empty(t, cfg.Mail.Host)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "postgres", URL: "postgres://x"},
			JWT:      JWTConfig{AccessSecret: "a", RefreshSecret: "r", AccessTTL: time.Minute, RefreshTTL: time.Hour},
			Password: PasswordConfig{BcryptCost: 10},
			Notify:   NotifyConfig{Timeout: time.Second},
			Breaker:  BreakerConfig{ConsecutiveFailures: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "no port", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }},
		{name: "no database url", mutate: func(c *Config) { c.Database.URL = "" }},
		{name: "no access secret", mutate: func(c *Config) { c.JWT.AccessSecret = "" }},
		{name: "no refresh ttl", mutate: func(c *Config) { c.JWT.RefreshTTL = 0 }},
		{name: "bcrypt cost too low", mutate: func(c *Config) { c.Password.BcryptCost = 3 }},
		{name: "no notify timeout", mutate: func(c *Config) { c.Notify.Timeout = 0 }},
		{name: "no breaker threshold", mutate: func(c *Config) { c.Breaker.ConsecutiveFailures = 0 }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
