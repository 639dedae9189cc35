package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "CATALOGUE_"

type Config struct {
	ServiceName string         `koanf:"servicename"`
	Server      ServerConfig   `koanf:"server"`
	Database    DatabaseConfig `koanf:"database"`
	JWT         JWTConfig      `koanf:"jwt"`
	Password    PasswordConfig `koanf:"password"`
	Mail        MailConfig     `koanf:"mail"`
	Notify      NotifyConfig   `koanf:"notify"`
	Breaker     BreakerConfig  `koanf:"breaker"`
	Kafka       KafkaConfig    `koanf:"kafka"`
	Search      SearchConfig   `koanf:"search"`
	Log         LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"readtimeout"`
	WriteTimeout    time.Duration `koanf:"writetimeout"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	URL    string `koanf:"url"`
}

type JWTConfig struct {
	AccessSecret  string        `koanf:"accesssecret"`
	RefreshSecret string        `koanf:"refreshsecret"`
	AccessTTL     time.Duration `koanf:"accessttl"`
	RefreshTTL    time.Duration `koanf:"refreshttl"`
}

type PasswordConfig struct {
	BcryptCost int `koanf:"bcryptcost"`
}

// MailConfig describes the SMTP relay. An empty Host disables delivery and
// notifications are only logged.
type MailConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

type NotifyConfig struct {
	FailFatal bool          `koanf:"failfatal"`
	Timeout   time.Duration `koanf:"timeout"`
}

type BreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

type SearchConfig struct {
	URL      string `koanf:"url"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Index    string `koanf:"index"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

func defaults() map[string]any {
	return map[string]any{
		"servicename":                 "catalogue",
		"server.port":                 8080,
		"server.readtimeout":          "10s",
		"server.writetimeout":         "15s",
		"server.shutdowntimeout":      "10s",
		"database.driver":             "postgres",
		"jwt.accessttl":               "5m",
		"jwt.refreshttl":              "24h",
		"password.bcryptcost":         10,
		"mail.port":                   587,
		"mail.from":                   "catalogue@localhost",
		"notify.failfatal":            false,
		"notify.timeout":              "10s",
		"breaker.consecutivefailures": 5,
		"breaker.opentimeout":         "30s",
		"kafka.topic":                 "product_events",
		"search.index":                "products",
		"log.level":                   "info",
	}
}

// Load layers defaults, the yaml file, the .env file and the process
// environment, later sources winning. Missing files are not an error.
func Load(configFile, envFile string) (Config, error) {
	var cfg Config
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return cfg, fmt.Errorf("load defaults: %w", err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config file '%s': %v", configFile, err)
		}
	}

	if envFile != "" {
		if envFileMap, err := godotenv.Read(envFile); err == nil {
			envMap := make(map[string]any)
			for key, value := range envFileMap {
				if !strings.HasPrefix(key, EnvPrefix) {
					continue
				}
				envMap[envKey(key)] = value
			}
			if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
				log.Printf("WARN: error loading .env config: %v", err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("WARN: error reading .env file: %v", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envKey maps CATALOGUE_JWT_ACCESSSECRET to jwt.accesssecret.
func envKey(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be greater than 0")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return fmt.Errorf("jwt.accesssecret and jwt.refreshsecret are required")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("jwt token lifetimes must be greater than 0")
	}
	if c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31 {
		return fmt.Errorf("password.bcryptcost must be between 4 and 31")
	}
	if c.Notify.Timeout <= 0 {
		return fmt.Errorf("notify.timeout must be greater than 0")
	}
	if c.Breaker.ConsecutiveFailures == 0 {
		return fmt.Errorf("breaker.consecutivefailures must be greater than 0")
	}
	return nil
}
