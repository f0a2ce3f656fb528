package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the bot process.
type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Admin    AdminConfig    `yaml:"admin"`
	HTTP     HTTPConfig     `yaml:"http"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	LogLevel string         `yaml:"log_level"`
}

// BotConfig holds VK community credentials and long poll parameters.
type BotConfig struct {
	GroupID      int64  `yaml:"group_id"`
	Token        string `yaml:"token"`
	LongPollWait int    `yaml:"longpoll_wait"` // seconds
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// SessionConfig holds the key used to sign admin session tokens.
type SessionConfig struct {
	Key string `yaml:"key"`
}

// AdminConfig holds the seed credentials for the admin API.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// HTTPConfig holds the admin API listen address.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// PipelineConfig tunes the update processing pipeline.
type PipelineConfig struct {
	Workers   int     `yaml:"workers"`
	QueueSize int     `yaml:"queue_size"`
	RateLimit float64 `yaml:"rate_limit"` // per-user messages per second
	RateBurst int     `yaml:"rate_burst"`
}

// Default returns Config with sensible defaults.
// Credentials have no defaults -- Validate rejects the zero values.
func Default() Config {
	return Config{
		Bot: BotConfig{
			LongPollWait: 30,
		},
		Database: DatabaseConfig{
			Host:    "127.0.0.1",
			Port:    5432,
			SSLMode: "disable",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Pipeline: PipelineConfig{
			Workers:   5,
			QueueSize: 100,
			RateLimit: 3,
			RateBurst: 3,
		},
		LogLevel: "info",
	}
}

// Load loads config from a YAML file on top of defaults, then overlays
// POLEBOT_* environment variables. A missing file is fine: secrets can
// arrive entirely from the environment (validation catches gaps).
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays secrets from the environment so they can ride .env
// files instead of the yaml.
func (c *Config) applyEnv() error {
	if v := os.Getenv("POLEBOT_GROUP_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing POLEBOT_GROUP_ID: %w", err)
		}
		c.Bot.GroupID = id
	}
	if v := os.Getenv("POLEBOT_TOKEN"); v != "" {
		c.Bot.Token = v
	}
	if v := os.Getenv("POLEBOT_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("POLEBOT_SESSION_KEY"); v != "" {
		c.Session.Key = v
	}
	if v := os.Getenv("POLEBOT_ADMIN_PASSWORD"); v != "" {
		c.Admin.Password = v
	}
	return nil
}

// Validate checks that every required key is present.
func (c Config) Validate() error {
	var missing []string
	if c.Bot.GroupID == 0 {
		missing = append(missing, "bot.group_id")
	}
	if c.Bot.Token == "" {
		missing = append(missing, "bot.token")
	}
	if c.Database.User == "" {
		missing = append(missing, "database.user")
	}
	if c.Database.Password == "" {
		missing = append(missing, "database.password")
	}
	if c.Database.Host == "" {
		missing = append(missing, "database.host")
	}
	if c.Database.DBName == "" {
		missing = append(missing, "database.database")
	}
	if c.Session.Key == "" {
		missing = append(missing, "session.key")
	}
	if c.Admin.Email == "" {
		missing = append(missing, "admin.email")
	}
	if c.Admin.Password == "" {
		missing = append(missing, "admin.password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config keys: %s", strings.Join(missing, ", "))
	}
	return nil
}
