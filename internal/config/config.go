package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"toolrent-backend/internal/policy"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Policy    PolicyConfig    `yaml:"policy"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the allocation store backend.
type StorageConfig struct {
	Type string `yaml:"type"` // "postgres" or "memory"
	// SeedFile lists tools and users loaded into the memory backend.
	SeedFile string `yaml:"seed_file"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// PolicyConfig contains the refund tiers and deposit rules.
type PolicyConfig struct {
	RefundTiers   []policy.RefundTier `yaml:"refund_tiers"`
	DepositAmount string              `yaml:"deposit_amount"`
	TimeZone      string              `yaml:"time_zone"`
}

// SendGridConfig enables e-mail notifications when APIKey is set.
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// RabbitMQConfig enables booking event publishing when Host is set.
type RabbitMQConfig struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	VHost      string        `yaml:"vhost"`
	Exchange   string        `yaml:"exchange"`
	RetryCount int           `yaml:"retry_count"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SyncToolAvailability string `yaml:"sync_tool_availability"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}

	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Policy
	if val := os.Getenv("DEPOSIT_AMOUNT"); val != "" {
		c.Policy.DepositAmount = val
	}

	// Integrations
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("RABBITMQ_HOST"); val != "" {
		c.RabbitMQ.Host = val
	}
	if val := os.Getenv("RABBITMQ_USERNAME"); val != "" {
		c.RabbitMQ.Username = val
	}
	if val := os.Getenv("RABBITMQ_PASSWORD"); val != "" {
		c.RabbitMQ.Password = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Type {
	case "":
		c.Storage.Type = "postgres"
		fallthrough
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}

	if c.Policy.DepositAmount == "" {
		c.Policy.DepositAmount = "50.00"
	}
	if c.Policy.TimeZone == "" {
		c.Policy.TimeZone = "UTC"
	}
	if _, err := c.BookingPolicy(); err != nil {
		return err
	}

	if c.SendGrid.APIKey != "" && c.SendGrid.FromEmail == "" {
		return fmt.Errorf("sendgrid from_email is required when api_key is set")
	}

	if c.RabbitMQ.Host != "" {
		if c.RabbitMQ.Port == 0 {
			c.RabbitMQ.Port = 5672
		}
		if c.RabbitMQ.VHost == "" {
			c.RabbitMQ.VHost = "/"
		}
		if c.RabbitMQ.Exchange == "" {
			c.RabbitMQ.Exchange = "booking.events"
		}
		if c.RabbitMQ.RetryCount <= 0 {
			c.RabbitMQ.RetryCount = 3
		}
		if c.RabbitMQ.RetryDelay <= 0 {
			c.RabbitMQ.RetryDelay = 5 * time.Second
		}
	}

	if c.Scheduler.SyncToolAvailability == "" {
		c.Scheduler.SyncToolAvailability = "0 5 0 * * *" // 00:05 UTC daily
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	return nil
}

// BookingPolicy builds the refund/deposit policy from the policy section.
func (c *Config) BookingPolicy() (policy.Policy, error) {
	deposit, err := decimal.NewFromString(c.Policy.DepositAmount)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("invalid deposit amount %q: %w", c.Policy.DepositAmount, err)
	}
	loc, err := time.LoadLocation(c.Policy.TimeZone)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("invalid time zone %q: %w", c.Policy.TimeZone, err)
	}
	return policy.New(c.Policy.RefundTiers, deposit, loc)
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
