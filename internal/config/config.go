package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Database      DatabaseConfig     `yaml:"database"`
	SMTP          SMTPConfig         `yaml:"smtp"`
	Email         EmailConfig        `yaml:"email"`
	JWT           JWTConfig          `yaml:"jwt"`
	Log           LogConfig          `yaml:"log"`
	RateLimit     RateLimitConfig    `yaml:"rate_limit"`
	Redis         RedisConfig        `yaml:"redis"`
	Payments      PaymentsConfig     `yaml:"payments"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	User                   string `yaml:"user"`
	Password               string `yaml:"password"`
	Database               string `yaml:"database"`
	SSLMode                string `yaml:"ssl_mode"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	TxTimeoutSeconds       int    `yaml:"tx_timeout_seconds"`
	AutoMigrate            bool   `yaml:"auto_migrate"`
}

// SMTPConfig contains email service settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// EmailConfig selects the outbound mail provider
type EmailConfig struct {
	Provider       string `yaml:"provider"` // "smtp", "sendgrid" or "log"
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromName       string `yaml:"from_name"`
}

// JWTConfig contains the secret shared with the identity service
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format     string `yaml:"format"` // "json" or "text"
	File       string `yaml:"file"`   // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// RateLimitConfig limits booking creation per user
type RateLimitConfig struct {
	Enabled       bool   `yaml:"enabled"`
	CreateBooking string `yaml:"create_booking"` // limiter format, e.g. "10-M"
}

// RedisConfig backs the shared rate limiter store when set
type RedisConfig struct {
	URL string `yaml:"url"`
}

// PaymentsConfig contains the payment gateway credentials
type PaymentsConfig struct {
	Provider          string `yaml:"provider"` // "razorpay" or "" for none
	RazorpayKeyID     string `yaml:"razorpay_key_id"`
	RazorpayKeySecret string `yaml:"razorpay_key_secret"`
	Currency          string `yaml:"currency"`
}

// NotificationConfig tunes outbox delivery
type NotificationConfig struct {
	DispatchTimeoutSeconds int    `yaml:"dispatch_timeout_seconds"`
	LeaseSeconds           int    `yaml:"lease_seconds"`
	MaxAttempts            int    `yaml:"max_attempts"`
	RelayBatchSize         int    `yaml:"relay_batch_size"`
	RelayConcurrency       int    `yaml:"relay_concurrency"`
	AdminEmail             string `yaml:"admin_email"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	RelayOutbox        string `yaml:"relay_outbox"`
	ReportStaleEscrows string `yaml:"report_stale_escrows"`
}

// Load reads configuration from a YAML file. A .env file in the working
// directory is loaded first so its values take part in env overrides.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

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

	// SMTP
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.SMTP.Port)
	}
	if val := os.Getenv("SMTP_USER"); val != "" {
		c.SMTP.User = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.SMTP.Password = val
	}
	if val := os.Getenv("SMTP_FROM"); val != "" {
		c.SMTP.From = val
	}

	// Email
	if val := os.Getenv("EMAIL_PROVIDER"); val != "" {
		c.Email.Provider = val
	}
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.SendGridAPIKey = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
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

	// Redis
	if val := os.Getenv("REDIS_URL"); val != "" {
		c.Redis.URL = val
	}

	// Payments
	if val := os.Getenv("RAZORPAY_KEY_ID"); val != "" {
		c.Payments.RazorpayKeyID = val
	}
	if val := os.Getenv("RAZORPAY_KEY_SECRET"); val != "" {
		c.Payments.RazorpayKeySecret = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// Email validation
	switch c.Email.Provider {
	case "", "smtp":
		c.Email.Provider = "smtp"
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required")
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			return fmt.Errorf("invalid SMTP port: %d", c.SMTP.Port)
		}
	case "sendgrid":
		if c.Email.SendGridAPIKey == "" {
			return fmt.Errorf("sendgrid API key is required")
		}
	case "log":
	default:
		return fmt.Errorf("unsupported email provider: %s", c.Email.Provider)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	// Payments validation
	switch c.Payments.Provider {
	case "":
	case "razorpay":
		if c.Payments.RazorpayKeyID == "" || c.Payments.RazorpayKeySecret == "" {
			return fmt.Errorf("razorpay key id and secret are required")
		}
		if c.Payments.Currency == "" {
			c.Payments.Currency = "INR"
		}
	default:
		return fmt.Errorf("unsupported payments provider: %s", c.Payments.Provider)
	}

	// Defaults
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 15
	}
	if c.Database.TxTimeoutSeconds == 0 {
		c.Database.TxTimeoutSeconds = 10
	}
	if c.RateLimit.CreateBooking == "" {
		c.RateLimit.CreateBooking = "20-M"
	}
	if c.Notifications.DispatchTimeoutSeconds == 0 {
		c.Notifications.DispatchTimeoutSeconds = 5
	}
	if c.Notifications.LeaseSeconds == 0 {
		c.Notifications.LeaseSeconds = 60
	}
	if c.Notifications.MaxAttempts == 0 {
		c.Notifications.MaxAttempts = 5
	}
	if c.Notifications.RelayBatchSize == 0 {
		c.Notifications.RelayBatchSize = 100
	}
	if c.Notifications.RelayConcurrency == 0 {
		c.Notifications.RelayConcurrency = 4
	}
	if c.Scheduler.RelayOutbox == "" {
		c.Scheduler.RelayOutbox = "0 */1 * * * *" // every minute
	}
	if c.Scheduler.ReportStaleEscrows == "" {
		c.Scheduler.ReportStaleEscrows = "0 0 8 * * *" // 8 AM UTC
	}

	return nil
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

func (c *Config) TxTimeout() time.Duration {
	return time.Duration(c.Database.TxTimeoutSeconds) * time.Second
}

func (c *Config) DispatchTimeout() time.Duration {
	return time.Duration(c.Notifications.DispatchTimeoutSeconds) * time.Second
}

func (c *Config) OutboxLease() time.Duration {
	return time.Duration(c.Notifications.LeaseSeconds) * time.Second
}
