package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	PayPal    PayPalConfig    `yaml:"paypal"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Events    EventsConfig    `yaml:"events"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Mode            string `yaml:"mode"` // "development" exposes internal error detail
	ShutdownSeconds int    `yaml:"shutdown_seconds"`
}

// StoreConfig selects the backing store
type StoreConfig struct {
	Type string `yaml:"type"` // "postgres" or "memory"
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	EnsureSchema bool   `yaml:"ensure_schema"`
}

// JWTConfig contains access token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// SendGridConfig contains email delivery settings. An empty API key
// disables email.
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// PayPalConfig contains payment gateway settings
type PayPalConfig struct {
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// FirebaseConfig contains push notification settings. An empty
// credentials file disables push.
type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

// LedgerConfig contains payment schedule settings
type LedgerConfig struct {
	DueDay      int    `yaml:"due_day"`
	Currency    string `yaml:"currency"`
	FrontendURL string `yaml:"frontend_url"`
}

// EventsConfig sizes the in-process event bus
type EventsConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings (seconds precision, UTC)
type SchedulerConfig struct {
	SweepOverduePayments string `yaml:"sweep_overdue_payments"`
}

// Load reads configuration from a YAML file. Variables from a .env file in
// the working directory are loaded first; real environment variables win.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("SERVER_MODE"); val != "" {
		c.Server.Mode = val
	}

	// Store
	if val := os.Getenv("STORE_TYPE"); val != "" {
		c.Store.Type = val
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

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("SENDGRID_FROM_EMAIL"); val != "" {
		c.SendGrid.FromEmail = val
	}

	// PayPal
	if val := os.Getenv("PAYPAL_CLIENT_ID"); val != "" {
		c.PayPal.ClientID = val
	}
	if val := os.Getenv("PAYPAL_CLIENT_SECRET"); val != "" {
		c.PayPal.ClientSecret = val
	}
	if val := os.Getenv("PAYPAL_BASE_URL"); val != "" {
		c.PayPal.BaseURL = val
	}

	// Firebase
	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		c.Firebase.CredentialsFile = val
	}

	// Ledger
	if val := os.Getenv("FRONTEND_URL"); val != "" {
		c.Ledger.FrontendURL = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Mode == "" {
		c.Server.Mode = ModeProduction
	}
	if c.Server.Mode != ModeDevelopment && c.Server.Mode != ModeProduction {
		return fmt.Errorf("invalid server mode: %q", c.Server.Mode)
	}
	if c.Server.ShutdownSeconds <= 0 {
		c.Server.ShutdownSeconds = 15
	}

	// Store validation
	c.Store.Type = strings.ToLower(c.Store.Type)
	if c.Store.Type == "" {
		c.Store.Type = StorePostgres
	}
	switch c.Store.Type {
	case StorePostgres:
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
	case StoreMemory:
	default:
		return fmt.Errorf("invalid store type: %q", c.Store.Type)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// SendGrid validation
	if c.SendGrid.APIKey != "" && c.SendGrid.FromEmail == "" {
		return fmt.Errorf("sendgrid from_email is required when api_key is set")
	}

	// PayPal validation
	if c.PayPal.ClientID == "" || c.PayPal.ClientSecret == "" {
		return fmt.Errorf("paypal client_id and client_secret are required")
	}
	if c.PayPal.BaseURL == "" {
		c.PayPal.BaseURL = "https://api-m.sandbox.paypal.com"
	}
	if c.PayPal.TimeoutSeconds <= 0 {
		c.PayPal.TimeoutSeconds = 15
	}

	// Ledger defaults
	if c.Ledger.DueDay == 0 {
		c.Ledger.DueDay = 5
	}
	if c.Ledger.DueDay < 1 || c.Ledger.DueDay > 28 {
		return fmt.Errorf("ledger due_day must be between 1 and 28: %d", c.Ledger.DueDay)
	}
	if c.Ledger.Currency == "" {
		c.Ledger.Currency = "USD"
	}
	if c.Ledger.FrontendURL == "" {
		c.Ledger.FrontendURL = "http://localhost:3000"
	}

	// Events defaults
	if c.Events.BufferSize <= 0 {
		c.Events.BufferSize = 256
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Scheduler defaults
	if c.Scheduler.SweepOverduePayments == "" {
		c.Scheduler.SweepOverduePayments = "0 1 0 * * *" // 00:01 UTC daily
	}

	return nil
}

// IsDevelopment reports whether internal error detail may be returned to clients.
func (c *Config) IsDevelopment() bool {
	return c.Server.Mode == ModeDevelopment
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

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownSeconds) * time.Second
}

func (c *Config) PayPalTimeout() time.Duration {
	return time.Duration(c.PayPal.TimeoutSeconds) * time.Second
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}
