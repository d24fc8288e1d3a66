package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Reminder transports.
const (
	TransportLocal = "local"
	TransportPush  = "push"
)

// Config holds the service configuration.
// Environment variables are read with the LOVETODAY_ prefix, e.g. LOVETODAY_PORT.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	DBPath   string `envconfig:"DB_PATH" default:"lovetoday.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Timezone string `envconfig:"TIMEZONE" default:"Local"`

	StoreBackend  string `envconfig:"STORE_BACKEND" default:"sqlite"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY" default:""`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY" default:""`
	VAPIDSubject    string `envconfig:"VAPID_SUBJECT" default:"mailto:noreply@lovetoday.app"`

	// Reminder transport is chosen once at startup.
	ReminderTransport string `envconfig:"REMINDER_TRANSPORT" default:"local"`
	// PushServerURL points the push transport at a remote directory. Empty
	// means the in-process directory is used.
	PushServerURL string `envconfig:"PUSH_SERVER_URL" default:""`

	DispatchEnabled     bool   `envconfig:"DISPATCH_ENABLED" default:"true"`
	DispatchSchedule    string `envconfig:"DISPATCH_SCHEDULE" default:"*/5 * * * *"`
	DispatchConcurrency int    `envconfig:"DISPATCH_CONCURRENCY" default:"8"`
	DispatchDedupe      bool   `envconfig:"DISPATCH_DEDUPE" default:"false"`

	S3Endpoint       string `envconfig:"S3_ENDPOINT" default:""`
	S3Bucket         string `envconfig:"S3_BUCKET" default:""`
	S3Region         string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey      string `envconfig:"S3_ACCESS_KEY" default:""`
	S3SecretKey      string `envconfig:"S3_SECRET_KEY" default:""`
	BackupPassphrase string `envconfig:"BACKUP_PASSPHRASE" default:""`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("LOVETODAY", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown enum values and unusable settings.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND: %s", c.StoreBackend)
	}
	switch c.ReminderTransport {
	case TransportLocal, TransportPush:
	default:
		return fmt.Errorf("unsupported REMINDER_TRANSPORT: %s", c.ReminderTransport)
	}
	if c.DispatchConcurrency < 1 {
		return fmt.Errorf("DISPATCH_CONCURRENCY must be at least 1, got %d", c.DispatchConcurrency)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured device time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// PushConfigured reports whether VAPID keys are present.
func (c *Config) PushConfigured() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}
