package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Auth     AuthConfig     `yaml:"auth"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address             string   `yaml:"address"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_seconds"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
}

func (h HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(h.ShutdownTimeoutSecs) * time.Second
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	// Driver selects the storage backend: postgres or memory.
	Driver           string `yaml:"driver"`
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	Name             string `yaml:"name"`
	SSLMode          string `yaml:"ssl_mode"`
	TxTimeoutSeconds int    `yaml:"tx_timeout_seconds"`
	MigrateOnStart   bool   `yaml:"migrate_on_start"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (d DatabaseConfig) TxTimeout() time.Duration {
	return time.Duration(d.TxTimeoutSeconds) * time.Second
}

type RedisConfig struct {
	// Addr empty disables the flights cache and Idempotency-Key replay.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	// Brokers empty disables event publishing.
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
	PublishRetries     int      `yaml:"publish_retries"`
}

type BookingConfig struct {
	FlightsCacheTTL       int `yaml:"flights_cache_ttl_seconds"`
	IdempotencyTTLSeconds int `yaml:"idempotency_ttl_seconds"`
}

func (b BookingConfig) FlightsCacheDuration() time.Duration {
	return time.Duration(b.FlightsCacheTTL) * time.Second
}

func (b BookingConfig) IdempotencyTTL() time.Duration {
	return time.Duration(b.IdempotencyTTLSeconds) * time.Second
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	// AdminUsername is promoted to admin on registration.
	AdminUsername string `yaml:"admin_username"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

type WorkerConfig struct {
	// SanitizeIntervalMinutes schedules the ledger sanitize sweep. Zero or
	// negative leaves sanitizing to the admin route.
	SanitizeIntervalMinutes int `yaml:"sanitize_interval_minutes"`
}

func (w WorkerConfig) SanitizeInterval() time.Duration {
	if w.SanitizeIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(w.SanitizeIntervalMinutes) * time.Minute
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides, and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownTimeoutSecs <= 0 {
		c.HTTP.ShutdownTimeoutSecs = 5
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.TxTimeoutSeconds <= 0 {
		c.Database.TxTimeoutSeconds = 5
	}
	if c.Kafka.BookingTopic == "" {
		c.Kafka.BookingTopic = "booking_topic"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "booking-notifier"
	}
	if c.Kafka.PublishRetries <= 0 {
		c.Kafka.PublishRetries = 3
	}
	if c.Booking.FlightsCacheTTL <= 0 {
		c.Booking.FlightsCacheTTL = 60
	}
	if c.Booking.IdempotencyTTLSeconds <= 0 {
		c.Booking.IdempotencyTTLSeconds = 24 * 60 * 60
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		c.Auth.TokenTTLMinutes = 24 * 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// applyEnv lets secrets and endpoints come from the environment instead of the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DATABASE_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret (or JWT_SECRET) is required")
	}
	return nil
}
