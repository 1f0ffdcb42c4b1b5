package config

import (
	"fmt"
	"time"
)

// Config holds the application's configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Auth          AuthConfig          `mapstructure:"auth"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Log           LogConfig           `mapstructure:"log"`
	Tracing       TracingConfig       `mapstructure:"tracing"`
	Monitoring    MonitoringConfig    `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // in seconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // in seconds
	IdleTimeout     int    `mapstructure:"idle_timeout"`     // in seconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // in seconds
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime"` // in minutes
	MaxConnIdleTime int    `mapstructure:"max_conn_idle_time"` // in minutes
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Password     string   `mapstructure:"password"`
	DB           int      `mapstructure:"db"`
	PoolSize     int      `mapstructure:"pool_size"`
	MinIdleConns int      `mapstructure:"min_idle_conns"`
}

type KafkaConfig struct {
	Brokers       []string      `mapstructure:"brokers"`
	SecurityTopic string        `mapstructure:"security_topic"`
	TriggerTopic  string        `mapstructure:"trigger_topic"`
	GroupID       string        `mapstructure:"group_id"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	RequiredAcks  int           `mapstructure:"required_acks"`
	BatchSize     int           `mapstructure:"batch_size"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout"`
}

type VaultConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
}

type AuthConfig struct {
	// AdminTokenSecret signs/verifies the HS256 bearer tokens that protect
	// the admin API surface.
	AdminTokenSecret string `mapstructure:"admin_token_secret"`
}

type RateLimitConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	KeyPrefix         string `mapstructure:"key_prefix"`
	AttemptRetention  int    `mapstructure:"attempt_retention"`   // in hours
	GCInterval        int    `mapstructure:"gc_interval"`         // in minutes
	LocalFallback     bool   `mapstructure:"local_fallback"`
	RuleCacheTTL      int    `mapstructure:"rule_cache_ttl"`      // in seconds
}

type NotificationsConfig struct {
	PollInterval  int            `mapstructure:"poll_interval"` // in seconds
	BatchSize     int            `mapstructure:"batch_size"`
	Email         EmailProvider  `mapstructure:"email"`
	SMS           SMSProvider    `mapstructure:"sms"`
}

type EmailProvider struct {
	Endpoint    string `mapstructure:"endpoint"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
}

type SMSProvider struct {
	Endpoint   string `mapstructure:"endpoint"`
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
	Environment    string  `mapstructure:"environment"`
}

type MonitoringConfig struct {
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if len(c.Redis.Addresses) == 0 {
		return fmt.Errorf("redis.addresses is required")
	}
	if c.Notifications.BatchSize <= 0 {
		return fmt.Errorf("notifications.batch_size must be positive")
	}
	return nil
}
