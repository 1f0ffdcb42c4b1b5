package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/wavecard/guard/pkg/constants"
)

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", constants.DefaultServicePort)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.idle_timeout", 60)
	v.SetDefault("server.shutdown_timeout", 30)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "guard")
	v.SetDefault("database.database", "guard")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", 60)
	v.SetDefault("database.max_conn_idle_time", 10)

	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.security_topic", "guard.security-events")
	v.SetDefault("kafka.trigger_topic", "guard.notification-triggers")
	v.SetDefault("kafka.group_id", "guard-trigger-consumers")
	v.SetDefault("kafka.required_acks", 1)
	v.SetDefault("kafka.batch_size", 100)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.key_prefix", constants.CacheKeyPrefixRateLimit)
	v.SetDefault("rate_limit.attempt_retention", 24)
	v.SetDefault("rate_limit.gc_interval", 60)
	v.SetDefault("rate_limit.local_fallback", true)
	v.SetDefault("rate_limit.rule_cache_ttl", 30)

	v.SetDefault("notifications.poll_interval", 60)
	v.SetDefault("notifications.batch_size", constants.QueueBatchSize)

	v.SetDefault("log.level", "info")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "guard")
	v.SetDefault("tracing.sampling_rate", 0.1)
	v.SetDefault("tracing.environment", "development")

	// Load from config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/guard/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Load from environment variables
	v.SetEnvPrefix("GUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
