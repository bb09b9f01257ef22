package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Payment   PaymentConfig   `yaml:"payment"`
	Publisher PublisherConfig `yaml:"publisher"`
	Booking   BookingConfig   `yaml:"booking"`
	Worker    WorkerConfig    `yaml:"worker"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers        []string `yaml:"brokers"`
	CompletedTopic string   `yaml:"completed_topic"`
	GroupID        string   `yaml:"group_id"`
}

type GatewayConfig struct {
	StripeKeyEnv   string `yaml:"stripe_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Currency       string `yaml:"currency"`
}

// StripeKey resolves the secret from the environment so the key never lives
// in the config file itself.
func (g GatewayConfig) StripeKey() string {
	env := g.StripeKeyEnv
	if env == "" {
		env = "STRIPE_SECRET_KEY"
	}
	return os.Getenv(env)
}

type PaymentConfig struct {
	MaxRetries    int `yaml:"max_retries"`
	BackoffMillis int `yaml:"backoff_millis"`
}

type PublisherConfig struct {
	MaxAttempts       int `yaml:"max_attempts"`
	BaseBackoffMillis int `yaml:"base_backoff_millis"`
	AttemptTimeoutSec int `yaml:"attempt_timeout_seconds"`
}

type BookingConfig struct {
	HoldTTLMinutes     int `yaml:"hold_ttl_minutes"`
	ConcertCacheTTLSec int `yaml:"concert_cache_ttl_seconds"`
}

type WorkerConfig struct {
	OutboxSweepSeconds int `yaml:"outbox_sweep_seconds"`
	OutboxBatchSize    int `yaml:"outbox_batch_size"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
