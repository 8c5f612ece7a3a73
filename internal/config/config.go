package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN       string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL       string `env:"RABBITMQ_URL,required=true"`
	RedisURL          string `env:"REDIS_URL,required=true"`
	EmailGatewayURL   string `env:"EMAIL_GATEWAY_URL,required=true"`
	SMSGatewayURL     string `env:"SMS_GATEWAY_URL,required=true"`
	RateLimitPerSec   int    `env:"RATE_LIMIT_PER_SEC,default=100"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY,default=16"`
	MaxAttempts       int    `env:"MAX_ATTEMPTS,default=5"`
	RetryBaseDelaySec int    `env:"RETRY_BASE_DELAY_SEC,default=1"`
	RetryMaxDelaySec  int    `env:"RETRY_MAX_DELAY_SEC,default=60"`
	SendTimeoutSec    int    `env:"SEND_TIMEOUT_SEC,default=10"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`

	DBMaxOpenConns       int `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBMaxIdleConns       int `env:"DB_MAX_IDLE_CONNS,default=5"`
	DBConnMaxLifetimeMin int `env:"DB_CONN_MAX_LIFETIME_MIN,default=60"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelaySec) * time.Second
}

func (c *Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelaySec) * time.Second
}

func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSec) * time.Second
}

func (c *Config) DBConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeMin) * time.Minute
}
