package config

import "time"

// Config — конфигурация всех бинарников SuperTask.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Router   RouterConfig   `mapstructure:"router" validate:"required"`
	Breaker  BreakerConfig  `mapstructure:"breaker" validate:"required"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Bot      BotConfig      `mapstructure:"bot"`
}

// ServerConfig — HTTP API агента и логирование.
type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"required,oneof=text json"`
}

// DatabaseConfig — PostgreSQL.
type DatabaseConfig struct {
	URL      string `mapstructure:"url" validate:"required,url"`
	MaxConns int32  `mapstructure:"max_conns" validate:"gte=0"`
	Migrate  bool   `mapstructure:"migrate"`
}

// RabbitMQConfig — брокер задач.
type RabbitMQConfig struct {
	URL      string `mapstructure:"url" validate:"required,url"`
	Prefetch int    `mapstructure:"prefetch" validate:"gte=0"`
}

// RedisConfig — кэш результатов job. Пустой Addr отключает кэш.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db" validate:"gte=0"`
	ResultTTL time.Duration `mapstructure:"result_ttl" validate:"gte=0"`
}

// RouterConfig — задержка перед повторной отправкой задачи.
type RouterConfig struct {
	BackoffMin time.Duration `mapstructure:"backoff_min" validate:"gte=0"`
	BackoffMax time.Duration `mapstructure:"backoff_max" validate:"gtefield=BackoffMin"`
}

// BreakerConfig — circuit breaker отправки задач.
type BreakerConfig struct {
	MaxFailures      uint32        `mapstructure:"max_failures" validate:"gt=0"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout" validate:"gt=0"`
	HalfOpenRequests uint32        `mapstructure:"half_open_requests" validate:"gt=0"`
}

// JobsConfig — исполнение дочерних job.
type JobsConfig struct {
	// Timeout — таймаут job (0 — без таймаута).
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// BotConfig — бот-исполнитель (supertask-bot).
type BotConfig struct {
	// ModelEndpoints — explicit_id модели → HTTP endpoint.
	ModelEndpoints map[string]string `mapstructure:"model_endpoints" validate:"dive,keys,required,endkeys,url"`
	HTTPTimeout    time.Duration     `mapstructure:"http_timeout" validate:"gte=0"`
	MaxRetries     int               `mapstructure:"max_retries"`
	MetricsPort    int               `mapstructure:"metrics_port" validate:"gte=0,lt=65536"`
}
