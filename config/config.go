package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	WorkerPool WorkerPoolConfig `mapstructure:"worker_pool"`
	Realtime   RealtimeConfig   `mapstructure:"realtime"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port   int    `mapstructure:"port"`
	Mode   string `mapstructure:"mode"`
	NodeID int64  `mapstructure:"node_id"`
}

type PostgresConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"` // json or console
	Output   string `mapstructure:"output"` // stdout or file
	FilePath string `mapstructure:"file_path"`
}

// WorkerPoolConfig sizes the delivery pool (async message delivery jobs)
// and the fanout pool (per-sink pushes off the broker callback).
type WorkerPoolConfig struct {
	APIWorkers      int `mapstructure:"api_workers"`
	APIQueue        int `mapstructure:"api_queue"`
	DeliveryWorkers int `mapstructure:"delivery_workers"`
	DeliveryQueue   int `mapstructure:"delivery_queue"`
	FanoutWorkers   int `mapstructure:"fanout_workers"`
	FanoutQueue     int `mapstructure:"fanout_queue"`
}

// RealtimeConfig carries live-connection ceilings. A push (SSE) sink is cut
// after SSETimeout, a websocket session after WSSessionCap, whatever the
// client does.
type RealtimeConfig struct {
	SSETimeout   time.Duration `mapstructure:"sse_timeout"`
	WSSessionCap time.Duration `mapstructure:"ws_session_cap"`
}

// RateLimitConfig caps request rates per caller. Limits count in Redis, so
// they hold across every node sharing it. FailOpen admits traffic during a
// Redis outage instead of refusing it.
type RateLimitConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	FailOpen         bool `mapstructure:"fail_open"`
	AuthPerMinute    int  `mapstructure:"auth_per_minute"`
	APIPerMinute     int  `mapstructure:"api_per_minute"`
	MessagePerMinute int  `mapstructure:"message_per_minute"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("server.port", 9000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.node_id", 1)
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("worker_pool.api_workers", 64)
	v.SetDefault("worker_pool.api_queue", 4096)
	v.SetDefault("worker_pool.delivery_workers", 8)
	v.SetDefault("worker_pool.delivery_queue", 1024)
	v.SetDefault("worker_pool.fanout_workers", 16)
	v.SetDefault("worker_pool.fanout_queue", 256)
	v.SetDefault("realtime.sse_timeout", 120*time.Second)
	v.SetDefault("realtime.ws_session_cap", 15*time.Minute)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.fail_open", true)
	v.SetDefault("rate_limit.auth_per_minute", 10)
	v.SetDefault("rate_limit.api_per_minute", 300)
	v.SetDefault("rate_limit.message_per_minute", 60)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}
