// Package config loads process configuration from the environment,
// with optional .env support.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Engine  EngineConfig
	Kafka   KafkaConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	HTTPAddr       string
	AllowedOrigins []string
}

type EngineConfig struct {
	WALDir          string
	WALSegmentSize  int64
	OutboxDir       string
	FeedBuffer      int
	CommandBuffer   int
	DepthLevels     int
	DepthInterval   time.Duration
	BroadcastPeriod time.Duration
}

type KafkaConfig struct {
	Brokers    []string
	TradeTopic string
	DepthTopic string
}

type LoggingConfig struct {
	Level string
}

// Enabled reports whether Kafka publication is configured at all.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Load reads configuration from VALHALLA_* environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore error if .env doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			HTTPAddr:       getEnvString("VALHALLA_HTTP_ADDR", ":8080"),
			AllowedOrigins: getEnvList("VALHALLA_ALLOWED_ORIGINS", []string{"*"}),
		},
		Engine: EngineConfig{
			WALDir:          getEnvString("VALHALLA_WAL_DIR", "./data/wal"),
			WALSegmentSize:  int64(getEnvInt("VALHALLA_WAL_SEGMENT_SIZE", 2*1024*1024)),
			OutboxDir:       getEnvString("VALHALLA_OUTBOX_DIR", "./data/outbox"),
			FeedBuffer:      getEnvInt("VALHALLA_FEED_BUFFER", 4096),
			CommandBuffer:   getEnvInt("VALHALLA_COMMAND_BUFFER", 1024),
			DepthLevels:     getEnvInt("VALHALLA_DEPTH_LEVELS", 10),
			DepthInterval:   getEnvDuration("VALHALLA_DEPTH_INTERVAL", time.Second),
			BroadcastPeriod: getEnvDuration("VALHALLA_BROADCAST_PERIOD", 250*time.Millisecond),
		},
		Kafka: KafkaConfig{
			Brokers:    getEnvList("VALHALLA_KAFKA_BROKERS", nil),
			TradeTopic: getEnvString("VALHALLA_KAFKA_TRADE_TOPIC", "valhalla.trades"),
			DepthTopic: getEnvString("VALHALLA_KAFKA_DEPTH_TOPIC", "valhalla.depth"),
		},
		Logging: LoggingConfig{
			Level: getEnvString("VALHALLA_LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("config: empty HTTP addr")
	}
	if c.Engine.WALDir == "" || c.Engine.OutboxDir == "" {
		return fmt.Errorf("config: WAL and outbox directories are required")
	}
	if c.Engine.WALSegmentSize <= 0 {
		return fmt.Errorf("config: invalid WAL segment size %d", c.Engine.WALSegmentSize)
	}
	if c.Engine.DepthLevels <= 0 {
		return fmt.Errorf("config: invalid depth levels %d", c.Engine.DepthLevels)
	}
	return nil
}

func getEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
