package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("http addr = %q; want :8080", cfg.Server.HTTPAddr)
	}
	if cfg.Engine.WALSegmentSize != 2*1024*1024 {
		t.Errorf("segment size = %d", cfg.Engine.WALSegmentSize)
	}
	if cfg.Engine.DepthLevels != 10 {
		t.Errorf("depth levels = %d; want 10", cfg.Engine.DepthLevels)
	}
	if cfg.Kafka.Enabled() {
		t.Error("kafka should be disabled without brokers")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q; want info", cfg.Logging.Level)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("VALHALLA_HTTP_ADDR", ":9999")
	t.Setenv("VALHALLA_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("VALHALLA_DEPTH_INTERVAL", "5s")
	t.Setenv("VALHALLA_DEPTH_LEVELS", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.HTTPAddr != ":9999" {
		t.Errorf("http addr = %q", cfg.Server.HTTPAddr)
	}
	if !cfg.Kafka.Enabled() || len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Engine.DepthInterval != 5*time.Second {
		t.Errorf("depth interval = %v", cfg.Engine.DepthInterval)
	}
	if cfg.Engine.DepthLevels != 25 {
		t.Errorf("depth levels = %d", cfg.Engine.DepthLevels)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("VALHALLA_DEPTH_LEVELS", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("negative depth levels should fail validation")
	}
}
