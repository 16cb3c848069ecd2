package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.BatchSize != 2048 {
		t.Errorf("BatchSize = %d", cfg.BatchSize)
	}
	if cfg.MetH3Res != 8 {
		t.Errorf("MetH3Res = %d", cfg.MetH3Res)
	}
	if cfg.ResourceCacheTTL != 6*time.Hour {
		t.Errorf("ResourceCacheTTL = %v", cfg.ResourceCacheTTL)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want in-process default", cfg.RedisAddr)
	}
	if cfg.Invalidation.Enabled {
		t.Error("invalidation enabled by default")
	}
	if len(cfg.Invalidation.Brokers) != 1 || cfg.Invalidation.Brokers[0] != "localhost:9092" {
		t.Errorf("Brokers = %v", cfg.Invalidation.Brokers)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("BATCH_SIZE", "512")
	t.Setenv("MET_CACHE_TTL", "5m")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("INVALIDATION_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092,")

	cfg := FromEnv()
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.BatchSize != 512 {
		t.Errorf("BatchSize = %d", cfg.BatchSize)
	}
	if cfg.MetCacheTTL != 5*time.Minute {
		t.Errorf("MetCacheTTL = %v", cfg.MetCacheTTL)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if !cfg.Invalidation.Enabled {
		t.Error("INVALIDATION_ENABLED=true ignored")
	}
	want := []string{"b1:9092", "b2:9092"}
	if len(cfg.Invalidation.Brokers) != len(want) {
		t.Fatalf("Brokers = %v", cfg.Invalidation.Brokers)
	}
	for i := range want {
		if cfg.Invalidation.Brokers[i] != want[i] {
			t.Errorf("Brokers[%d] = %q, want %q", i, cfg.Invalidation.Brokers[i], want[i])
		}
	}
}

func TestFromEnvClampsH3Resolution(t *testing.T) {
	t.Setenv("MET_H3_RES", "99")
	if got := FromEnv().MetH3Res; got != 15 {
		t.Errorf("MetH3Res = %d, want clamp to 15", got)
	}
	t.Setenv("MET_H3_RES", "-3")
	if got := FromEnv().MetH3Res; got != 0 {
		t.Errorf("MetH3Res = %d, want clamp to 0", got)
	}
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("BATCH_SIZE", "many")
	t.Setenv("FETCH_TIMEOUT", "soon")
	t.Setenv("INVALIDATION_ENABLED", "maybe")

	cfg := FromEnv()
	if cfg.BatchSize != 2048 {
		t.Errorf("BatchSize = %d, want default on parse failure", cfg.BatchSize)
	}
	if cfg.FetchTimeout != 120*time.Second {
		t.Errorf("FetchTimeout = %v, want default on parse failure", cfg.FetchTimeout)
	}
	if cfg.Invalidation.Enabled {
		t.Error("malformed bool treated as true")
	}
}
