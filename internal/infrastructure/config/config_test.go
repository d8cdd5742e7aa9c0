package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg = applyDefaults(cfg)

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.HTTP.Addr)
	}
	if cfg.Redis.CacheTTL != 10*time.Minute {
		t.Errorf("expected 10m cache ttl, got %v", cfg.Redis.CacheTTL)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
	if cfg.Insights.Anomaly.SpikeThreshold != 40 {
		t.Errorf("expected default spike threshold, got %v", cfg.Insights.Anomaly.SpikeThreshold)
	}
	if cfg.RateLimit.RPS != 0 || cfg.RateLimit.Burst != 0 {
		t.Errorf("rate limit should stay disabled, got %+v", cfg.RateLimit)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Config{}
	cfg = applyEnv(cfg)

	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.HTTP.Addr)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.CacheTTL != 2*time.Minute {
		t.Errorf("unexpected redis config %+v", cfg.Redis)
	}
	if cfg.RateLimit.RPS != 5 || cfg.RateLimit.Burst != 10 {
		t.Errorf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug, got %s", cfg.Log.Level)
	}
}

func TestConfig_PortOverridesAddr(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("PORT", "7000")

	cfg := applyEnv(Config{})
	if cfg.HTTP.Addr != ":7000" {
		t.Errorf("expected :7000, got %s", cfg.HTTP.Addr)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
http:
  addr: ":8181"
insights:
  anomaly:
    spike_threshold: 55
  briefing:
    max_recommendations: 2
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8181" {
		t.Errorf("expected :8181, got %s", cfg.HTTP.Addr)
	}
	ic := cfg.InsightsConfig()
	if ic.Anomaly.SpikeThreshold != 55 {
		t.Errorf("expected spike 55, got %v", ic.Anomaly.SpikeThreshold)
	}
	if ic.Anomaly.DropThreshold != 40 {
		t.Errorf("expected default drop 40, got %v", ic.Anomaly.DropThreshold)
	}
	if ic.Briefing.MaxRecommendations != 2 {
		t.Errorf("expected 2 recommendations, got %d", ic.Briefing.MaxRecommendations)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.Breaker.MaxFailures != 5 {
		t.Errorf("expected breaker default, got %d", cfg.Breaker.MaxFailures)
	}
}

func TestLoadFromFile_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}
