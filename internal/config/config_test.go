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
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Token.TTL != 24*time.Hour {
		t.Errorf("token ttl = %v", cfg.Token.TTL)
	}
	if cfg.Token.NetworkTag != "openseat-demo-blockchain" || cfg.Token.Version != "1.0" {
		t.Errorf("token tags = %q %q", cfg.Token.NetworkTag, cfg.Token.Version)
	}
	if cfg.Interswitch.Timeout != 30*time.Second {
		t.Errorf("isw timeout = %v", cfg.Interswitch.Timeout)
	}
	if cfg.Search.Limit != 20 {
		t.Errorf("search limit = %d", cfg.Search.Limit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENSEAT_HTTP_ADDR", ":9090")
	t.Setenv("OPENSEAT_STORE_DRIVER", "memory")
	t.Setenv("OPENSEAT_SEARCH_LIMIT", "5")
	t.Setenv("OPENSEAT_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("OPENSEAT_SETTLEMENT_DELAY", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" || cfg.Store.Driver != "memory" || cfg.Search.Limit != 5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors origins = %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Token.SettlementDelay != maxSettlementDelay {
		t.Errorf("settlement delay should be capped, got %v", cfg.Token.SettlementDelay)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("OPENSEAT_SEARCH_LIMIT", "lots")
	t.Setenv("OPENSEAT_TOKEN_TTL", "a day")
	cfg, _ := Load()
	if cfg.Search.Limit != 20 || cfg.Token.TTL != 24*time.Hour {
		t.Errorf("malformed values should fall back to defaults: %d %v", cfg.Search.Limit, cfg.Token.TTL)
	}
}
