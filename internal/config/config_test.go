package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STOREFRONT_TOKEN_STORE", "")
	t.Setenv("STOREFRONT_API_URL", "http://api.local/api/")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storefront.TokenStore != "file" {
		t.Errorf("TokenStore = %q, want file", cfg.Storefront.TokenStore)
	}
	if cfg.Storefront.APIBaseURL != "http://api.local/api" {
		t.Errorf("APIBaseURL = %q, trailing slash should be trimmed", cfg.Storefront.APIBaseURL)
	}
	if cfg.Kafka.Enabled() {
		t.Error("Kafka should be disabled without brokers")
	}
	if cfg.Storefront.SyncTimeout() != 10*time.Second {
		t.Errorf("SyncTimeout = %v, want 10s", cfg.Storefront.SyncTimeout())
	}
}

func TestLoad_InvalidTokenStore(t *testing.T) {
	t.Setenv("STOREFRONT_TOKEN_STORE", "cookie")
	if _, err := Load(); err == nil {
		t.Fatal("Load should reject unknown token store kinds")
	}
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")
	if _, err := Load(); err == nil {
		t.Fatal("Load should reject non-numeric REDIS_DB")
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" a:9092, ,b:9092 ")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("splitCSV = %v", got)
	}
}
