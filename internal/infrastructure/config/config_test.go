package config

import (
	"testing"
	"time"
)

func TestLoad_ConnectionTimeouts(t *testing.T) {
	t.Setenv("MONGO_CONNECT_TIMEOUT", "3s")
	t.Setenv("REDIS_DIAL_TIMEOUT", "750ms")

	cfg := Load()

	if cfg.Mongo.ConnectTimeout != 3*time.Second {
		t.Fatalf("unexpected mongo connect timeout: %v", cfg.Mongo.ConnectTimeout)
	}
	if cfg.Redis.DialTimeout != 750*time.Millisecond {
		t.Fatalf("unexpected redis dial timeout: %v", cfg.Redis.DialTimeout)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Mongo.ConnectTimeout != 10*time.Second || cfg.Redis.DialTimeout != 5*time.Second {
		t.Fatalf("unexpected timeout defaults: %v / %v", cfg.Mongo.ConnectTimeout, cfg.Redis.DialTimeout)
	}
	if cfg.Mongo.Database != "portal_identity" {
		t.Fatalf("unexpected database default: %q", cfg.Mongo.Database)
	}
	if cfg.Upstream.BaseURL != "http://localhost:4000/api" {
		t.Fatalf("unexpected upstream default: %q", cfg.Upstream.BaseURL)
	}
}
