package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/neomorfeo/frontdesk/internal/config"
)

var envKeys = []string{
	"PORT", "DATABASE_PATH", "LOCK_BACKEND", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"LOCK_TTL", "LOCK_WAIT", "AMQP_URL", "AMQP_EXCHANGE", "RATE_LIMIT_PER_SEC",
	"RATE_LIMIT_BURST", "ROOM_TYPE_CACHE_TTL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frontdesk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != config.Default() {
		t.Errorf("Load(\"\") = %+v, want defaults %+v", cfg, config.Default())
	}
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  port: "9090"
  rate_limit_per_sec: 5
lock:
  backend: redis
  redis_addr: localhost:6379
  ttl: 45s
  wait: 500ms
cache:
  room_type_ttl: 1m
`)
	t.Setenv("PORT", "7070")
	t.Setenv("LOCK_WAIT", "3s")
	t.Setenv("RATE_LIMIT_BURST", "7")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("Port = %q, want env override 7070", cfg.Server.Port)
	}
	if cfg.Server.RateLimitPerSec != 5 || cfg.Server.RateLimitBurst != 7 {
		t.Errorf("rate limit = %v/%d, want 5/7", cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst)
	}
	if cfg.Lock.Backend != "redis" || cfg.Lock.RedisAddr != "localhost:6379" {
		t.Errorf("lock = %+v", cfg.Lock)
	}
	if cfg.Lock.TTL != 45*time.Second || cfg.Lock.Wait != 3*time.Second {
		t.Errorf("lock timing = %v/%v, want 45s/3s", cfg.Lock.TTL, cfg.Lock.Wait)
	}
	if cfg.Cache.RoomTypeTTL != time.Minute {
		t.Errorf("RoomTypeTTL = %v, want 1m", cfg.Cache.RoomTypeTTL)
	}
	if cfg.Database.Path != "frontdesk.db" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "unknown backend", env: map[string]string{"LOCK_BACKEND": "etcd"}},
		{name: "redis without address", env: map[string]string{"LOCK_BACKEND": "redis"}},
		{name: "bad duration", env: map[string]string{"LOCK_TTL": "soon"}},
		{name: "zero ttl", env: map[string]string{"LOCK_TTL": "0s"}},
		{name: "bad log format", env: map[string]string{"LOG_FORMAT": "xml"}},
		{name: "bad burst", env: map[string]string{"RATE_LIMIT_BURST": "many"}},
		{name: "malformed yaml", file: "server: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}
			if _, err := config.Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}
