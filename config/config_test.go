package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadEnv_Defaults(t *testing.T) {
	cfg := LoadEnv()

	if cfg.Catalog.Backend != BackendMemory {
		t.Fatalf("backend=%q", cfg.Catalog.Backend)
	}
	if !cfg.Catalog.ResetOnStart {
		t.Fatalf("reset on start should default to true")
	}
	if cfg.Catalog.SnapshotKey != "products_data" {
		t.Fatalf("snapshot key=%q", cfg.Catalog.SnapshotKey)
	}
	if cfg.AdminEnabled() {
		t.Fatalf("admin enabled without credentials")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", "BOLT")
	t.Setenv("CATALOG_RESET_ON_START", "false")
	t.Setenv("CATALOG_BOLT_PATH", "/tmp/c.db")
	t.Setenv("AUTH_TOKEN_TTL", "1h")
	t.Setenv("LOGIN_LIMIT_PER_MIN", "not-a-number")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD", "pw")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))

	cfg := LoadEnv()

	if cfg.Catalog.Backend != BackendBolt || cfg.Catalog.ResetOnStart {
		t.Fatalf("catalog=%+v", cfg.Catalog)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("ttl=%s", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.LoginLimit != 5 {
		t.Fatalf("login limit=%d, want fallback", cfg.Auth.LoginLimit)
	}
	if !cfg.AdminEnabled() {
		t.Fatalf("admin not enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Catalog.Backend = "redis" }},
		{name: "bolt without path", mutate: func(c *Config) { c.Catalog.Backend = BackendBolt; c.Catalog.BoltPath = "" }},
		{name: "node out of range", mutate: func(c *Config) { c.Catalog.NodeID = 2048 }},
		{name: "short secret", mutate: func(c *Config) {
			c.Auth.AdminEmail = "a@example.com"
			c.Auth.AdminPassword = "pw"
			c.Auth.JWTSecret = "short"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadEnv()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: "5432", User: "u", Password: "p@ss", DBName: "shop", SSLMode: "disable"}

	if got, want := p.DSN(), "postgres://u:p%40ss@db:5432/shop?sslmode=disable"; got != want {
		t.Fatalf("dsn=%q want=%q", got, want)
	}
}
