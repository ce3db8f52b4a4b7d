package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8082" {
		t.Errorf("Port = %q, want 8082", cfg.Port)
	}
	if cfg.DefaultCurrency != "EUR" {
		t.Errorf("DefaultCurrency = %q, want EUR", cfg.DefaultCurrency)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("DataBackend = %q, want memory", cfg.DataBackend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEFAULT_CURRENCY", "USD")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", t.TempDir()+"/ledger.db")
	t.Setenv("REPORT_CACHE_TTL", "2m")

	cfg := Load()
	if cfg.Port != "9000" || cfg.DefaultCurrency != "USD" || cfg.DataBackend != "sqlite" {
		t.Errorf("env override not applied: %+v", cfg)
	}
	if cfg.ReportCacheTTL != 2*time.Minute {
		t.Errorf("ReportCacheTTL = %s, want 2m", cfg.ReportCacheTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"bad currency", func(c *Config) { c.DefaultCurrency = "EURO" }, "default currency"},
		{"bad backend", func(c *Config) { c.DataBackend = "postgres" }, "data backend"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "AMQP URL scheme"},
		{"empty queue", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPQueue = "" }, "queue name"},
		{"bad cache size", func(c *Config) { c.ReportCacheSize = 0 }, "cache size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
