package config

import "testing"

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", User: "app", Password: "secret", DBName: "stockan"}
	want := "postgres://app:secret@db:5432/stockan?sslmode=disable"
	if got := p.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}

	p.URL = "postgres://explicit"
	if got := p.DSN(); got != "postgres://explicit" {
		t.Fatalf("DSN() = %q, want explicit url", got)
	}
}

func TestPostgresValidate(t *testing.T) {
	if err := (PostgresConfig{}).Validate(); err == nil {
		t.Fatal("expected error for empty config")
	}
	if err := (PostgresConfig{Host: "db"}).Validate(); err == nil {
		t.Fatal("expected error for missing dbname")
	}
	if err := (PostgresConfig{Host: "db", DBName: "stockan"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (PostgresConfig{URL: "postgres://x"}).Validate(); err != nil {
		t.Fatalf("unexpected error with url: %v", err)
	}
}

func TestRedisAddr(t *testing.T) {
	if got := (RedisConfig{}).Addr(); got != "" {
		t.Fatalf("Addr() = %q, want empty when unconfigured", got)
	}
	if got := (RedisConfig{Host: "cache"}).Addr(); got != "cache:6379" {
		t.Fatalf("Addr() = %q", got)
	}
	if got := (RedisConfig{Host: "cache", Port: "6400"}).Addr(); got != "cache:6400" {
		t.Fatalf("Addr() = %q", got)
	}
}

func TestTelemetryValidate(t *testing.T) {
	if err := (TelemetryConfig{Enabled: true}).Validate(); err == nil {
		t.Fatal("expected error for enabled telemetry without port")
	}
	if err := (TelemetryConfig{Enabled: true, MetricsPort: 9090}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (TelemetryConfig{}).Validate(); err != nil {
		t.Fatalf("unexpected error when disabled: %v", err)
	}
}
