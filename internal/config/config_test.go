package config

import (
	"strings"
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:  AppConfig{Env: "local", Port: 8080},
		DB:   DBConfig{Driver: DriverPostgres, Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "phonebank"},
		Auth: AuthConfig{JWTSecret: "secret"},
		Vapi: VapiConfig{APIKey: "vapi-key"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"APP_ENV is required", "JWT_SECRET is required", "VAPI_API_KEY is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestValidate_ProductionRequiresSSLModeAndMCPKey(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "iss"
	c.Auth.JWTAudience = "aud"
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE and MCP_API_KEY")
	}
	if !strings.Contains(err.Error(), "DB_SSLMODE") || !strings.Contains(err.Error(), "MCP_API_KEY") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Vapi.BaseURL != "https://api.vapi.ai" {
		t.Fatalf("unexpected vapi base url %q", c.Vapi.BaseURL)
	}
	if c.Vapi.Timeout != 10*time.Second || c.Vapi.MaxAttempts != 2 {
		t.Fatalf("unexpected vapi defaults: %+v", c.Vapi)
	}
	if c.MCP.Transport != TransportSSE || c.Recording.FetchMode != FetchModeStrict {
		t.Fatalf("unexpected defaults: transport=%q mode=%q", c.MCP.Transport, c.Recording.FetchMode)
	}
	if c.RedisEnabled() {
		t.Fatalf("redis should be disabled without REDIS_HOST")
	}
}

func TestValidate_SQLiteSkipsPostgresFields(t *testing.T) {
	c := validLocal()
	c.DB = DBConfig{Driver: DriverSQLite, SQLitePath: "/tmp/phonebank.db"}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	c.DB.SQLitePath = ""
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "SQLITE_PATH") {
		t.Fatalf("expected SQLITE_PATH error, got %v", err)
	}
}

func TestValidate_RejectsUnknownModes(t *testing.T) {
	c := validLocal()
	c.MCP.Transport = "websocket"
	c.Recording.FetchMode = "eager"
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "MCP_TRANSPORT") || !strings.Contains(err.Error(), "RECORDING_FETCH_MODE") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/pb.db")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("VAPI_API_KEY", "k")
	t.Setenv("VAPI_RPS", "2.5")
	t.Setenv("RECORDING_FETCH_MODE", "lenient")
	t.Setenv("REDIS_HOST", "cache")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.Port != 8080 {
		t.Fatalf("expected default port, got %d", c.App.Port)
	}
	if c.Vapi.RequestsPerSecond != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", c.Vapi.RequestsPerSecond)
	}
	if c.Recording.FetchMode != FetchModeLenient {
		t.Fatalf("expected lenient, got %q", c.Recording.FetchMode)
	}
	if c.RedisAddr() != "cache:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
}

func TestLoad_ReportsParseErrors(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("VAPI_RPS", "fast")
	_, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "APP_PORT") || !strings.Contains(err.Error(), "VAPI_RPS") {
		t.Fatalf("unexpected error: %v", err)
	}
}
