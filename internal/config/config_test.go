package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		Discovery: DiscoveryConfig{
			URL:           "https://api.us-south.discovery.watson.cloud.ibm.com",
			EnvironmentID: "env-1",
			Collections:   map[string]string{"biden": "col-b", "trump": "col-t"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 3000 {
		t.Errorf("expected default port 3000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.PublicBaseURL != "http://localhost:3000" {
		t.Errorf("unexpected public base url %q", cfg.HTTP.PublicBaseURL)
	}
	if cfg.HTTP.AllowedOrigin != "*" {
		t.Errorf("unexpected allowed origin %q", cfg.HTTP.AllowedOrigin)
	}
	if cfg.Feedback.MaxQueries != 10_000 {
		t.Errorf("expected max_queries 10000, got %d", cfg.Feedback.MaxQueries)
	}
	if cfg.Feedback.InsertAttempts != 3 {
		t.Errorf("expected insert_attempts 3, got %d", cfg.Feedback.InsertAttempts)
	}
	if cfg.Coordination.Driver != "local" {
		t.Errorf("expected local driver, got %q", cfg.Coordination.Driver)
	}
	if cfg.Discovery.RequestTimeout() != 15*time.Second {
		t.Errorf("unexpected request timeout %v", cfg.Discovery.RequestTimeout())
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080, PublicBaseURL: "https://search.example.org"},
		Feedback: FeedbackConfig{MaxQueries: 50},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.PublicBaseURL != "https://search.example.org" {
		t.Errorf("public base url overridden: %q", cfg.HTTP.PublicBaseURL)
	}
	if cfg.Feedback.MaxQueries != 50 {
		t.Errorf("max_queries overridden: %d", cfg.Feedback.MaxQueries)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"no url", func(c *Config) { c.Discovery.URL = "" }, "discovery.url"},
		{"no environment", func(c *Config) { c.Discovery.EnvironmentID = "" }, "discovery.environment_id"},
		{"no collections", func(c *Config) { c.Discovery.Collections = nil }, "discovery.collections"},
		{"empty collection id", func(c *Config) { c.Discovery.Collections["obama"] = "" }, `subject "obama"`},
		{"negative rate", func(c *Config) { c.Discovery.RateLimitRPS = -1 }, "rate_limit_rps"},
		{"unknown driver", func(c *Config) { c.Coordination.Driver = "etcd" }, "coordination.driver"},
		{"redis without addrs", func(c *Config) { c.Coordination.Driver = "redis" }, "coordination.addrs"},
		{"redis with addrs", func(c *Config) {
			c.Coordination.Driver = "redis"
			c.Coordination.Addrs = []string{"localhost:6379"}
		}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("POLAUDIT_TEST_API_KEY", "s3cret")

	data := []byte(`
http:
  port: 3001
discovery:
  url: ${POLAUDIT_TEST_URL:-https://discovery.local}
  api_key: ${POLAUDIT_TEST_API_KEY}
  environment_id: env-1
  collections:
    biden: col-b
feedback:
  max_queries: 100
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Discovery.URL != "https://discovery.local" {
		t.Errorf("default not applied: %q", cfg.Discovery.URL)
	}
	if cfg.Discovery.APIKey != "s3cret" {
		t.Errorf("env var not expanded: %q", cfg.Discovery.APIKey)
	}
	if cfg.HTTP.PublicBaseURL != "http://localhost:3001" {
		t.Errorf("unexpected public base url %q", cfg.HTTP.PublicBaseURL)
	}
	if cfg.Feedback.MaxQueries != 100 {
		t.Errorf("unexpected max_queries %d", cfg.Feedback.MaxQueries)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Parse([]byte("http:\n  port: 3000\n")); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "test.yaml")
	content := "discovery:\n  url: http://x\n  environment_id: e\n  collections:\n    biden: c\n"
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Discovery.Collections["biden"] != "c" {
		t.Errorf("unexpected collections %v", cfg.Discovery.Collections)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing file must not fail: %v", err)
	}

	p := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(p, []byte("POLAUDIT_DOTENV_TEST=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POLAUDIT_DOTENV_TEST", "")
	_ = os.Unsetenv("POLAUDIT_DOTENV_TEST")

	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("POLAUDIT_DOTENV_TEST"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("expected local, got %q", GetEnv())
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("expected prod, got %q", GetEnv())
	}
}
