// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
  base_url: "https://backoffice.example.com"

upstream:
  base_url: "https://api.metamarc.example.com"
  timeout: "20s"

database:
  path: "./test.db"

session:
  ttl: "48h"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/metrics"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Upstream.BaseURL != "https://api.metamarc.example.com" {
		t.Errorf("Upstream.BaseURL = %q, want %q", cfg.Upstream.BaseURL, "https://api.metamarc.example.com")
	}
	if cfg.Upstream.Timeout != 20*time.Second {
		t.Errorf("Upstream.Timeout = %v, want %v", cfg.Upstream.Timeout, 20*time.Second)
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Session.TTL != 48*time.Hour {
		t.Errorf("Session.TTL = %v, want %v", cfg.Session.TTL, 48*time.Hour)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8080"
upstream:
  base_url: "http://localhost:3005"
database:
  path: "./test.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Upstream.Timeout != DefaultUpstreamTimeout {
		t.Errorf("Upstream.Timeout = %v, want default %v", cfg.Upstream.Timeout, DefaultUpstreamTimeout)
	}
	if cfg.Session.TTL != DefaultSessionTTL {
		t.Errorf("Session.TTL = %v, want default %v", cfg.Session.TTL, DefaultSessionTTL)
	}
	if cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want default %q", cfg.Metrics.Path, DefaultMetricsPath)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_UPSTREAM_URL", "https://api.test.example.com")

	configPath := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8080"
upstream:
  base_url: "${TEST_UPSTREAM_URL}"
database:
  path: "./test.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Upstream.BaseURL != "https://api.test.example.com" {
		t.Errorf("Upstream.BaseURL = %q, want expanded env var", cfg.Upstream.BaseURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "server: [not: valid")

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8080"
upstream:
  base_url: "http://localhost:3005"
  timeout: "not-a-duration"
database:
  path: "./test.db"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error %q should mention the timeout field", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing http_addr",
			content: `
upstream:
  base_url: "http://localhost:3005"
database:
  path: "./test.db"
`,
			wantErr: "server.http_addr",
		},
		{
			name: "missing upstream base_url",
			content: `
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "./test.db"
`,
			wantErr: "upstream.base_url",
		},
		{
			name: "missing database path",
			content: `
server:
  http_addr: "127.0.0.1:8080"
upstream:
  base_url: "http://localhost:3005"
`,
			wantErr: "database.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.content)
			_, err := Load(configPath)
			if err == nil {
				t.Fatal("Load() expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}
