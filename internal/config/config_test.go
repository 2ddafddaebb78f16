package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %s, want 8080", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("default redis addr = %s", cfg.Redis.Addr)
	}
	if cfg.Ollama.Model != "llama3.2" {
		t.Errorf("default model = %s", cfg.Ollama.Model)
	}
	if cfg.HasGA4() || cfg.HasGSC() || cfg.HasDataForSEO() || cfg.HasAhrefs() {
		t.Error("no sources should be configured by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9000"
site:
  host: example.com
sources:
  ga4:
    property_id: "12345"
    token: ga4-token
  ahrefs:
    token: ahrefs-token
ollama:
  enabled: true
  model: mistral
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("port = %s, want 9000", cfg.Server.Port)
	}
	if cfg.Site.Host != "example.com" {
		t.Errorf("site host = %s", cfg.Site.Host)
	}
	if !cfg.HasGA4() {
		t.Error("GA4 should be configured")
	}
	if !cfg.HasAhrefs() {
		t.Error("Ahrefs should be configured")
	}
	if cfg.HasGSC() || cfg.HasDataForSEO() {
		t.Error("GSC and DataForSEO should not be configured")
	}
	if !cfg.Ollama.Enabled || cfg.Ollama.Model != "mistral" {
		t.Errorf("ollama config not loaded: %+v", cfg.Ollama)
	}
	// Defaults still fill unset fields.
	if cfg.Database.Path != "./seolens.db" {
		t.Errorf("database path default missing: %s", cfg.Database.Path)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9000\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("PORT", "7070")
	t.Setenv("GSC_SITE_URL", "sc-domain:example.com")
	t.Setenv("GSC_TOKEN", "env-token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("env should override file, got port %s", cfg.Server.Port)
	}
	if !cfg.HasGSC() {
		t.Error("GSC should be configured from env")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
