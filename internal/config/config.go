// Package config loads server configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Database DBConfig      `yaml:"database"`
	Redis    RedisConfig   `yaml:"redis"`
	Ollama   OllamaConfig  `yaml:"ollama"`
	Site     SiteConfig    `yaml:"site"`
	Sources  SourcesConfig `yaml:"sources"`
	Tracing  TracingConfig `yaml:"tracing"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DBConfig controls sqlite storage.
type DBConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig controls the task queue backend.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// OllamaConfig controls the optional AI enrichment stage.
type OllamaConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Model   string `yaml:"model"`
}

// SiteConfig identifies the site being audited.
type SiteConfig struct {
	// Host is the bare domain, used for internal-link detection and
	// backlink lookups.
	Host string `yaml:"host"`
}

// SourcesConfig holds credentials for the external data sources. Any
// source left blank is disabled.
type SourcesConfig struct {
	GA4        GA4Config        `yaml:"ga4"`
	GSC        GSCConfig        `yaml:"gsc"`
	DataForSEO DataForSEOConfig `yaml:"dataforseo"`
	Ahrefs     AhrefsConfig     `yaml:"ahrefs"`
}

type GA4Config struct {
	PropertyID string `yaml:"property_id"`
	Token      string `yaml:"token"`
}

type GSCConfig struct {
	SiteURL string `yaml:"site_url"`
	Token   string `yaml:"token"`
}

type DataForSEOConfig struct {
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
}

type AhrefsConfig struct {
	Token string `yaml:"token"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Load reads configuration from path (optional, pass "" to skip), then
// applies environment overrides, then fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfEnv(&c.Server.Port, "PORT")
	setIfEnv(&c.Database.Path, "DATABASE_PATH")
	setIfEnv(&c.Redis.Addr, "REDIS_ADDR")
	setIfEnv(&c.Ollama.URL, "OLLAMA_URL")
	setIfEnv(&c.Ollama.Model, "OLLAMA_MODEL")
	setBoolIfEnv(&c.Ollama.Enabled, "OLLAMA_ENABLED")
	setIfEnv(&c.Site.Host, "SITE_HOST")
	setIfEnv(&c.Sources.GA4.PropertyID, "GA4_PROPERTY_ID")
	setIfEnv(&c.Sources.GA4.Token, "GA4_TOKEN")
	setIfEnv(&c.Sources.GSC.SiteURL, "GSC_SITE_URL")
	setIfEnv(&c.Sources.GSC.Token, "GSC_TOKEN")
	setIfEnv(&c.Sources.DataForSEO.Login, "DATAFORSEO_LOGIN")
	setIfEnv(&c.Sources.DataForSEO.Password, "DATAFORSEO_PASSWORD")
	setIfEnv(&c.Sources.Ahrefs.Token, "AHREFS_TOKEN")
	setBoolIfEnv(&c.Tracing.Enabled, "TRACING_ENABLED")
	setIfEnv(&c.Tracing.Endpoint, "OTLP_ENDPOINT")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./seolens.db"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = "http://localhost:11434"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "llama3.2"
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4317"
	}
}

// HasGA4 reports whether GA4 credentials are configured.
func (c *Config) HasGA4() bool {
	return c.Sources.GA4.PropertyID != "" && c.Sources.GA4.Token != ""
}

// HasGSC reports whether Search Console credentials are configured.
func (c *Config) HasGSC() bool {
	return c.Sources.GSC.SiteURL != "" && c.Sources.GSC.Token != ""
}

// HasDataForSEO reports whether DataForSEO credentials are configured.
func (c *Config) HasDataForSEO() bool {
	return c.Sources.DataForSEO.Login != "" && c.Sources.DataForSEO.Password != ""
}

// HasAhrefs reports whether an Ahrefs token is configured.
func (c *Config) HasAhrefs() bool {
	return c.Sources.Ahrefs.Token != ""
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBoolIfEnv(dst *bool, key string) {
	switch os.Getenv(key) {
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	}
}
