package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/liuzl/genproxy"
	"github.com/liuzl/genproxy/gemini"
	"gopkg.in/yaml.v3"
)

const (
	defaultAPIKeyEnv    = "GEMINI_API_KEY"
	baseURLEnv          = "GEMINI_BASE_URL"
	defaultMaxBodyBytes = 32 << 20
)

// ProxyConfig represents the YAML configuration structure
type ProxyConfig struct {
	Version      string          `yaml:"version"`
	Upstream     UpstreamConfig  `yaml:"upstream"`
	DefaultModel string          `yaml:"default_model,omitempty"`
	Models       []ModelConfig   `yaml:"models"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
	MaxBodyBytes int64           `yaml:"max_body_bytes,omitempty"`
	CORS         CORSConfig      `yaml:"cors"`
	APIKeyEnv    string          `yaml:"api_key_env,omitempty"`
}

// UpstreamConfig describes where generation requests are sent.
type UpstreamConfig struct {
	BaseURL    string `yaml:"base_url,omitempty"`
	APIVersion string `yaml:"api_version,omitempty"`
	Timeout    string `yaml:"timeout,omitempty"`
}

// ModelConfig represents a single model configuration
type ModelConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// RateLimitConfig is a token bucket shared by all clients. Zero disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// DefaultConfig is used when no configuration file is given.
func DefaultConfig() *ProxyConfig {
	cfg := &ProxyConfig{
		Version: "1.0",
		Models: []ModelConfig{
			{Name: genproxy.DefaultModel, Description: "Fast text model"},
			{Name: "nano-banana-pro-preview", Description: "Image generation and editing"},
			{Name: "veo-3.1-generate-preview", Description: "Video generation"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads and parses the YAML configuration file
func LoadConfig(path string) (*ProxyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ProxyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *ProxyConfig) applyDefaults() {
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = gemini.DefaultBaseURL
	}
	if c.Upstream.APIVersion == "" {
		c.Upstream.APIVersion = gemini.DefaultAPIVersion
	}
	if c.Upstream.Timeout == "" {
		c.Upstream.Timeout = gemini.DefaultTimeout.String()
	}
	if c.DefaultModel == "" {
		c.DefaultModel = genproxy.DefaultModel
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = defaultAPIKeyEnv
	}
}

func (c *ProxyConfig) applyEnv() {
	if baseURL := strings.TrimSpace(os.Getenv(baseURLEnv)); baseURL != "" {
		c.Upstream.BaseURL = baseURL
	}
}

// ValidateConfig validates the configuration
func ValidateConfig(cfg *ProxyConfig) error {
	// Check version
	if cfg.Version == "" {
		return fmt.Errorf("version is required")
	}
	if cfg.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (supported: 1.0)", cfg.Version)
	}

	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute http(s) URL: %q", cfg.Upstream.BaseURL)
	}
	if timeout, err := time.ParseDuration(cfg.Upstream.Timeout); err != nil || timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be a positive duration: %q", cfg.Upstream.Timeout)
	}

	if len(cfg.Models) == 0 {
		return fmt.Errorf("at least one model must be configured")
	}

	seen := make(map[string]bool)
	for i, model := range cfg.Models {
		if strings.TrimSpace(model.Name) == "" {
			return fmt.Errorf("models[%d]: name cannot be empty", i)
		}
		if seen[model.Name] {
			return fmt.Errorf("models[%d]: duplicate model name: %s", i, model.Name)
		}
		seen[model.Name] = true
	}

	if cfg.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second cannot be negative")
	}
	if cfg.RateLimit.RequestsPerSecond > 0 && cfg.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1 when rate limiting is enabled")
	}
	if cfg.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes cannot be negative")
	}

	return nil
}

// UpstreamTimeout returns the parsed upstream timeout.
func (c *ProxyConfig) UpstreamTimeout() time.Duration {
	timeout, err := time.ParseDuration(c.Upstream.Timeout)
	if err != nil || timeout <= 0 {
		return gemini.DefaultTimeout
	}
	return timeout
}

// APIKey returns the server's fallback credential, if any.
func (c *ProxyConfig) APIKey() string {
	return strings.TrimSpace(os.Getenv(c.APIKeyEnv))
}

// Options translates the configuration into Dispatcher and Poller options.
func (c *ProxyConfig) Options() []genproxy.Option {
	return []genproxy.Option{
		genproxy.WithFallbackAPIKey(c.APIKey()),
		genproxy.WithDefaultModel(c.DefaultModel),
		genproxy.WithBaseURL(c.Upstream.BaseURL),
		genproxy.WithAPIVersion(c.Upstream.APIVersion),
		genproxy.WithTimeout(c.UpstreamTimeout()),
	}
}

// GetModelNames returns a list of all configured model names
func (c *ProxyConfig) GetModelNames() []string {
	names := make([]string, len(c.Models))
	for i, m := range c.Models {
		names[i] = m.Name
	}
	return names
}
