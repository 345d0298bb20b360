// Package config provides configuration loading and defaults for the erfasst-mcp server.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Transport values accepted by ServerConfig.Transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// DefaultEndpoint is the production 123erfasst GraphQL endpoint.
const DefaultEndpoint = "https://server.123erfasst.de/api/graphql"

// ProjectFilter holds allowlist and denylist patterns for project idents.
// Mutating project tools consult it before touching a project.
type ProjectFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// SafetyConfig groups the safety filters.
type SafetyConfig struct {
	Projects ProjectFilter `yaml:"projects"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// ServerConfig holds MCP transport and authentication settings.
// AuthToken is only consulted when Transport is "http".
type ServerConfig struct {
	Transport string `yaml:"transport"`
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// GraphQLConfig holds connection details and the retry policy for the
// 123erfasst GraphQL API.
type GraphQLConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Secret   string `yaml:"secret"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout int `yaml:"timeout"`
	// MaxRetries bounds the attempts made for retryable failures.
	MaxRetries int `yaml:"max_retries"`
	// RetryBaseDelay is the first backoff delay in seconds; it doubles on
	// each subsequent retry.
	RetryBaseDelay int `yaml:"retry_base_delay"`
	// RetryUnexpected controls whether unclassified failures are retried
	// like network failures. The upstream behaviour is to retry them, which
	// can mask deterministic bugs as transient ones; set false to fail fast.
	RetryUnexpected *bool `yaml:"retry_unexpected"`
}

// Config is the top-level configuration structure for the erfasst-mcp server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	GraphQL GraphQLConfig `yaml:"graphql"`
	Audit   AuditConfig   `yaml:"audit"`
	Safety  SafetyConfig  `yaml:"safety"`
}

// LoadConfig reads and parses a YAML configuration file from the given path.
// On error, nil is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Transport: TransportStdio,
			Port:      8080,
		},
		GraphQL: GraphQLConfig{
			URL:            DefaultEndpoint,
			Username:       "api",
			Timeout:        30,
			MaxRetries:     3,
			RetryBaseDelay: 1,
		},
		Audit: AuditConfig{
			Enabled: false,
			LogPath: "audit.log",
		},
	}
}

// LoadDotEnv loads variables from a .env file in the working directory into
// the process environment. A missing file is not an error; the server can be
// configured entirely through environment variables and the file is a
// development convenience.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - ERFASST_API_TOKEN overrides cfg.GraphQL.Secret
//   - ERFASST_API_USERNAME overrides cfg.GraphQL.Username
//   - ERFASST_GRAPHQL_URL overrides cfg.GraphQL.URL
//   - ERFASST_MCP_AUTH_TOKEN overrides cfg.Server.AuthToken
func ApplyEnvOverrides(cfg *Config) {
	if secret := os.Getenv("ERFASST_API_TOKEN"); secret != "" {
		cfg.GraphQL.Secret = secret
	}
	if user := os.Getenv("ERFASST_API_USERNAME"); user != "" {
		cfg.GraphQL.Username = user
	}
	if url := os.Getenv("ERFASST_GRAPHQL_URL"); url != "" {
		cfg.GraphQL.URL = url
	}
	if token := os.Getenv("ERFASST_MCP_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
}

// Validate checks that the configuration is usable. The API secret is
// required; running without it would leave every tool broken, so startup
// fails instead.
func (c *Config) Validate() error {
	if c.GraphQL.Secret == "" {
		return fmt.Errorf("config: GraphQL API secret is required (set ERFASST_API_TOKEN)")
	}
	if c.GraphQL.URL == "" {
		return fmt.Errorf("config: GraphQL URL is required")
	}
	if c.Server.Transport != TransportStdio && c.Server.Transport != TransportHTTP {
		return fmt.Errorf("config: unknown transport %q (must be %q or %q)",
			c.Server.Transport, TransportStdio, TransportHTTP)
	}
	return nil
}

// RetryUnexpectedEnabled reports whether unclassified errors should be
// retried. Unset means true, matching the upstream client.
func (g GraphQLConfig) RetryUnexpectedEnabled() bool {
	if g.RetryUnexpected == nil {
		return true
	}
	return *g.RetryUnexpected
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
