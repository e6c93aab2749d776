package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file is absent or a field is unset
const (
	DefaultTimeoutSeconds = 20
	DefaultWorkers        = 5
	DefaultGitHubWorkers  = 2
)

// Config represents the application configuration
type Config struct {
	HTTP   HTTPConfig   `yaml:"http"`
	Fetch  FetchConfig  `yaml:"fetch"`
	GitHub GitHubConfig `yaml:"github"`
	// SourcesFile is an optional TOML file adding or overriding fetch sources
	SourcesFile string `yaml:"sources_file,omitempty"`
}

// HTTPConfig holds HTTP client settings
type HTTPConfig struct {
	// TimeoutSeconds bounds each fetch attempt
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// UserAgent overrides the default browser-like User-Agent
	UserAgent string `yaml:"user_agent,omitempty"`
}

// FetchConfig holds orchestration settings
type FetchConfig struct {
	// Workers is the global bound on concurrent fetch attempts
	Workers int `yaml:"workers"`
	// GitHubWorkers additionally bounds GitHub API fetchers (rate-limit hygiene)
	GitHubWorkers int `yaml:"github_workers"`
}

// GitHubConfig holds GitHub API settings
type GitHubConfig struct {
	Token string `yaml:"token"` // Personal access token for higher rate limits
}

// ConfigPaths returns all possible config file paths in priority order
// 1. $XDG_CONFIG_HOME/relwatch/config.yaml (XDG standard - priority)
// 2. ~/.relwatch/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "relwatch", "config.yaml"),
		filepath.Join(home, ".relwatch", "config.yaml"),
	}, nil
}

// FindConfigPath returns the first existing config file path.
// Returns the default (XDG) path if no config file exists yet.
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return paths[0], nil
}

// Load reads configuration from the first available config file.
// A missing file is not an error; defaults are returned.
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path
func LoadFrom(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		HTTP:  HTTPConfig{TimeoutSeconds: DefaultTimeoutSeconds},
		Fetch: FetchConfig{Workers: DefaultWorkers, GitHubWorkers: DefaultGitHubWorkers},
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Fetch.Workers <= 0 {
		c.Fetch.Workers = DefaultWorkers
	}
	if c.Fetch.GitHubWorkers <= 0 {
		c.Fetch.GitHubWorkers = DefaultGitHubWorkers
	}
}

// ResolveToken returns the GitHub token, preferring the GITHUB_TOKEN
// environment variable over the config file value.
// An empty result means unauthenticated rate limits apply.
func (c *Config) ResolveToken() string {
	if tok := os.Getenv("GITHUB_TOKEN"); tok != "" {
		return tok
	}
	return c.GitHub.Token
}
