package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom missing file: %v", err)
	}
	if cfg.HTTP.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("timeout = %d, want %d", cfg.HTTP.TimeoutSeconds, DefaultTimeoutSeconds)
	}
	if cfg.Fetch.Workers != DefaultWorkers {
		t.Errorf("workers = %d, want %d", cfg.Fetch.Workers, DefaultWorkers)
	}
	if cfg.Fetch.GitHubWorkers != DefaultGitHubWorkers {
		t.Errorf("github workers = %d, want %d", cfg.Fetch.GitHubWorkers, DefaultGitHubWorkers)
	}
}

func TestLoadFromParsesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `http:
  timeout_seconds: 45
  user_agent: relwatch-test
fetch:
  workers: 8
github:
  token: file-token
sources_file: /etc/relwatch/sources.toml
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.HTTP.TimeoutSeconds != 45 {
		t.Errorf("timeout = %d, want 45", cfg.HTTP.TimeoutSeconds)
	}
	if cfg.HTTP.UserAgent != "relwatch-test" {
		t.Errorf("user agent = %q", cfg.HTTP.UserAgent)
	}
	if cfg.Fetch.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Fetch.Workers)
	}
	// Unset field falls back to default
	if cfg.Fetch.GitHubWorkers != DefaultGitHubWorkers {
		t.Errorf("github workers = %d, want default %d", cfg.Fetch.GitHubWorkers, DefaultGitHubWorkers)
	}
	if cfg.SourcesFile != "/etc/relwatch/sources.toml" {
		t.Errorf("sources file = %q", cfg.SourcesFile)
	}
	if cfg.GitHub.Token != "file-token" {
		t.Errorf("token = %q", cfg.GitHub.Token)
	}
}

func TestLoadFromRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http: [not a mapping"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestResolveTokenPrefersEnvironment(t *testing.T) {
	cfg := &Config{GitHub: GitHubConfig{Token: "file-token"}}

	t.Setenv("GITHUB_TOKEN", "env-token")
	if got := cfg.ResolveToken(); got != "env-token" {
		t.Errorf("ResolveToken = %q, want env-token", got)
	}

	t.Setenv("GITHUB_TOKEN", "")
	if got := cfg.ResolveToken(); got != "file-token" {
		t.Errorf("ResolveToken = %q, want file-token", got)
	}
}
