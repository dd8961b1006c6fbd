// Package config resolves the knowledge base configuration from the
// environment and an optional project config file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultMaxConcurrency bounds in-flight adapter reads unless overridden.
const DefaultMaxConcurrency = 8

// Environment variable names.
const (
	EnvRoot           = "SKB_ROOT"
	EnvProjectRoot    = "SKB_PROJECT_ROOT"
	EnvToken          = "SKB_TOKEN"
	EnvMaxConcurrency = "SKB_MAX_CONCURRENCY"
	EnvRemoteBase     = "SKB_REMOTE_BASE"
	EnvReviewDB       = "SKB_REVIEW_DB"
)

// Config is the resolved runtime configuration. It is built once at
// startup and passed explicitly; nothing reads the environment after
// Load returns.
type Config struct {
	// SharedRoot is the shared-tier KB directory (or mirror cache).
	SharedRoot string `json:"shared_root"`
	// ProjectRoot is the project-tier KB directory.
	ProjectRoot string `json:"project_root"`
	// RemoteBase is the raw-fetch base URL for the shared tier; empty
	// means the shared tier is purely local.
	RemoteBase string `json:"remote_base,omitempty"`
	// Token authenticates remote fetches.
	Token string `json:"-"`
	// ReviewDB is the sqlite path for the local review queue.
	ReviewDB string `json:"review_db,omitempty"`
	// MaxConcurrency bounds parallel file parsing during scans.
	MaxConcurrency int `json:"max_concurrency,omitempty"`
	// Agent identifies the acting agent in change history.
	Agent string `json:"agent,omitempty"`
}

// Load resolves configuration: defaults, then .skb/config.json under the
// working directory if present, then environment overrides.
func Load(dir string) (*Config, error) {
	cfg := &Config{
		MaxConcurrency: DefaultMaxConcurrency,
	}

	home, err := os.UserHomeDir()
	if err == nil {
		cfg.SharedRoot = filepath.Join(home, ".skb", "shared")
		cfg.ReviewDB = filepath.Join(home, ".skb", "review.db")
	}
	cfg.ProjectRoot = filepath.Join(dir, "kb")

	path := filepath.Join(dir, ".skb", "config.json")
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if v := os.Getenv(EnvRoot); v != "" {
		cfg.SharedRoot = v
	}
	if v := os.Getenv(EnvProjectRoot); v != "" {
		cfg.ProjectRoot = v
	}
	if v := os.Getenv(EnvRemoteBase); v != "" {
		cfg.RemoteBase = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv(EnvReviewDB); v != "" {
		cfg.ReviewDB = v
	}
	if v := os.Getenv(EnvMaxConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid %s: %q", EnvMaxConcurrency, v)
		}
		cfg.MaxConcurrency = n
	}

	if cfg.Agent == "" {
		cfg.Agent = "unknown"
	}
	return cfg, nil
}

// Save writes .skb/config.json under dir.
func Save(dir string, cfg *Config) error {
	skbDir := filepath.Join(dir, ".skb")
	if err := os.MkdirAll(skbDir, 0o755); err != nil {
		return fmt.Errorf("failed to create .skb dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(skbDir, "config.json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// PendingDir is where draft shared-tier submissions are staged before the
// review host accepts them.
func (c *Config) PendingDir() string {
	return filepath.Join(c.ProjectRoot, "..", ".kb", "pending")
}
