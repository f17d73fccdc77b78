// Package config loads and validates verifier configuration from YAML
// files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the verifier CLI.
type Config struct {
	// Simplification pass toggles.
	MergeBlocks       bool `yaml:"merge_blocks" env:"EBPF_MERGE_BLOCKS"`
	PruneUnreachable  bool `yaml:"prune_unreachable" env:"EBPF_PRUNE_UNREACHABLE"`
	RejectUnreachable bool `yaml:"reject_unreachable" env:"EBPF_REJECT_UNREACHABLE"`

	// Fixpoint settings.
	WideningDelay int `yaml:"widening_delay" env:"EBPF_WIDENING_DELAY"`
	MaxIterations int `yaml:"max_iterations" env:"EBPF_MAX_ITERATIONS"`

	// Verdict cache.
	CacheDir     string `yaml:"cache_dir" env:"EBPF_CACHE_DIR"`
	CacheEntries int    `yaml:"cache_entries" env:"EBPF_CACHE_ENTRIES"`

	// Logging.
	Verbose bool `yaml:"verbose" env:"EBPF_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MergeBlocks:       true,
		PruneUnreachable:  true,
		RejectUnreachable: true,
		WideningDelay:     2,
		MaxIterations:     100000,
		CacheDir:          defaultCacheDir(),
		CacheEntries:      1024,
		Verbose:           false,
	}
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ebpf-verifier"
	}
	return filepath.Join(home, ".ebpf-verifier")
}

// configFilePath returns the config file path (~/.ebpf-verifier/config.yaml).
func configFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ebpf-verifier/config.yaml"
	}
	return filepath.Join(home, ".ebpf-verifier", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Config file (~/.ebpf-verifier/config.yaml)
// 3. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path := configFilePath()
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified YAML file path, creating
// parent directories if needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// SavePath returns the default location Save should target.
func SavePath() string {
	return configFilePath()
}

// CachePath returns the verdict cache file location.
func (c *Config) CachePath() string {
	return filepath.Join(c.CacheDir, "verdicts.msgpack")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.WideningDelay < 0 {
		return fmt.Errorf("widening_delay must be non-negative, got %d", c.WideningDelay)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be non-negative, got %d", c.MaxIterations)
	}
	if c.CacheEntries < 0 {
		return fmt.Errorf("cache_entries must be non-negative, got %d", c.CacheEntries)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EBPF_MERGE_BLOCKS"); v != "" {
		cfg.MergeBlocks = parseBool(v, cfg.MergeBlocks)
	}
	if v := os.Getenv("EBPF_PRUNE_UNREACHABLE"); v != "" {
		cfg.PruneUnreachable = parseBool(v, cfg.PruneUnreachable)
	}
	if v := os.Getenv("EBPF_REJECT_UNREACHABLE"); v != "" {
		cfg.RejectUnreachable = parseBool(v, cfg.RejectUnreachable)
	}
	if v := os.Getenv("EBPF_WIDENING_DELAY"); v != "" {
		cfg.WideningDelay = parseInt(v, cfg.WideningDelay)
	}
	if v := os.Getenv("EBPF_MAX_ITERATIONS"); v != "" {
		cfg.MaxIterations = parseInt(v, cfg.MaxIterations)
	}
	if v := os.Getenv("EBPF_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("EBPF_CACHE_ENTRIES"); v != "" {
		cfg.CacheEntries = parseInt(v, cfg.CacheEntries)
	}
	if v := os.Getenv("EBPF_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v, cfg.Verbose)
	}
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
