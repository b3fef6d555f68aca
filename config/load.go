package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a file. An empty path loads defaults, as
// does a missing file at the default location ("tagmint.yaml").
func Load(configPath string) (*Config, error) {
	explicit := configPath != ""
	if configPath == "" {
		configPath = "tagmint.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg := Defaults()
			cfg.BaseDir = "."
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Get absolute directory for resolving relative paths
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseDir = baseDir

	// Resolve relative paths against the config file's directory
	if cfg.WebRoot != "" && !filepath.IsAbs(cfg.WebRoot) {
		cfg.WebRoot = filepath.Join(baseDir, cfg.WebRoot)
	}
	if cfg.Pages.Layout != "" && !filepath.IsAbs(cfg.Pages.Layout) {
		cfg.Pages.Layout = filepath.Join(baseDir, cfg.Pages.Layout)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration values, naming the offending field.
func (c *Config) Validate() error {
	if c.WebRoot == "" {
		return fmt.Errorf("config: web_root must not be empty")
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("config: base_path must start with / (got %q)", c.BasePath)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port out of range (got %d)", c.Server.Port)
	}
	switch c.Compression.Level {
	case "", "none", "fastest", "default", "best":
	default:
		return fmt.Errorf("config: compression.level must be one of none, fastest, default, best (got %q)", c.Compression.Level)
	}
	return nil
}
