// Package config provides configuration loading for the bundler using
// Viper for flexible configuration loading from a YAML file,
// BUNDLER_-prefixed environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every recognized bundler option (spec.md section 6).
type Config struct {
	// Entry is the entry source file to bundle (CLI argument, not a
	// config-file field).
	Entry string `yaml:"-" mapstructure:"-"`

	OutDir      string `yaml:"out_dir" mapstructure:"out_dir"`
	PublicURL   string `yaml:"public_url" mapstructure:"public_url"`
	Watch       bool   `yaml:"watch" mapstructure:"watch"`
	Cache       bool   `yaml:"cache" mapstructure:"cache"`
	CacheDir    string `yaml:"cache_dir" mapstructure:"cache_dir"`
	KillWorkers bool   `yaml:"kill_workers" mapstructure:"kill_workers"`
	Minify      bool   `yaml:"minify" mapstructure:"minify"`
	HMR         bool   `yaml:"hmr" mapstructure:"hmr"`
	LogLevel    int    `yaml:"log_level" mapstructure:"log_level"`
	Production  bool   `yaml:"production" mapstructure:"production"`
	Workers     int    `yaml:"workers" mapstructure:"workers"`
	HMRAddr     string `yaml:"hmr_addr" mapstructure:"hmr_addr"`
}

// Load reads configuration from whatever viper has already bound (a YAML
// file via SetConfigFile/AddConfigPath, BUNDLER_-prefixed env vars, and
// flags bound in cmd/root.go), applies production-aware defaults for any
// option the user did not set, and validates the result.
func Load() (*Config, error) {
	production := viper.GetBool("production") || strings.EqualFold(os.Getenv("NODE_ENV"), "production")

	cfg := &Config{
		OutDir:      "./dist",
		Watch:       !production,
		Cache:       true,
		CacheDir:    ".cache",
		KillWorkers: true,
		Minify:      production,
		HMR:         !production,
		LogLevel:    1,
		Production:  production,
		Workers:     0,
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if !viper.IsSet("watch") {
		cfg.Watch = !production
	}
	if !viper.IsSet("minify") {
		cfg.Minify = production
	}
	if !viper.IsSet("hmr") {
		cfg.HMR = cfg.Watch
	}
	cfg.Production = production

	// An explicit --log-level flag (bound as "log-level") names a level.
	if viper.IsSet("log-level") {
		switch strings.ToLower(viper.GetString("log-level")) {
		case "debug":
			cfg.LogLevel = 0
		case "info":
			cfg.LogLevel = 1
		case "warn":
			cfg.LogLevel = 2
		case "error":
			cfg.LogLevel = 3
		}
	}

	if cfg.PublicURL == "" {
		cfg.PublicURL = "/" + filepath.Base(filepath.Clean(cfg.OutDir))
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 0 // Farm interprets 0 as "logical CPU count"
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if err := validatePath(cfg.OutDir); err != nil {
		return fmt.Errorf("out_dir: %w", err)
	}
	if err := validatePath(cfg.CacheDir); err != nil {
		return fmt.Errorf("cache_dir: %w", err)
	}
	if cfg.LogLevel < 0 || cfg.LogLevel > 3 {
		return fmt.Errorf("log_level %d out of range 0-3", cfg.LogLevel)
	}
	return nil
}

// validatePath rejects path-traversal and shell-metacharacter payloads in
// any filesystem-path-shaped configuration value.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	clean := filepath.Clean(path)
	if strings.Contains(clean, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}
	for _, ch := range []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"} {
		if strings.Contains(clean, ch) {
			return fmt.Errorf("path contains dangerous character %q: %s", ch, path)
		}
	}
	return nil
}
