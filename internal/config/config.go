// Package config provides configuration loading and structs for the icdlookup service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Catalog CatalogConfig `yaml:"catalog"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CatalogConfig describes where the code catalog is read from.
// An empty Path and DatabaseURL selects the built-in sample catalog.
type CatalogConfig struct {
	Path        string        `yaml:"path"`
	Format      string        `yaml:"format"`
	Sheet       string        `yaml:"sheet"`
	DatabaseURL string        `yaml:"database_url"`
	Table       string        `yaml:"table"`
	LoadTimeout time.Duration `yaml:"load_timeout"`
	Watch       bool          `yaml:"watch"`
}

// StorageConfig holds the path of the SQLite code store used by import.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// SearchConfig holds query limits and fuzzy matching settings.
type SearchConfig struct {
	DefaultLimit            int     `yaml:"default_limit"`
	MaxLimit                int     `yaml:"max_limit"`
	SimilarLimit            int     `yaml:"similar_limit"`
	ContextEntries          int     `yaml:"context_entries"`
	ContextHeader           string  `yaml:"context_header"`
	AutoFuzzy               *bool   `yaml:"auto_fuzzy"`
	FuzzyMaxDistance        int     `yaml:"fuzzy_max_distance"`
	FuzzyMaxSuggestions     int     `yaml:"fuzzy_max_suggestions"`
	FuzzyMinFrequency       int     `yaml:"fuzzy_min_frequency"`
	FuzzyTranspositions     *bool   `yaml:"fuzzy_transpositions"`
	CacheSize               *int    `yaml:"cache_size"`
	CorrectionConfidenceCap float64 `yaml:"correction_confidence_cap"`
}

// AutoFuzzyOrDefault returns whether fuzzy fallback runs without being asked; defaults to true when unset.
func (s *SearchConfig) AutoFuzzyOrDefault() bool {
	if s.AutoFuzzy != nil {
		return *s.AutoFuzzy
	}
	return true
}

// FuzzyTranspositionsOrDefault reports whether a swap of adjacent letters counts
// as one edit; defaults to true when unset.
func (s *SearchConfig) FuzzyTranspositionsOrDefault() bool {
	if s.FuzzyTranspositions != nil {
		return *s.FuzzyTranspositions
	}
	return true
}

// CacheSizeOrDefault returns the result cache size. Zero disables the cache.
func (s *SearchConfig) CacheSizeOrDefault() int {
	if s.CacheSize != nil {
		return *s.CacheSize
	}
	return DefaultCacheSize
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Catalog.Path != "" {
		cfg.Catalog.Path = expandPath(cfg.Catalog.Path, configDir)
	}

	return &cfg, nil
}

// Default returns a config with every default applied, used when no config file exists.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
