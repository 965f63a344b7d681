package config

import "time"

const (
	DefaultPort                    = 8081
	DefaultLoadTimeout             = 30 * time.Second
	DefaultCacheSize               = 1000
	DefaultCorrectionConfidenceCap = 0.6
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/icdlookup/data/codes.db"
	}
	if cfg.Catalog.LoadTimeout <= 0 {
		cfg.Catalog.LoadTimeout = DefaultLoadTimeout
	}
	if cfg.Catalog.Table == "" {
		cfg.Catalog.Table = "icd_codes"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.SimilarLimit == 0 {
		cfg.Search.SimilarLimit = 5
	}
	if cfg.Search.ContextEntries == 0 {
		cfg.Search.ContextEntries = 15
	}
	if cfg.Search.FuzzyMaxDistance == 0 {
		cfg.Search.FuzzyMaxDistance = 2
	}
	if cfg.Search.FuzzyMaxSuggestions == 0 {
		cfg.Search.FuzzyMaxSuggestions = 5
	}
	if cfg.Search.FuzzyMinFrequency == 0 {
		cfg.Search.FuzzyMinFrequency = 1
	}
	if cfg.Search.CorrectionConfidenceCap == 0 {
		cfg.Search.CorrectionConfidenceCap = DefaultCorrectionConfidenceCap
	}
	// AutoFuzzy, FuzzyTranspositions and CacheSize stay nil when unset so an explicit false/0 survives a Save.
}
