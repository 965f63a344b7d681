// Package source reads raw ICD-10 catalog records from files, databases, or the built-in sample.
package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/icdlookup/internal/catalog"
	"github.com/hyperjump/icdlookup/internal/config"
)

// Supported catalog formats.
const (
	FormatJSON   = "json"
	FormatJSONL  = "jsonl"
	FormatCSV    = "csv"
	FormatTSV    = "tsv"
	FormatXLSX   = "xlsx"
	FormatYAML   = "yaml"
	FormatSQLite = "sqlite"
)

var extFormats = map[string]string{
	".json":    FormatJSON,
	".jsonl":   FormatJSONL,
	".ndjson":  FormatJSONL,
	".csv":     FormatCSV,
	".tsv":     FormatTSV,
	".tab":     FormatTSV,
	".xlsx":    FormatXLSX,
	".yaml":    FormatYAML,
	".yml":     FormatYAML,
	".db":      FormatSQLite,
	".sqlite":  FormatSQLite,
	".sqlite3": FormatSQLite,
}

// Option configures sources built by New.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used by file and database sources.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New selects a source from the catalog configuration: a database URL means
// Postgres, a path means a file (or SQLite database), and neither means the
// built-in sample catalog.
func New(cfg config.CatalogConfig, opts ...Option) (catalog.Source, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.DatabaseURL != "" {
		return NewPostgres(cfg.DatabaseURL, cfg.Table), nil
	}
	if cfg.Path == "" {
		return NewSample(), nil
	}
	format, err := DetectFormat(cfg.Path, cfg.Format)
	if err != nil {
		return nil, err
	}
	if format == FormatSQLite {
		return NewSQLite(cfg.Path), nil
	}
	return NewFile(cfg.Path, format, FileOptions{Sheet: cfg.Sheet, Logger: o.logger}), nil
}

// DetectFormat returns the explicit format when set, otherwise the format implied by
// the file extension.
func DetectFormat(path, explicit string) (string, error) {
	if explicit != "" {
		f := strings.ToLower(strings.TrimSpace(explicit))
		switch f {
		case "ndjson":
			f = FormatJSONL
		case "yml":
			f = FormatYAML
		}
		for _, known := range extFormats {
			if known == f {
				return f, nil
			}
		}
		return "", fmt.Errorf("unsupported catalog format %q", explicit)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extFormats[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("cannot infer catalog format from %q; set catalog.format", path)
}
