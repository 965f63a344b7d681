package source

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/icdlookup/internal/models"
)

// FileOptions holds format-specific settings for a file source.
type FileOptions struct {
	// Sheet selects the worksheet of an XLSX catalog; empty means the first sheet.
	Sheet  string
	Logger *zap.Logger
}

// File reads a catalog file in one of the supported formats.
type File struct {
	path   string
	format string
	sheet  string
	logger *zap.Logger
}

// NewFile returns a source for the catalog file at path.
func NewFile(path, format string, opts FileOptions) *File {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{path: path, format: format, sheet: opts.Sheet, logger: logger}
}

// Name returns the file path.
func (f *File) Name() string { return f.path }

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Records opens and decodes the file.
func (f *File) Records(ctx context.Context) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer fh.Close()

	var records []models.Record
	switch f.format {
	case FormatJSON:
		records, err = decodeJSON(fh)
	case FormatJSONL:
		records, err = decodeJSONL(ctx, fh)
	case FormatCSV:
		records, err = decodeDelimited(ctx, fh, ',')
	case FormatTSV:
		records, err = decodeDelimited(ctx, fh, '\t')
	case FormatXLSX:
		records, err = decodeXLSX(fh, f.sheet)
	case FormatYAML:
		records, err = decodeYAML(fh)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", f.format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.logger.Debug("read catalog file",
		zap.String("path", f.path),
		zap.String("format", f.format),
		zap.Int("records", len(records)),
	)
	return records, nil
}
