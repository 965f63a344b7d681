// Package storage persists imported catalog codes and import history.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/icdlookup/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// CodeStore defines catalog code persistence operations.
type CodeStore interface {
	// Code operations
	ReplaceCodes(ctx context.Context, records []models.Record) (ReplaceResult, error)
	ListCodes(ctx context.Context) ([]models.Record, error)
	GetCode(ctx context.Context, code string) (*models.Record, error)
	CountCodes(ctx context.Context) (int64, error)

	// Import history
	CreateImport(ctx context.Context, run *models.ImportRun) error
	ListImports(ctx context.Context, limit int) ([]*models.ImportRun, error)

	Close() error
}

// ReplaceResult reports what ReplaceCodes wrote.
type ReplaceResult struct {
	Written    int
	Invalid    int
	Duplicates int
}

// Skipped is the number of records not written.
func (r ReplaceResult) Skipped() int {
	return r.Invalid + r.Duplicates
}
