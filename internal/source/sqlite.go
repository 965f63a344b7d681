package source

import (
	"context"

	"github.com/hyperjump/icdlookup/internal/models"
	"github.com/hyperjump/icdlookup/internal/storage"
)

// SQLite reads codes from a database written by the import command.
type SQLite struct {
	path string
}

// NewSQLite returns a source over the code store at path.
func NewSQLite(path string) *SQLite { return &SQLite{path: path} }

func (s *SQLite) Name() string { return s.path }

// Path returns the database path.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Records(ctx context.Context) ([]models.Record, error) {
	store, err := storage.OpenSQLiteStoreReadOnly(s.path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.ListCodes(ctx)
}
