package source

import (
	"context"

	"github.com/hyperjump/icdlookup/internal/models"
)

// Static serves a fixed slice of records, for embedding callers and tests.
type Static struct {
	name    string
	records []models.Record
}

// NewStatic returns a source over a copy of records.
func NewStatic(name string, records []models.Record) *Static {
	return &Static{name: name, records: append([]models.Record(nil), records...)}
}

func (s *Static) Name() string { return s.name }

func (s *Static) Records(ctx context.Context) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.Record(nil), s.records...), nil
}
