package source

import (
	"bytes"
	"context"
	_ "embed"

	"github.com/hyperjump/icdlookup/internal/models"
)

//go:embed data/icd10cm_sample.json
var sampleCatalog []byte

// SampleName is the name reported by the built-in sample catalog.
const SampleName = "builtin:icd10cm-sample"

// Sample serves a small built-in set of common ICD-10-CM codes. It is used when
// no catalog path or database is configured.
type Sample struct{}

// NewSample returns the built-in sample source.
func NewSample() *Sample { return &Sample{} }

func (*Sample) Name() string { return SampleName }

func (*Sample) Records(ctx context.Context) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return decodeJSON(bytes.NewReader(sampleCatalog))
}
