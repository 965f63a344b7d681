package catalog

import (
	"context"

	"github.com/hyperjump/icdlookup/internal/models"
)

// LookupExact returns the entry whose normalized code equals the normalized
// input, or nil when there is none. The error is non-nil only when the catalog
// could not be loaded.
func (c *Catalog) LookupExact(ctx context.Context, code string) (*models.Entry, error) {
	idx, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	pos, ok := idx.lookup(code)
	if !ok {
		return nil, nil
	}
	return idx.entry(pos), nil
}

// IsValid reports whether code exists in the catalog.
func (c *Catalog) IsValid(ctx context.Context, code string) (bool, error) {
	entry, err := c.LookupExact(ctx, code)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// BatchValidate looks up every code. The result is keyed by the code string as
// supplied; unknown codes map to nil and repeated inputs collapse to one key.
func (c *Catalog) BatchValidate(ctx context.Context, codes []string) (map[string]*models.Entry, error) {
	idx, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*models.Entry, len(codes))
	for _, code := range codes {
		if pos, ok := idx.lookup(code); ok {
			out[code] = idx.entry(pos)
		} else {
			out[code] = nil
		}
	}
	return out, nil
}
