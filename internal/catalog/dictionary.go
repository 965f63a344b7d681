package catalog

import (
	"context"
	"strings"
)

// Dictionary is a read-only view of the keyword index. It satisfies
// keyword.TermDictionary so the spell checker can suggest catalog words.
type Dictionary struct {
	idx *index
}

// Dictionary returns the keyword dictionary, loading the catalog first if needed.
func (c *Catalog) Dictionary(ctx context.Context) (*Dictionary, error) {
	idx, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return &Dictionary{idx: idx}, nil
}

// GetAllTerms returns every distinct keyword in sorted order.
func (d *Dictionary) GetAllTerms() ([]string, error) {
	return append([]string(nil), d.idx.keywords...), nil
}

// GetTermFrequency returns the number of entries indexed under term.
func (d *Dictionary) GetTermFrequency(term string) (int, error) {
	return len(d.idx.byKeyword[strings.ToLower(term)]), nil
}

// ContainsTerm reports whether term is an indexed keyword.
func (d *Dictionary) ContainsTerm(term string) (bool, error) {
	_, ok := d.idx.byKeyword[strings.ToLower(term)]
	return ok, nil
}
