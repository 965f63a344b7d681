package catalog

import (
	"context"
	"strings"

	"github.com/hyperjump/icdlookup/internal/models"
)

// minSimilarPrefix is the shortest shared prefix FindSimilarCodes considers;
// three characters is an ICD-10 category.
const minSimilarPrefix = 3

// FindSimilarCodes suggests codes sharing the longest possible prefix with code.
// It starts with the whole normalized code and shortens the prefix one character
// at a time down to three, collecting entries other than the input itself until
// maxResults are found. Score is the shared prefix length, so results come out
// best first. Inputs shorter than three characters return an empty slice.
func (c *Catalog) FindSimilarCodes(ctx context.Context, code string, maxResults int) ([]*models.SearchResult, error) {
	idx, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return idx.findSimilarCodes(code, maxResults), nil
}

func (idx *index) findSimilarCodes(code string, maxResults int) []*models.SearchResult {
	results := make([]*models.SearchResult, 0)
	normalized := NormalizeCode(code)
	seen := make(map[int]struct{})
	for prefixLen := len(normalized); prefixLen >= minSimilarPrefix && len(results) < maxResults; prefixLen-- {
		prefix := normalized[:prefixLen]
		for pos := range idx.entries {
			if len(results) >= maxResults {
				break
			}
			e := &idx.entries[pos]
			if e.NormalizedCode == normalized || !strings.HasPrefix(e.NormalizedCode, prefix) {
				continue
			}
			if _, dup := seen[pos]; dup {
				continue
			}
			seen[pos] = struct{}{}
			results = append(results, &models.SearchResult{
				Code:        e.Code,
				Description: e.Description,
				Score:       float64(prefixLen),
				MatchType:   models.MatchPartialCode,
			})
		}
	}
	return results
}
