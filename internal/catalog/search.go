package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/hyperjump/icdlookup/internal/models"
)

const (
	// exactKeywordWeight is added per query token for entries indexed under that exact token.
	exactKeywordWeight = 3
	// prefixKeywordWeight is added per query token for entries indexed under a longer keyword
	// that starts with the token.
	prefixKeywordWeight = 1
)

// SearchByDescription ranks entries by keyword overlap with query. Each query
// token adds 3 to entries indexed under that exact keyword and 1 to entries
// indexed under any other keyword it is a prefix of. Entries with a positive
// score are returned best first, ties in catalog order, at most maxResults.
// A query with no usable tokens returns an empty slice.
func (c *Catalog) SearchByDescription(ctx context.Context, query string, maxResults int) ([]*models.SearchResult, error) {
	idx, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return idx.searchByDescription(query, maxResults), nil
}

func (idx *index) searchByDescription(query string, maxResults int) []*models.SearchResult {
	results := make([]*models.SearchResult, 0)
	if maxResults <= 0 {
		return results
	}
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return results
	}

	scores := make(map[int]int)
	for _, tok := range tokens {
		for _, pos := range idx.byKeyword[tok] {
			scores[pos] += exactKeywordWeight
		}
		// keywords is sorted, so every keyword with this prefix sits in one run
		// starting at the insertion point of tok.
		for i := sort.SearchStrings(idx.keywords, tok); i < len(idx.keywords); i++ {
			kw := idx.keywords[i]
			if !strings.HasPrefix(kw, tok) {
				break
			}
			if kw == tok {
				continue
			}
			for _, pos := range idx.byKeyword[kw] {
				scores[pos] += prefixKeywordWeight
			}
		}
	}
	if len(scores) == 0 {
		return results
	}

	ranked := make([]int, 0, len(scores))
	for pos := range scores {
		ranked = append(ranked, pos)
	}
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i]], scores[ranked[j]]
		if si != sj {
			return si > sj
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	for _, pos := range ranked {
		e := &idx.entries[pos]
		results = append(results, &models.SearchResult{
			Code:        e.Code,
			Description: e.Description,
			Score:       float64(scores[pos]),
			MatchType:   models.MatchKeyword,
		})
	}
	return results
}
