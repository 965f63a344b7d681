package catalog

import (
	"errors"
	"sort"

	"github.com/hyperjump/icdlookup/internal/models"
)

// errEmptyCatalog is returned when a source yields no usable records.
var errEmptyCatalog = errors.New("catalog source produced no valid records")

// index is the immutable, fully built catalog. It is never modified after
// buildIndex returns, so it is shared between goroutines without locking.
type index struct {
	entries []models.Entry
	// byCode maps normalized code -> position in entries.
	byCode map[string]int
	// byKeyword maps keyword -> positions in entries, ascending, each at most once.
	byKeyword map[string][]int
	// keywords is the sorted set of byKeyword keys, for prefix scans.
	keywords []string

	invalid    int
	duplicates int
}

// buildIndex normalizes and tokenizes records in order. Records without a code
// or description, or whose code normalizes to nothing, are counted as invalid;
// records repeating an already indexed normalized code are counted as duplicates
// and the first one wins.
func buildIndex(records []models.Record) (*index, error) {
	idx := &index{
		entries:   make([]models.Entry, 0, len(records)),
		byCode:    make(map[string]int, len(records)),
		byKeyword: make(map[string][]int),
	}
	for _, rec := range records {
		if !rec.Valid() {
			idx.invalid++
			continue
		}
		normalized := NormalizeCode(rec.Code)
		if normalized == "" {
			idx.invalid++
			continue
		}
		if _, exists := idx.byCode[normalized]; exists {
			idx.duplicates++
			continue
		}
		pos := len(idx.entries)
		entry := models.Entry{
			Code:           rec.Code,
			NormalizedCode: normalized,
			Description:    rec.Desc,
			Keywords:       Tokenize(rec.Desc),
		}
		idx.entries = append(idx.entries, entry)
		idx.byCode[normalized] = pos
		for _, kw := range entry.Keywords {
			postings := idx.byKeyword[kw]
			if n := len(postings); n > 0 && postings[n-1] == pos {
				continue
			}
			idx.byKeyword[kw] = append(postings, pos)
		}
	}
	if len(idx.entries) == 0 {
		return nil, errEmptyCatalog
	}
	idx.keywords = make([]string, 0, len(idx.byKeyword))
	for kw := range idx.byKeyword {
		idx.keywords = append(idx.keywords, kw)
	}
	sort.Strings(idx.keywords)
	return idx, nil
}

// entry returns a copy of the entry at pos so callers cannot alter the index.
func (idx *index) entry(pos int) *models.Entry {
	e := idx.entries[pos]
	e.Keywords = append([]string(nil), e.Keywords...)
	return &e
}

func (idx *index) lookup(code string) (int, bool) {
	pos, ok := idx.byCode[NormalizeCode(code)]
	return pos, ok
}
