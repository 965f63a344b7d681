package catalog

import (
	"context"
	"strings"
)

// DefaultContextHeader introduces the code list in a grounding context block.
const DefaultContextHeader = "Relevant ICD-10-CM codes from the official code set:"

// ContextBlock renders the best description matches for queryText as a header
// line followed by one "CODE: description" line per match, for inclusion in an
// LLM prompt. An empty string means no grounding context is available.
func (c *Catalog) ContextBlock(ctx context.Context, queryText string, maxEntries int) (string, error) {
	results, err := c.SearchByDescription(ctx, queryText, maxEntries)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString(c.contextHeader)
	for _, r := range results {
		b.WriteByte('\n')
		b.WriteString(r.Code)
		b.WriteString(": ")
		b.WriteString(r.Description)
	}
	return b.String(), nil
}
