// Package cli provides output writers for icdlookup commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/icdlookup/internal/models"
	"github.com/hyperjump/icdlookup/internal/search"
	"github.com/hyperjump/icdlookup/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one tab-separated line per code, for shell pipelines.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const (
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
	rule      = "─────────────────────────────────────────────────────────"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteOptions tunes text output.
type WriteOptions struct {
	// Highlight marks matched words in bold using ANSI escapes.
	Highlight bool
	// MaxDescription truncates descriptions to this many runes; 0 keeps them whole.
	MaxDescription int
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat, opts WriteOptions) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		writeResultsCompact(w, response.Results)
		return nil
	default:
		writeSearchResultsText(w, response, opts)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse, opts WriteOptions) {
	fmt.Fprintf(w, "\nFound %d results in %dms\n", response.Total, response.QueryTime)
	if response.AutoFuzzy && len(response.Suggestions) > 0 {
		fmt.Fprintf(w, "No exact matches; showing results for %q\n", response.Suggestions[0])
	}
	fmt.Fprintln(w)
	query := response.Query
	if response.AutoFuzzy && len(response.Suggestions) > 0 {
		query = response.Suggestions[0]
	}
	for i, result := range response.Results {
		writeOneResult(w, i+1, result, query, opts)
	}
}

func writeOneResult(w io.Writer, rank int, result *models.SearchResult, query string, opts WriteOptions) {
	desc := utils.Truncate(result.Description, opts.MaxDescription)
	if opts.Highlight && result.MatchType != models.MatchExactCode && result.MatchType != models.MatchPartialCode {
		desc = search.Highlight(desc, query, ansiBold, ansiReset)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%d. %-10s [%s] Score: %g\n", rank, result.Code, result.MatchType, result.Score)
	fmt.Fprintf(w, "   %s\n", desc)
}

func writeResultsCompact(w io.Writer, results []*models.SearchResult) {
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\n", r.Code, r.Description)
	}
}

// WriteEntry writes a single lookup result. A nil entry is reported as not found.
func WriteEntry(w io.Writer, code string, entry *models.Entry, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if entry == nil {
			return writeJSON(w, map[string]interface{}{"code": code, "found": false})
		}
		return writeJSON(w, entry)
	case OutputCompact:
		if entry != nil {
			fmt.Fprintf(w, "%s\t%s\n", entry.Code, entry.Description)
		}
		return nil
	default:
		if entry == nil {
			fmt.Fprintf(w, "%s: not found\n", code)
			return nil
		}
		fmt.Fprintf(w, "%s: %s\n", entry.Code, entry.Description)
		if len(entry.Keywords) > 0 {
			fmt.Fprintf(w, "Keywords: %s\n", strings.Join(utils.Dedupe(entry.Keywords), ", "))
		}
		return nil
	}
}

// WriteEntries writes every catalog entry, one per line outside JSON.
func WriteEntries(w io.Writer, entries []models.Entry, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, entries)
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Code, e.Description)
	}
	return nil
}

// WriteSimilar writes codes sharing a prefix with code.
func WriteSimilar(w io.Writer, code string, results []*models.SearchResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, map[string]interface{}{"code": code, "results": results, "total": len(results)})
	case OutputCompact:
		writeResultsCompact(w, results)
		return nil
	default:
		if len(results) == 0 {
			fmt.Fprintf(w, "No codes share a prefix with %s\n", code)
			return nil
		}
		fmt.Fprintf(w, "Codes similar to %s:\n", code)
		for _, r := range results {
			fmt.Fprintf(w, "  %-10s (prefix %g) %s\n", r.Code, r.Score, r.Description)
		}
		return nil
	}
}

// WriteValidation writes batch validation results in the order codes were given.
func WriteValidation(w io.Writer, codes []string, resp *models.ValidateResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	for _, code := range codes {
		entry := resp.Results[code]
		switch {
		case format == OutputCompact && entry != nil:
			fmt.Fprintf(w, "%s\tvalid\t%s\n", code, entry.Code)
		case format == OutputCompact:
			fmt.Fprintf(w, "%s\tinvalid\t\n", code)
		case entry != nil:
			fmt.Fprintf(w, "VALID    %-10s %s\n", code, entry.Description)
		default:
			fmt.Fprintf(w, "INVALID  %s\n", code)
		}
	}
	if format == OutputText {
		fmt.Fprintf(w, "\n%d of %d codes valid\n", resp.Valid, len(codes))
	}
	return nil
}

// WriteVerification writes the outcome of verifying a suggested code.
func WriteVerification(w io.Writer, v *models.Verification, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, v)
	}
	if format == OutputCompact {
		code := ""
		if v.Entry != nil {
			code = v.Entry.Code
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%g\n", v.Input, code, v.Valid, v.Corrected, v.Confidence)
		return nil
	}
	switch {
	case v.Valid:
		fmt.Fprintf(w, "%s is valid: %s\n", v.Entry.Code, v.Entry.Description)
	case v.Corrected:
		fmt.Fprintf(w, "%s is not a valid code; corrected to %s: %s (confidence %.2f)\n",
			v.Input, v.Entry.Code, v.Entry.Description, v.Confidence)
	default:
		fmt.Fprintf(w, "%s is not a valid code and no correction was found\n", v.Input)
	}
	if len(v.Similar) > 0 {
		fmt.Fprintln(w, "Codes with a shared prefix:")
		for _, r := range v.Similar {
			fmt.Fprintf(w, "  %-10s %s\n", r.Code, r.Description)
		}
	}
	return nil
}

// WriteContext writes a grounding context block.
func WriteContext(w io.Writer, block string, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]string{"context": block})
	}
	if block == "" {
		if format == OutputText {
			fmt.Fprintln(w, "(no matching codes)")
		}
		return nil
	}
	fmt.Fprintln(w, block)
	return nil
}

// StatsReport is the output of the stats command.
type StatsReport struct {
	Source         string              `json:"source"`
	Stats          models.Stats        `json:"stats"`
	DatabasePath   string              `json:"database_path,omitempty"`
	DiskUsageBytes int64               `json:"disk_usage_bytes"`
	StoredCodes    int64               `json:"stored_codes"`
	Imports        []*models.ImportRun `json:"imports,omitempty"`
}

// WriteStats writes catalog and store statistics.
func WriteStats(w io.Writer, r *StatsReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, r)
	}
	fmt.Fprintf(w, "Source:          %s\n", r.Source)
	fmt.Fprintf(w, "Loaded:          %t\n", r.Stats.Loaded)
	fmt.Fprintf(w, "Codes:           %d\n", r.Stats.TotalCodes)
	fmt.Fprintf(w, "Unique keywords: %d\n", r.Stats.UniqueKeywords)
	if r.DatabasePath != "" {
		fmt.Fprintf(w, "Code store:      %s (%d codes, %s)\n", r.DatabasePath, r.StoredCodes, FormatBytes(r.DiskUsageBytes))
	}
	if len(r.Imports) > 0 {
		fmt.Fprintln(w, "Recent imports:")
		for _, run := range r.Imports {
			fmt.Fprintf(w, "  %s  %s  %d codes, %d skipped  (%s)\n",
				run.CreatedAt.Format("2006-01-02 15:04"), run.Source, run.RecordCount, run.Skipped, run.ID)
		}
	}
	return nil
}

// FormatBytes renders n as a human-readable size.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
