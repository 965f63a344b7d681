package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/icdlookup/internal/cli"
	"github.com/hyperjump/icdlookup/internal/models"
	"github.com/hyperjump/icdlookup/pkg/utils"
)

func newLookupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <code>",
		Short: "Look up a single code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			c, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer c.Close()
			entry, err := c.Engine.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.WriteEntry(cmd.OutOrStdout(), args[0], entry, format)
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		limit     int
		fuzzy     bool
		highlight bool
		maxDesc   int
		serverURL string
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search codes by description or code prefix",
		Long: "Search codes by description words or by code. The query is all remaining\n" +
			"arguments joined by spaces, so quoting is optional.",
		Example: "  icdlookup search type 2 diabetes\n" +
			"  icdlookup search --fuzzy pnuemonia\n" +
			"  icdlookup search -o json E11",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			q := &models.SearchQuery{Query: joinArgs(args), Limit: limit, Fuzzy: fuzzy}
			if q.Query == "" {
				return models.ErrEmptyQuery
			}
			writeOpts := cli.WriteOptions{Highlight: highlight, MaxDescription: maxDesc}

			if serverURL != "" {
				resp, err := searchViaHTTP(cmd.Context(), serverURL, q)
				if err != nil {
					return fmt.Errorf("search failed: %w", err)
				}
				return cli.WriteSearchResults(cmd.OutOrStdout(), resp, format, writeOpts)
			}

			c, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer c.Close()
			resp, err := c.Engine.Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), resp, format, writeOpts)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of results (default from config)")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "correct misspelled words when nothing matches")
	cmd.Flags().BoolVar(&highlight, "highlight", false, "highlight matched words in text output")
	cmd.Flags().IntVar(&maxDesc, "max-description", 0, "truncate descriptions to this many characters in text output")
	cmd.Flags().StringVar(&serverURL, "server", "", "query a running icdlookup server instead of loading the catalog")
	return cmd
}

func searchViaHTTP(ctx context.Context, serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(serverURL, "/") + "/api/v1/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func newSimilarCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "similar <code>",
		Short: "List codes sharing the longest prefix with a code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			c, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer c.Close()
			results, err := c.Engine.Similar(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return cli.WriteSimilar(cmd.OutOrStdout(), args[0], results, format)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of codes (default from config)")
	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <code>...",
		Short: "Check which codes exist in the catalog",
		Long:  "Check which codes exist in the catalog. Codes may be separated by spaces or commas.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			codes := splitCodes(args)
			if len(codes) == 0 {
				return models.ErrNoCodes
			}
			c, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer c.Close()
			resp, err := c.Engine.Validate(cmd.Context(), &models.ValidateRequest{Codes: codes})
			if err != nil {
				return err
			}
			return cli.WriteValidation(cmd.OutOrStdout(), codes, resp, format)
		},
	}
}

// splitCodes splits args on commas and whitespace and drops repeats, keeping
// first-seen order.
func splitCodes(args []string) []string {
	var codes []string
	for _, a := range args {
		codes = append(codes, strings.FieldsFunc(a, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})...)
	}
	return utils.Dedupe(codes)
}

func newContextCmd(opts *rootOptions) *cobra.Command {
	var maxEntries int
	cmd := &cobra.Command{
		Use:   "context <query>",
		Short: "Build a grounding context block for a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			c, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer c.Close()
			block, err := c.Engine.Context(cmd.Context(), &models.ContextRequest{Query: joinArgs(args), MaxEntries: maxEntries})
			if err != nil {
				return err
			}
			return cli.WriteContext(cmd.OutOrStdout(), block, format)
		},
	}
	cmd.Flags().IntVarP(&maxEntries, "max-entries", "n", 0, "maximum codes in the block (default from config)")
	return cmd
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	var (
		description string
		confidence  float64
	)
	cmd := &cobra.Command{
		Use:   "verify <code>",
		Short: "Verify a suggested code, correcting it from its description when unknown",
		Example: "  icdlookup verify J18.99 --description \"pneumonia unspecified\" --confidence 0.9\n" +
			"  icdlookup verify --description \"essential hypertension\"",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			req := &models.VerifyRequest{Description: description, Confidence: confidence}
			if len(args) == 1 {
				req.Code = args[0]
			}
			c, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer c.Close()
			v, err := c.Engine.Verify(cmd.Context(), req)
			if err != nil {
				return err
			}
			return cli.WriteVerification(cmd.OutOrStdout(), v, format)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "description the code was suggested for")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "confidence reported with the suggestion")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write every catalog entry in catalog order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			c, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer c.Close()
			entries, err := c.Catalog.Entries(cmd.Context())
			if err != nil {
				return err
			}
			return cli.WriteEntries(cmd.OutOrStdout(), entries, format)
		},
	}
}
