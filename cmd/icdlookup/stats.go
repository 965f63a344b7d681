package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/icdlookup/internal/cli"
	"github.com/hyperjump/icdlookup/internal/config"
	"github.com/hyperjump/icdlookup/internal/models"
	"github.com/hyperjump/icdlookup/internal/source"
	"github.com/hyperjump/icdlookup/internal/storage"
)

const statsImportLimit = 5

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and code store statistics",
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

			st, err := c.Engine.Stats(cmd.Context())
			if err != nil {
				return err
			}
			report := &cli.StatsReport{Source: c.Source.Name(), Stats: st}
			if err := fillStoreStats(cmd, c.Config.Storage.DatabasePath, report); err != nil {
				c.Logger.Warn("code store unavailable", zap.String("path", c.Config.Storage.DatabasePath), zap.Error(err))
			}
			return cli.WriteStats(cmd.OutOrStdout(), report, format)
		},
	}
}

// fillStoreStats adds code store counts to report when the store exists.
func fillStoreStats(cmd *cobra.Command, dbPath string, report *cli.StatsReport) error {
	if dbPath == "" {
		return nil
	}
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	store, err := storage.OpenSQLiteStoreReadOnly(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	report.DatabasePath = dbPath
	if report.StoredCodes, err = store.CountCodes(ctx); err != nil {
		return err
	}
	if report.Imports, err = store.ListImports(ctx, statsImportLimit); err != nil {
		return err
	}
	report.DiskUsageBytes, err = storage.DiskUsageBytes(dbPath)
	return err
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		sheet  string
		use    bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a catalog file into the SQLite code store",
		Long: "Read a catalog file (json, jsonl, csv, tsv, xlsx or yaml) and replace the codes\n" +
			"in the code store with it. With --use, the config is updated to serve the store.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer c.Close()

			run, err := importCatalog(cmd, c, args[0], format, sheet)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d codes from %s into %s (%d skipped, import %s)\n",
				run.RecordCount, run.Source, c.Config.Storage.DatabasePath, run.Skipped, run.ID)

			if use {
				if c.ConfigPath == "" {
					return errors.New("--use needs a config file; pass --config")
				}
				c.Config.Catalog = config.CatalogConfig{
					Path:        c.Config.Storage.DatabasePath,
					Format:      source.FormatSQLite,
					LoadTimeout: c.Config.Catalog.LoadTimeout,
					Watch:       c.Config.Catalog.Watch,
				}
				if err := config.Save(c.ConfigPath, c.Config); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Config %s now reads the catalog from the code store\n", c.ConfigPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "file format (default: from the file extension)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet to read from an xlsx file (default: first sheet)")
	cmd.Flags().BoolVar(&use, "use", false, "point catalog.path in the config at the code store")
	return cmd
}

// importCatalog reads path and replaces the code store contents with it.
func importCatalog(cmd *cobra.Command, c *Components, path, format, sheet string) (*models.ImportRun, error) {
	detected, err := source.DetectFormat(path, format)
	if err != nil {
		return nil, err
	}
	if detected == source.FormatSQLite {
		return nil, errors.New("import reads catalog files; a SQLite catalog can be used directly as catalog.path")
	}
	if c.Config.Storage.DatabasePath == "" {
		return nil, errors.New("storage.database_path is not set")
	}

	ctx := cmd.Context()
	src := source.NewFile(path, detected, source.FileOptions{Sheet: sheet, Logger: c.Logger})
	records, err := src.Records(ctx)
	if err != nil {
		return nil, err
	}

	if !anyValid(records) {
		return nil, fmt.Errorf("%s contains no valid codes", path)
	}

	store, err := storage.NewSQLiteStore(c.Config.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	res, err := store.ReplaceCodes(ctx, records)
	if err != nil {
		return nil, err
	}
	run := &models.ImportRun{Source: src.Name(), RecordCount: res.Written, Skipped: res.Skipped()}
	if err := store.CreateImport(ctx, run); err != nil {
		return nil, err
	}
	c.Logger.Info("catalog imported",
		zap.String("source", run.Source),
		zap.Int("written", res.Written),
		zap.Int("invalid", res.Invalid),
		zap.Int("duplicates", res.Duplicates),
	)
	return run, nil
}

func anyValid(records []models.Record) bool {
	for _, r := range records {
		if r.Valid() {
			return true
		}
	}
	return false
}
