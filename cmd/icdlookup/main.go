// Package main is the icdlookup CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/icdlookup/internal/catalog"
	"github.com/hyperjump/icdlookup/internal/cli"
	"github.com/hyperjump/icdlookup/internal/config"
	"github.com/hyperjump/icdlookup/internal/search"
	"github.com/hyperjump/icdlookup/internal/source"
	"github.com/hyperjump/icdlookup/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/icdlookup/config.yaml"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	debug      bool
	output     string
}

// loadConfig loads config from path. When path is the default and config.yaml
// exists in the current directory, that file is used instead so commands run
// from a project checkout pick up the project's config.
// With no config file at all the defaults are used, which serve the built-in
// sample catalog. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Components holds the wired catalog stack for one command run.
type Components struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger
	Source     catalog.Source
	Catalog    *catalog.Catalog
	Engine     *search.Engine
}

// Close flushes the logger.
func (c *Components) Close() {
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	src, err := source.New(cfg.Catalog, source.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to configure catalog source: %w", err)
	}
	cat := catalog.New(src,
		catalog.WithLogger(logger),
		catalog.WithLoadTimeout(cfg.Catalog.LoadTimeout),
		catalog.WithContextHeader(cfg.Search.ContextHeader),
	)
	engine := search.NewEngine(cat, &cfg.Search, search.WithLogger(logger))
	return &Components{
		Config:  cfg,
		Logger:  logger,
		Source:  src,
		Catalog: cat,
		Engine:  engine,
	}, nil
}

// setup loads config, builds a logger and wires the catalog stack. longRunning
// selects the service logger over the quiet CLI logger.
func (o *rootOptions) setup(longRunning bool) (*Components, error) {
	cfg, resolved, err := loadConfig(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || o.debug
	var logger *zap.Logger
	if longRunning {
		logger, err = utils.NewLogger(debug)
	} else {
		logger, err = utils.NewCLILogger(debug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debug))

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	components.ConfigPath = resolved
	return components, nil
}

func (o *rootOptions) format() (cli.OutputFormat, error) {
	return cli.ParseOutputFormat(o.output)
}

// joinArgs joins positional args with spaces so multi-word queries work the
// same with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "icdlookup",
		Short: "icdlookup - ICD-10 code lookup and validation",
		Long: "Look up, search and validate ICD-10 codes against a local catalog, and build\n" +
			"grounding context for language-model prompts.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format: text, compact or json")

	root.AddCommand(
		newServerCmd(opts),
		newLookupCmd(opts),
		newSearchCmd(opts),
		newSimilarCmd(opts),
		newValidateCmd(opts),
		newContextCmd(opts),
		newVerifyCmd(opts),
		newStatsCmd(opts),
		newImportCmd(opts),
		newExportCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "icdlookup version %s\n", version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
