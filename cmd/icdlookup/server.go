package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/icdlookup/internal/server"
	"github.com/hyperjump/icdlookup/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

// pathSource is implemented by sources backed by a local file.
type pathSource interface {
	Path() string
}

func newServerCmd(opts *rootOptions) *cobra.Command {
	var noWarm bool
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := opts.setup(true)
			if err != nil {
				return err
			}
			defer components.Close()
			return runServer(cmd.Context(), components, !noWarm)
		},
	}
	cmd.Flags().BoolVar(&noWarm, "no-warm", false, "do not load the catalog until the first request")
	return cmd
}

func runServer(ctx context.Context, c *Components, warm bool) error {
	logger := c.Logger
	logger.Info("config loaded",
		zap.String("config_path", c.ConfigPath),
		zap.String("source", c.Source.Name()),
	)

	if warm {
		go func() {
			if err := c.Catalog.Load(ctx); err != nil {
				logger.Warn("catalog warm-up failed; will retry on first request", zap.Error(err))
			}
		}()
	}

	if w := startWatcher(ctx, c); w != nil {
		defer w.Stop()
	}

	srv := server.NewServer(c.Engine, c.Config, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(stopCtx)
}

// startWatcher watches a file-backed catalog source when catalog.watch is on.
// It returns nil when nothing is watched.
func startWatcher(ctx context.Context, c *Components) *watcher.FileWatcher {
	if !c.Config.Catalog.Watch {
		return nil
	}
	ps, ok := c.Source.(pathSource)
	if !ok {
		c.Logger.Info("catalog.watch ignored: source is not a file", zap.String("source", c.Source.Name()))
		return nil
	}
	onChange := watcher.RetryLoad(ctx, c.Catalog, c.Config.Catalog.LoadTimeout, c.Logger)
	w := watcher.NewFileWatcher(ps.Path(), onChange, watcher.WithLogger(c.Logger))
	if err := w.Start(ctx); err != nil {
		c.Logger.Warn("failed to start catalog watcher", zap.String("path", ps.Path()), zap.Error(err))
		return nil
	}
	c.Logger.Info("watching catalog file", zap.String("path", w.Path()))
	return w
}
