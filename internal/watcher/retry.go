package watcher

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Loader is the part of the catalog driven by file changes.
type Loader interface {
	Loaded() bool
	Load(ctx context.Context) error
}

// RetryLoad returns a change callback that loads l if it is not loaded yet.
// A loaded catalog is never rebuilt; changes are only logged.
func RetryLoad(ctx context.Context, l Loader, timeout time.Duration, logger *zap.Logger) func(path string) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(path string) {
		if l.Loaded() {
			logger.Info("catalog file changed; restart to pick up changes", zap.String("path", path))
			return
		}
		loadCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := l.Load(loadCtx); err != nil {
			logger.Warn("catalog load retry failed", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Info("catalog loaded after file change", zap.String("path", path))
	}
}
