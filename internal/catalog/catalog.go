// Package catalog provides the in-memory ICD-10 code catalog: exact code lookup,
// prefix-based similar-code search, and keyword relevance search over descriptions.
//
// The catalog is loaded from its Source on first use. Concurrent callers share a
// single in-flight load; once built, the indexes are read-only and queried without
// locks. A failed load leaves the catalog empty and the next call tries again.
package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hyperjump/icdlookup/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLoadTimeout = 30 * time.Second
	loadKey            = "catalog"
)

// Source supplies the raw catalog records.
type Source interface {
	// Name identifies the source in logs and errors (e.g. a file path).
	Name() string
	// Records reads every record from the source.
	Records(ctx context.Context) ([]models.Record, error)
}

// Catalog is the lazily loaded code catalog.
type Catalog struct {
	source        Source
	logger        *zap.Logger
	loadTimeout   time.Duration
	contextHeader string

	group singleflight.Group
	idx   atomic.Pointer[index]
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used to report loads.
func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLoadTimeout bounds how long a single load may read from the source.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Catalog) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

// WithContextHeader sets the first line of blocks built by ContextBlock.
func WithContextHeader(h string) Option {
	return func(c *Catalog) {
		if h != "" {
			c.contextHeader = h
		}
	}
}

// New returns a catalog reading from src. Nothing is read until the first query or Load.
func New(src Source, opts ...Option) *Catalog {
	c := &Catalog{
		source:        src,
		logger:        zap.NewNop(),
		loadTimeout:   defaultLoadTimeout,
		contextHeader: DefaultContextHeader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SourceName returns the name of the underlying source.
func (c *Catalog) SourceName() string {
	return c.source.Name()
}

// Loaded reports whether the catalog has been built. It never triggers a load.
func (c *Catalog) Loaded() bool {
	return c.idx.Load() != nil
}

// Load builds the catalog if it is not built yet. Calling it again after a
// successful load is a no-op.
func (c *Catalog) Load(ctx context.Context) error {
	_, err := c.ensure(ctx)
	return err
}

// ensure returns the built index, loading it first when needed. All callers
// arriving while a load is in flight wait for that same load.
func (c *Catalog) ensure(ctx context.Context) (*index, error) {
	if idx := c.idx.Load(); idx != nil {
		return idx, nil
	}
	ch := c.group.DoChan(loadKey, func() (interface{}, error) {
		if idx := c.idx.Load(); idx != nil {
			return idx, nil
		}
		// The load outlives the caller that happened to start it; other
		// waiters must not be cancelled with it.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		idx, err := c.build(loadCtx)
		if err != nil {
			return nil, err
		}
		c.idx.Store(idx)
		return idx, nil
	})
	select {
	case <-ctx.Done():
		return nil, &CatalogLoadError{Source: c.source.Name(), Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*index), nil
	}
}

func (c *Catalog) build(ctx context.Context) (*index, error) {
	start := time.Now()
	name := c.source.Name()
	records, err := c.source.Records(ctx)
	if err != nil {
		c.logger.Error("catalog load failed", zap.String("source", name), zap.Error(err))
		return nil, &CatalogLoadError{Source: name, Err: err}
	}
	idx, err := buildIndex(records)
	if err != nil {
		c.logger.Error("catalog build failed", zap.String("source", name), zap.Int("records", len(records)), zap.Error(err))
		return nil, &CatalogLoadError{Source: name, Err: err}
	}
	if idx.invalid > 0 {
		c.logger.Warn("skipped malformed catalog records", zap.String("source", name), zap.Int("count", idx.invalid))
	}
	if idx.duplicates > 0 {
		c.logger.Warn("skipped duplicate catalog codes", zap.String("source", name), zap.Int("count", idx.duplicates))
	}
	c.logger.Info("catalog loaded",
		zap.String("source", name),
		zap.Int("codes", len(idx.entries)),
		zap.Int("keywords", len(idx.keywords)),
		zap.Duration("took", time.Since(start)),
	)
	return idx, nil
}

// Stats returns catalog size information, loading the catalog first if needed.
// On load failure the returned Stats has Loaded=false.
func (c *Catalog) Stats(ctx context.Context) (models.Stats, error) {
	idx, err := c.ensure(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return models.Stats{
		TotalCodes:     len(idx.entries),
		UniqueKeywords: len(idx.keywords),
		Loaded:         true,
	}, nil
}

// Entries returns a copy of every entry in catalog order.
func (c *Catalog) Entries(ctx context.Context) ([]models.Entry, error) {
	idx, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Entry, len(idx.entries))
	for i := range idx.entries {
		out[i] = *idx.entry(i)
	}
	return out, nil
}
