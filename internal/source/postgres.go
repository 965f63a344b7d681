package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyperjump/icdlookup/internal/models"
)

// pgQuerier is the part of *pgxpool.Pool the Postgres source needs.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres reads codes from a table with code and description columns.
type Postgres struct {
	url   string
	table string

	// connect is replaced in tests.
	connect func(ctx context.Context, url string) (pgQuerier, func(), error)
}

// NewPostgres returns a source reading table from the database at url.
func NewPostgres(url, table string) *Postgres {
	if table == "" {
		table = "icd_codes"
	}
	return &Postgres{url: url, table: table, connect: connectPool}
}

// Name returns the table and host, without credentials.
func (p *Postgres) Name() string {
	u, err := url.Parse(p.url)
	if err != nil || u.Host == "" {
		return "postgres:" + p.table
	}
	return "postgres://" + u.Host + u.Path + "#" + p.table
}

func (p *Postgres) Records(ctx context.Context) ([]models.Record, error) {
	db, closeFn, err := p.connect(ctx, p.url)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	table := pgx.Identifier(strings.Split(p.table, ".")).Sanitize()
	rows, err := db.Query(ctx, fmt.Sprintf("SELECT code, description FROM %s ORDER BY code", table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", p.table, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.Code, &r.Desc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", p.table, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", p.table, err)
	}
	return records, nil
}

func connectPool(ctx context.Context, dsn string) (pgQuerier, func(), error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, pool.Close, nil
}
