package source

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRows struct {
	rows   [][2]string
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close() { r.closed = true }
func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error) { return nil, nil }
func (r *fakeRows) RawValues() [][]byte { return nil }
func (r *fakeRows) Conn() *pgx.Conn { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	*dest[0].(*string) = row[0]
	*dest[1].(*string) = row[1]
	return nil
}

type fakeQuerier struct {
	rows *fakeRows
	err  error
	sql  string
}

func (q *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.sql = sql
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func newFakePostgres(table string, q *fakeQuerier) (*Postgres, *bool) {
	closed := false
	p := NewPostgres("postgres://localhost/terminology", table)
	p.connect = func(context.Context, string) (pgQuerier, func(), error) {
		return q, func() { closed = true }, nil
	}
	return p, &closed
}

func TestPostgres_Records(t *testing.T) {
	rows := &fakeRows{rows: [][2]string{
		{"J18.9", "Pneumonia, unspecified organism"},
		{"J44.0", "Chronic obstructive pulmonary disease with acute lower respiratory infection"},
	}}
	q := &fakeQuerier{rows: rows}
	p, closed := newFakePostgres("terminology.icd10cm", q)

	records, err := p.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, records)
	assert.Equal(t, `SELECT code, description FROM "terminology"."icd10cm" ORDER BY code`, q.sql)
	assert.True(t, rows.closed)
	assert.True(t, *closed)
}

func TestPostgres_DefaultTable(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{}}
	p, _ := newFakePostgres("", q)
	records, err := p.Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Contains(t, q.sql, `"icd_codes"`)
}

func TestPostgres_QueryError(t *testing.T) {
	q := &fakeQuerier{err: errors.New("relation does not exist")}
	p, closed := newFakePostgres("icd_codes", q)
	_, err := p.Records(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation does not exist")
	assert.True(t, *closed)
}

func TestPostgres_RowsError(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{err: errors.New("connection reset")}}
	p, _ := newFakePostgres("icd_codes", q)
	_, err := p.Records(context.Background())
	assert.Error(t, err)
}

func TestPostgres_ConnectError(t *testing.T) {
	p := NewPostgres("postgres://localhost/terminology", "icd_codes")
	p.connect = func(context.Context, string) (pgQuerier, func(), error) {
		return nil, nil, errors.New("dial tcp: connection refused")
	}
	_, err := p.Records(context.Background())
	assert.Error(t, err)
}
