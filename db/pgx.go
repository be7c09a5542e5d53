package db

import (
	"context"
	"slices"

	"github.com/jackc/pgx/v5"
)

// PgxQueryer is implemented by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
type PgxQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxCursor adapts pgx to the Cursor interface. Values are decoded by pgx
// into their native Go types (time.Time for timestamps, int64 for bigint).
type PgxCursor struct {
	q       PgxQueryer
	rows    pgx.Rows
	columns []string
}

// NewPgxCursor returns a cursor that runs queries on q.
func NewPgxCursor(q PgxQueryer) *PgxCursor {
	return &PgxCursor{q: q}
}

// Execute runs query, closing the result set of any earlier query.
func (c *PgxCursor) Execute(ctx context.Context, query string, args ...any) error {
	c.Close()
	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	c.rows, c.columns = rows, columns
	return nil
}

// FetchMany reads up to n rows. The result set is closed once it is drained.
func (c *PgxCursor) FetchMany(_ context.Context, n int) ([]Row, error) {
	if c.rows == nil {
		return nil, ErrNoMoreRows
	}

	out := make([]Row, 0, n)
	for len(out) < n && c.rows.Next() {
		values, err := c.rows.Values()
		if err != nil {
			return nil, err
		}
		out = append(out, Row(values))
	}
	if err := c.rows.Err(); err != nil {
		return nil, err
	}
	if len(out) < n {
		c.Close()
	}
	return out, nil
}

// Columns returns the column names of the executed query.
func (c *PgxCursor) Columns() []string {
	return slices.Clone(c.columns)
}

// Close releases the current result set.
func (c *PgxCursor) Close() {
	if c.rows != nil {
		c.rows.Close()
		c.rows = nil
	}
}
