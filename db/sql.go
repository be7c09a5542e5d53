package db

import (
	"context"
	"database/sql"
	"slices"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
)

// SQLQueryer is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type SQLQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLCursor adapts database/sql to the Cursor interface.
// Byte-slice values returned by the driver are converted to strings so rows
// encode as text.
type SQLCursor struct {
	q       SQLQueryer
	rows    *sql.Rows
	columns []string
}

// NewSQLCursor returns a cursor that runs queries on q.
func NewSQLCursor(q SQLQueryer) *SQLCursor {
	return &SQLCursor{q: q}
}

// Execute runs query, closing the result set of any earlier query.
func (c *SQLCursor) Execute(ctx context.Context, query string, args ...any) error {
	if err := c.Close(); err != nil {
		return err
	}
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return err
	}
	c.rows, c.columns = rows, columns
	return nil
}

// FetchMany scans up to n rows. The result set is closed once it is drained.
func (c *SQLCursor) FetchMany(_ context.Context, n int) ([]Row, error) {
	if c.rows == nil {
		return nil, ErrNoMoreRows
	}

	out := make([]Row, 0, n)
	for len(out) < n && c.rows.Next() {
		values := make([]any, len(c.columns))
		dest := make([]any, len(c.columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := c.rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, Row(values))
	}
	if err := c.rows.Err(); err != nil {
		return nil, err
	}
	if len(out) < n {
		if err := c.Close(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Columns returns the column names of the executed query.
func (c *SQLCursor) Columns() []string {
	return slices.Clone(c.columns)
}

// Close releases the current result set.
func (c *SQLCursor) Close() error {
	if c.rows == nil {
		return nil
	}
	rows := c.rows
	c.rows = nil
	if err := rows.Close(); err != nil {
		return errors.NewError("close", errors.ErrQueryExecution).WithCause(err)
	}
	return nil
}
