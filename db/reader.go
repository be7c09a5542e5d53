// Package db reads query results in fixed-size batches.
//
// A Reader wraps a Cursor and yields rows one at a time while holding at most
// one batch in memory. The query runs when the Reader is opened; the first
// batch is fetched on the first call to Next or NextBatch.
//
//	cursor := db.NewSQLCursor(sqlDB)
//	defer cursor.Close()
//
//	r, err := db.Open(ctx, cursor, "SELECT * FROM people", 1000)
//	if err != nil {
//	    return err
//	}
//	for row, err := range r.Rows(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    process(row)
//	}
package db

import (
	"context"
	stderrors "errors"
	"io"
	"iter"
	"log/slog"
	"slices"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/logging"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/metrics"
)

// Row is one result row, values in column order.
type Row []any

// ErrNoMoreRows may be returned by Cursor.FetchMany to signal the end of the
// result set. It ends the stream the same way an empty batch does.
var ErrNoMoreRows = stderrors.New("no more rows")

// Cursor is the subset of a database cursor the Reader needs.
type Cursor interface {
	// Execute runs the query.
	Execute(ctx context.Context, query string, args ...any) error

	// FetchMany returns up to n rows. A batch shorter than n, an empty batch
	// or ErrNoMoreRows means the result set is exhausted.
	FetchMany(ctx context.Context, n int) ([]Row, error)

	// Columns returns the column names of the executed query.
	Columns() []string
}

type options struct {
	args    []any
	logger  *slog.Logger
	metrics *metrics.Collector
}

// Option configures a Reader.
type Option func(*options)

// WithArgs sets the query arguments.
func WithArgs(args ...any) Option {
	return func(o *options) {
		o.args = args
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records fetches and rows on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

// Reader iterates over a query result one batch at a time.
// It is not safe for concurrent use.
type Reader struct {
	cursor    Cursor
	batchSize int
	logger    *slog.Logger
	metrics   *metrics.Collector

	batch     []Row
	pos       int
	exhausted bool
	fetches   int
}

// Open executes query on cursor and returns a Reader over its result.
//
// Errors:
//   - ErrInvalidConfiguration if batchSize < 1 or cursor is nil
//   - ErrQueryExecution if the query fails
func Open(ctx context.Context, cursor Cursor, query string, batchSize int, opts ...Option) (*Reader, error) {
	if batchSize < 1 {
		return nil, errors.NewError("open", errors.ErrInvalidConfiguration).
			WithMessage("batch size must be at least 1")
	}
	if cursor == nil {
		return nil, errors.NewError("open", errors.ErrInvalidConfiguration).
			WithMessage("cursor cannot be nil")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if err := cursor.Execute(ctx, query, o.args...); err != nil {
		return nil, errors.NewError("open", errors.ErrQueryExecution).WithCause(err)
	}

	r := &Reader{
		cursor:    cursor,
		batchSize: batchSize,
		logger:    logging.OrDiscard(o.logger),
		metrics:   o.metrics,
	}
	r.logger.DebugContext(ctx, "query executed", "batch_size", batchSize)
	return r, nil
}

// Next returns the next row, or io.EOF once the result set is exhausted.
// After io.EOF every further call returns io.EOF without touching the cursor.
func (r *Reader) Next(ctx context.Context) (Row, error) {
	for r.pos >= len(r.batch) {
		if r.exhausted {
			return nil, io.EOF
		}
		if err := r.fetch(ctx); err != nil {
			return nil, err
		}
	}
	row := r.batch[r.pos]
	r.batch[r.pos] = nil
	r.pos++
	return row, nil
}

// NextBatch returns the unread rest of the current batch, or the next batch
// from the cursor when the current one is used up. It returns io.EOF once the
// result set is exhausted.
func (r *Reader) NextBatch(ctx context.Context) ([]Row, error) {
	if r.pos < len(r.batch) {
		rest := r.batch[r.pos:]
		r.batch, r.pos = nil, 0
		return rest, nil
	}
	for !r.exhausted {
		if err := r.fetch(ctx); err != nil {
			return nil, err
		}
		if len(r.batch) > 0 {
			batch := r.batch
			r.batch, r.pos = nil, 0
			return batch, nil
		}
	}
	return nil, io.EOF
}

// Rows returns an iterator over the remaining rows. Iteration stops after
// the first error, which is yielded with a nil row.
func (r *Reader) Rows(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for {
			row, err := r.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// Batches returns an iterator over the remaining batches.
func (r *Reader) Batches(ctx context.Context) iter.Seq2[[]Row, error] {
	return func(yield func([]Row, error) bool) {
		for {
			batch, err := r.NextBatch(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(batch, nil) {
				return
			}
		}
	}
}

// Columns returns the column names of the result set.
func (r *Reader) Columns() []string {
	return slices.Clone(r.cursor.Columns())
}

// Fetches returns the number of FetchMany calls issued so far.
func (r *Reader) Fetches() int {
	return r.fetches
}

// BatchSize returns the configured batch size.
func (r *Reader) BatchSize() int {
	return r.batchSize
}

func (r *Reader) fetch(ctx context.Context) error {
	rows, err := r.cursor.FetchMany(ctx, r.batchSize)
	r.fetches++
	if stderrors.Is(err, ErrNoMoreRows) {
		r.batch, r.pos, r.exhausted = nil, 0, true
		r.metrics.ReaderFetch(0)
		return nil
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "fetch failed", "fetch", r.fetches, "error", err)
		return errors.NewError("fetch", errors.ErrQueryExecution).WithCause(err)
	}

	r.metrics.ReaderFetch(len(rows))
	r.logger.DebugContext(ctx, "fetched batch", "fetch", r.fetches, "rows", len(rows))

	r.batch, r.pos = rows, 0
	if len(rows) < r.batchSize {
		r.exhausted = true
	}
	return nil
}
