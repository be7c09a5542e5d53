// Package export streams query results from a db.Reader into a
// writer.Writer, one encoded record per row.
//
//	r, err := db.Open(ctx, db.NewPgxCursor(pool), "SELECT * FROM people", settings.Reader.BatchSize)
//	...
//	err = writer.With(ctx, sink, cfg, func(w *writer.Writer) error {
//	    _, err := export.Rows(ctx, r, w, export.JSONLines(r.Columns()))
//	    return err
//	})
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/db"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/isojson"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/writer"
)

// Encoder renders a row as a single record without a trailing newline.
type Encoder func(row db.Row) (string, error)

// Rows drains r into w, one batch at a time, and returns the number of rows
// written. Rows are handed to the writer but may still be buffered when Rows
// returns; close the writer to flush them.
//
// Errors:
//   - ErrInvalidConfiguration: If r, w or enc is nil
//   - ErrInvalidInput: If a row cannot be encoded
//   - any error from the reader or the writer
func Rows(ctx context.Context, r *db.Reader, w *writer.Writer, enc Encoder) (int, error) {
	if r == nil || w == nil || enc == nil {
		return 0, errors.NewError("rows", errors.ErrInvalidConfiguration).
			WithMessage("reader, writer and encoder are required")
	}

	total := 0
	for {
		batch, err := r.NextBatch(ctx)
		if stderrors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}

		lines := make([]string, len(batch))
		for i, row := range batch {
			if lines[i], err = enc(row); err != nil {
				return total, errors.NewError("rows", errors.ErrInvalidInput).
					WithMessage(fmt.Sprintf("row %d", total+i)).
					WithCause(err)
			}
		}
		if err := w.WriteRecords(ctx, lines, nil); err != nil {
			return total, err
		}
		total += len(batch)
	}
}

// JSONLines encodes each row as a JSON object keyed by columns, in column
// order. Time values are rendered as ISO-8601 strings.
func JSONLines(columns []string) Encoder {
	keys := make([][]byte, len(columns))
	for i, c := range columns {
		// Marshal of a string cannot fail.
		keys[i], _ = isojson.Marshal(c)
	}

	return func(row db.Row) (string, error) {
		if err := checkWidth(row, len(columns)); err != nil {
			return "", err
		}
		var b bytes.Buffer
		b.WriteByte('{')
		for i, v := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			value, err := isojson.Marshal(v)
			if err != nil {
				return "", err
			}
			b.Write(keys[i])
			b.WriteByte(':')
			b.Write(value)
		}
		b.WriteByte('}')
		return b.String(), nil
	}
}

// CSV encodes each row as one CSV record. Nil values become empty fields and
// time values are rendered as ISO-8601 strings.
func CSV(columns []string) Encoder {
	width := len(columns)
	return func(row db.Row) (string, error) {
		if err := checkWidth(row, width); err != nil {
			return "", err
		}
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = csvField(v)
		}
		return csvRecord(fields)
	}
}

// CSVHeader renders columns as a CSV header record.
func CSVHeader(columns []string) (string, error) {
	return csvRecord(columns)
}

func csvRecord(fields []string) (string, error) {
	var b strings.Builder
	cw := csv.NewWriter(&b)
	if err := cw.Write(fields); err != nil {
		return "", err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func csvField(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return isojson.FormatTime(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return isojson.FormatTime(*v)
	default:
		return fmt.Sprint(v)
	}
}

func checkWidth(row db.Row, width int) error {
	if len(row) != width {
		return fmt.Errorf("row has %d values for %d columns", len(row), width)
	}
	return nil
}
