// Package writer partitions a stream of records into numbered, optionally
// compressed objects of bounded size.
//
// Records are buffered in memory. Once the buffer grows past Config.MaxBytes
// (and, when Config.RecordThreshold is set, at least that many records are
// pending) the buffer is compressed and handed to a Sink as one object named
//
//	{Prefix}{Stem}-{N}.{Extension}[.{compression suffix}]
//
// with N counting from 0 in flush order. The size check only happens between
// records, so a record never spans two objects.
//
// A Writer is not safe for concurrent use.
package writer

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/logging"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/metrics"
)

// Config describes where a Writer puts its objects and when it flushes.
type Config struct {
	// Prefix is prepended verbatim to every object name, e.g. "s3://bucket/exports/"
	Prefix string

	// Stem is the object name before the part number
	Stem string

	// Extension without leading dot, e.g. "jsonl". May be empty.
	Extension string

	// MaxBytes is the uncompressed buffer size that triggers a flush
	MaxBytes int64

	// RecordThreshold, when positive, also requires this many pending
	// records before a flush
	RecordThreshold int

	// Compress selects Gzip unless WithCompressor is given
	Compress bool

	// FailIfExists makes a flush fail with ErrAlreadyExists when the target
	// object exists and the sink can check
	FailIfExists bool
}

func (c Config) validate() error {
	switch {
	case c.MaxBytes <= 0:
		return errors.NewError("open", errors.ErrInvalidConfiguration).
			WithMessage(fmt.Sprintf("max bytes must be positive, got %d", c.MaxBytes))
	case c.RecordThreshold < 0:
		return errors.NewError("open", errors.ErrInvalidConfiguration).
			WithMessage(fmt.Sprintf("record threshold must be positive, got %d", c.RecordThreshold))
	case c.Stem == "":
		return errors.NewError("open", errors.ErrInvalidConfiguration).
			WithMessage("file name stem cannot be empty")
	case strings.Contains(c.Stem, "/"):
		return errors.NewError("open", errors.ErrInvalidConfiguration).
			WithMessage("file name stem cannot contain '/'")
	}
	return nil
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger for the writer. Nothing is logged by default.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithMetrics records flushes on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(w *Writer) {
		w.metrics = c
	}
}

// WithCompressor overrides the compression chosen by Config.Compress.
func WithCompressor(c Compressor) Option {
	return func(w *Writer) {
		w.compressor = &c
	}
}

// WithBufferKind overrides the buffer chosen from the compression setting.
func WithBufferKind(kind BufferKind) Option {
	return func(w *Writer) {
		w.kind = kind
	}
}

// Writer buffers records and flushes them as numbered objects.
type Writer struct {
	sink       Sink
	cfg        Config
	compressor *Compressor
	kind       BufferKind
	buf        buffer

	pending      int
	filesWritten int
	totalRecords int
	paths        []string
	closed       bool

	logger  *slog.Logger
	metrics *metrics.Collector
}

// Open creates a Writer that flushes to sink.
//
// Errors:
//   - ErrInvalidConfiguration: If sink is nil, MaxBytes is not positive,
//     RecordThreshold is negative or Stem is empty
//
// Example:
//
//	w, err := writer.Open(writer.NewS3Sink(client), writer.Config{
//	    Prefix:          "s3://my-bucket/exports/",
//	    Stem:            "people",
//	    Extension:       "jsonl",
//	    MaxBytes:        800_000_000,
//	    RecordThreshold: 1000,
//	    Compress:        true,
//	})
func Open(sink Sink, cfg Config, opts ...Option) (*Writer, error) {
	if sink == nil {
		return nil, errors.NewError("open", errors.ErrInvalidConfiguration).WithMessage("sink cannot be nil")
	}
	cfg.Extension = strings.TrimPrefix(cfg.Extension, ".")
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	w := &Writer{
		sink: sink,
		cfg:  cfg,
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.compressor == nil {
		c := NoCompression
		if cfg.Compress {
			c = Gzip
		}
		w.compressor = &c
	}
	if w.kind == AutoBuffer {
		w.kind = TextBuffer
		if w.compressor.Compressed() {
			w.kind = BinaryBuffer
		}
	}
	w.logger = logging.OrDiscard(w.logger)
	w.buf = newBuffer(w.kind)
	return w, nil
}

// OpenPath creates a Writer from a full output path such as
// "s3://bucket/exports/people.jsonl.gz". The directory part becomes the
// prefix, the name up to the first "." the stem and the rest the extension.
// A ".gz" suffix turns compression on and a ".zst" suffix selects Zstd.
// Fields of cfg that the path does not determine are kept.
func OpenPath(sink Sink, outfilePath string, cfg Config, opts ...Option) (*Writer, error) {
	dir, name := "", outfilePath
	if i := strings.LastIndex(outfilePath, "/"); i >= 0 {
		dir, name = outfilePath[:i+1], outfilePath[i+1:]
	}

	switch {
	case strings.HasSuffix(name, "."+Gzip.Suffix):
		name = strings.TrimSuffix(name, "."+Gzip.Suffix)
		cfg.Compress = true
	case strings.HasSuffix(name, "."+Zstd.Suffix):
		name = strings.TrimSuffix(name, "."+Zstd.Suffix)
		cfg.Compress = true
		opts = append([]Option{WithCompressor(Zstd)}, opts...)
	}

	stem, ext, found := strings.Cut(name, ".")
	cfg.Prefix = dir
	cfg.Stem = stem
	if found {
		cfg.Extension = ext
	}
	return Open(sink, cfg, opts...)
}

// With opens a Writer, passes it to fn and closes it on every exit path,
// including a panic in fn. Errors from fn and Close are joined.
//
// Example:
//
//	err := writer.With(ctx, sink, cfg, func(w *writer.Writer) error {
//	    for _, line := range lines {
//	        if err := w.WriteRecord(ctx, line); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	})
func With(ctx context.Context, sink Sink, cfg Config, fn func(*Writer) error, opts ...Option) (err error) {
	w, err := Open(sink, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = stderrors.Join(err, w.Close(ctx))
	}()
	return fn(w)
}

// WriteRecord appends line and a newline, then flushes if the threshold is
// reached.
func (w *Writer) WriteRecord(ctx context.Context, line string) error {
	if w.closed {
		return w.closedError("writeRecord")
	}
	_, _ = w.buf.WriteString(line)
	_ = w.buf.WriteByte('\n')
	w.pending++
	return w.flushIfFull(ctx)
}

// WriteRecords appends every line, passed through transform when it is not
// nil, and checks the threshold once for the whole batch. An object may
// therefore exceed MaxBytes by up to one batch.
func (w *Writer) WriteRecords(ctx context.Context, lines []string, transform func(string) string) error {
	if w.closed {
		return w.closedError("writeRecords")
	}
	for _, line := range lines {
		if transform != nil {
			line = transform(line)
		}
		_, _ = w.buf.WriteString(line)
		_ = w.buf.WriteByte('\n')
	}
	w.pending += len(lines)
	return w.flushIfFull(ctx)
}

// Write appends p unchanged and counts it as one record. An empty p is not
// a record. The threshold is checked after the write, and any flush uses a
// background context.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, w.closedError("write")
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, _ := w.buf.Write(p)
	w.pending++
	return n, w.flushIfFull(context.Background())
}

func (w *Writer) flushIfFull(ctx context.Context) error {
	if int64(w.buf.Len()) <= w.cfg.MaxBytes {
		return nil
	}
	if w.cfg.RecordThreshold > 0 && w.pending < w.cfg.RecordThreshold {
		return nil
	}
	return w.Flush(ctx)
}

// Flush uploads the buffered records as the next object. It does nothing
// when the buffer is empty. On failure the buffer and counters are left
// untouched, so Flush or Close can be retried.
//
// Errors:
//   - ErrUpload: If compression or the sink fails
//   - ErrAlreadyExists: If FailIfExists is set and the object exists
//   - ErrWriterClosed: If the writer has been closed
func (w *Writer) Flush(ctx context.Context) error {
	if w.closed {
		return w.closedError("flush")
	}
	if w.buf.Len() == 0 {
		return nil
	}

	target := w.nextPath()
	if err := w.checkTarget(ctx, target); err != nil {
		w.metrics.WriterFlushError()
		return err
	}

	raw := w.buf.Bytes()
	data, err := w.compressor.Compress(raw)
	if err != nil {
		w.metrics.WriterFlushError()
		return errors.NewError("flush", errors.ErrUpload).WithKey(target).WithCause(err)
	}
	if err := w.sink.Put(ctx, target, data); err != nil {
		w.metrics.WriterFlushError()
		return errors.NewError("flush", errors.ErrUpload).WithKey(target).WithCause(err)
	}

	w.metrics.WriterFlush(w.pending, len(raw), len(data))
	w.logger.Debug("flushed object",
		"path", target,
		"records", w.pending,
		"bytes", len(raw),
		"compressed", len(data),
	)

	w.paths = append(w.paths, target)
	w.filesWritten++
	w.totalRecords += w.pending
	w.pending = 0
	w.buf.Reset()
	return nil
}

func (w *Writer) checkTarget(ctx context.Context, target string) error {
	if !w.cfg.FailIfExists {
		return nil
	}
	checker, ok := w.sink.(ExistenceChecker)
	if !ok {
		return nil
	}
	exists, err := checker.Exists(ctx, target)
	if err != nil {
		return errors.NewError("flush", errors.ErrUpload).WithKey(target).WithCause(err)
	}
	if exists {
		return errors.NewError("flush", errors.ErrAlreadyExists).WithKey(target)
	}
	return nil
}

// Close flushes any buffered records and marks the writer closed. If the
// final flush fails the writer stays open so Close can be retried. Closing a
// closed writer does nothing.
func (w *Writer) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	if err := w.Flush(ctx); err != nil {
		return err
	}
	w.closed = true
	w.buf.release()
	w.logger.Debug("closed writer",
		"files", w.filesWritten,
		"records", w.totalRecords,
	)
	return nil
}

func (w *Writer) nextPath() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s-%d", w.cfg.Prefix, w.cfg.Stem, w.filesWritten)
	if w.cfg.Extension != "" {
		b.WriteString("." + w.cfg.Extension)
	}
	if w.compressor.Suffix != "" {
		b.WriteString("." + w.compressor.Suffix)
	}
	return b.String()
}

func (w *Writer) closedError(op string) error {
	return errors.NewError(op, errors.ErrWriterClosed).WithKey(w.cfg.Prefix + w.cfg.Stem)
}

// FilesWritten returns the number of objects flushed so far.
func (w *Writer) FilesWritten() int {
	return w.filesWritten
}

// TotalRecords returns the number of records in flushed objects.
func (w *Writer) TotalRecords() int {
	return w.totalRecords
}

// Buffered returns the number of records waiting for the next flush.
func (w *Writer) Buffered() int {
	return w.pending
}

// BufferedBytes returns the uncompressed size of the buffer.
func (w *Writer) BufferedBytes() int {
	return w.buf.Len()
}

// Paths returns the paths of the objects flushed so far, in flush order.
func (w *Writer) Paths() []string {
	return slices.Clone(w.paths)
}

// Compressor returns the compression strategy in use.
func (w *Writer) Compressor() Compressor {
	return *w.compressor
}

// BufferKind returns the buffer kind in use.
func (w *Writer) BufferKind() BufferKind {
	return w.kind
}
