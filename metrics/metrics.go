// Package metrics exposes Prometheus counters for the reader and writer.
//
// A Collector is registered against a caller-supplied registerer so that
// tests and embedding services can keep their own registries. Every method is
// safe to call on a nil *Collector, which records nothing.
package metrics

import (
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
)

// Byte stages for the writer_bytes_total counter.
const (
	StageUncompressed = "uncompressed"
	StageCompressed   = "compressed"
)

// Collector holds the counters shared by db.Reader and writer.Writer.
type Collector struct {
	readerFetches    prometheus.Counter
	readerRows       prometheus.Counter
	writerRecords    prometheus.Counter
	writerFiles      prometheus.Counter
	writerBytes      *prometheus.CounterVec
	writerFlushError prometheus.Counter
}

// New creates the counters under namespace and registers them with reg.
// Counters already registered by an earlier Collector are reused.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		return nil, errors.NewError("metrics", errors.ErrInvalidConfiguration).
			WithMessage("registerer cannot be nil")
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	c := &Collector{
		readerFetches: counter("reader_fetches_total", "Total number of batch fetches issued by readers"),
		readerRows:    counter("reader_rows_total", "Total number of rows returned by readers"),
		writerRecords: counter("writer_records_total", "Total number of records flushed by writers"),
		writerFiles:   counter("writer_files_total", "Total number of objects written by writers"),
		writerBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writer_bytes_total",
			Help:      "Total number of bytes flushed by writers",
		}, []string{"stage"}),
		writerFlushError: counter("writer_flush_errors_total", "Total number of failed flushes"),
	}

	var err error
	if c.readerFetches, err = register(reg, c.readerFetches); err != nil {
		return nil, err
	}
	if c.readerRows, err = register(reg, c.readerRows); err != nil {
		return nil, err
	}
	if c.writerRecords, err = register(reg, c.writerRecords); err != nil {
		return nil, err
	}
	if c.writerFiles, err = register(reg, c.writerFiles); err != nil {
		return nil, err
	}
	if c.writerBytes, err = register(reg, c.writerBytes); err != nil {
		return nil, err
	}
	if c.writerFlushError, err = register(reg, c.writerFlushError); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if stderrors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, errors.NewError("metrics", errors.ErrInvalidConfiguration).WithCause(err)
	}
	return c, nil
}

// ReaderFetch records one batch fetch that returned rows rows.
func (c *Collector) ReaderFetch(rows int) {
	if c == nil {
		return
	}
	c.readerFetches.Inc()
	c.readerRows.Add(float64(rows))
}

// WriterFlush records a successful flush.
func (c *Collector) WriterFlush(records int, uncompressed, compressed int) {
	if c == nil {
		return
	}
	c.writerFiles.Inc()
	c.writerRecords.Add(float64(records))
	c.writerBytes.WithLabelValues(StageUncompressed).Add(float64(uncompressed))
	c.writerBytes.WithLabelValues(StageCompressed).Add(float64(compressed))
}

// WriterFlushError records a failed flush.
func (c *Collector) WriterFlushError() {
	if c == nil {
		return
	}
	c.writerFlushError.Inc()
}
