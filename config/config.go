// Package config loads job settings from an optional file and the
// environment.
//
// Values are resolved in this order, later sources winning:
//
//  1. built-in defaults
//  2. the file given with WithFile (YAML, JSON or TOML, chosen by extension)
//  3. environment variables such as DATAENG_WRITER_MAX_BYTES for writer.max_bytes
//
// # Basic Usage
//
//	settings, err := config.Load(config.WithFile("job.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	logger, capture := logging.New(settings.LoggingConfig())
//	client, err := s3.New(append(settings.ClientOptions(), s3.WithLogger(logger))...)
//	w, err := writer.OpenPath(writer.NewS3Sink(client), "s3://bucket/out/people.jsonl.gz",
//	    settings.WriterConfig("", ""))
package config

import (
	"fmt"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3types"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/logging"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/writer"
)

// Defaults applied by Load.
const (
	DefaultEnvPrefix       = "DATAENG"
	DefaultMaxBytes        = 800_000_000
	DefaultRecordThreshold = 1000
	DefaultExtension       = "jsonl"
	DefaultBatchSize       = 1000
	DefaultLogLevel        = "debug"
	DefaultConsoleLevel    = "info"
)

// Settings is the resolved configuration of a job.
type Settings struct {
	AWS     AWS     `mapstructure:"aws"`
	Writer  Writer  `mapstructure:"writer"`
	Reader  Reader  `mapstructure:"reader"`
	Logging Logging `mapstructure:"logging"`
}

// AWS configures the S3 client. Empty fields leave the SDK defaults alone.
type AWS struct {
	Region         string        `mapstructure:"region"`
	Endpoint       string        `mapstructure:"endpoint"`
	ForcePathStyle bool          `mapstructure:"force_path_style"`
	MaxRetries     int           `mapstructure:"max_retries"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Concurrency    int           `mapstructure:"concurrency"`
}

// Writer configures split-file output.
type Writer struct {
	MaxBytes        int64  `mapstructure:"max_bytes"`
	RecordThreshold int    `mapstructure:"record_threshold"`
	Compress        bool   `mapstructure:"compress"`
	Extension       string `mapstructure:"extension"`
	FailIfExists    bool   `mapstructure:"fail_if_exists"`
}

// Reader configures paginated reads.
type Reader struct {
	BatchSize int `mapstructure:"batch_size"`
}

// Logging configures the logger factory.
type Logging struct {
	Format       string `mapstructure:"format"`
	Level        string `mapstructure:"level"`
	ConsoleLevel string `mapstructure:"console_level"`
}

// Validate checks sizes and logging names.
//
// Errors:
//   - ErrInvalidConfiguration: If a size is not positive, a count is negative
//     or a logging format or level is unknown
func (s *Settings) Validate() error {
	switch {
	case s.Writer.MaxBytes <= 0:
		return invalid("writer.max_bytes must be positive, got %d", s.Writer.MaxBytes)
	case s.Writer.RecordThreshold < 0:
		return invalid("writer.record_threshold cannot be negative, got %d", s.Writer.RecordThreshold)
	case s.Reader.BatchSize < 1:
		return invalid("reader.batch_size must be positive, got %d", s.Reader.BatchSize)
	case s.AWS.MaxRetries < 0:
		return invalid("aws.max_retries cannot be negative, got %d", s.AWS.MaxRetries)
	case s.AWS.Concurrency < 0:
		return invalid("aws.concurrency cannot be negative, got %d", s.AWS.Concurrency)
	case s.AWS.Timeout < 0:
		return invalid("aws.timeout cannot be negative, got %s", s.AWS.Timeout)
	}

	if _, err := logging.ParseFormat(s.Logging.Format); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(s.Logging.Level); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(s.Logging.ConsoleLevel); err != nil {
		return err
	}
	return nil
}

// ClientOptions converts the AWS section into options for s3.New.
func (s *Settings) ClientOptions() []s3types.Option {
	var opts []s3types.Option
	if s.AWS.Region != "" {
		opts = append(opts, s3.WithRegion(s.AWS.Region))
	}
	if s.AWS.Endpoint != "" {
		opts = append(opts, s3.WithEndpoint(s.AWS.Endpoint))
	}
	if s.AWS.ForcePathStyle {
		opts = append(opts, s3.WithForcePathStyle(true))
	}
	if s.AWS.MaxRetries > 0 {
		opts = append(opts, s3.WithMaxRetries(s.AWS.MaxRetries))
	}
	if s.AWS.Timeout > 0 {
		opts = append(opts, s3.WithTimeout(s.AWS.Timeout))
	}
	if s.AWS.Concurrency > 0 {
		opts = append(opts, s3.WithConcurrency(s.AWS.Concurrency))
	}
	return opts
}

// WriterConfig builds a writer.Config from the writer section. writer.OpenPath
// overrides prefix and stem, so both may be empty when it is used.
func (s *Settings) WriterConfig(prefix, stem string) writer.Config {
	return writer.Config{
		Prefix:          prefix,
		Stem:            stem,
		Extension:       s.Writer.Extension,
		MaxBytes:        s.Writer.MaxBytes,
		RecordThreshold: s.Writer.RecordThreshold,
		Compress:        s.Writer.Compress,
		FailIfExists:    s.Writer.FailIfExists,
	}
}

// LoggingConfig builds a logging.Config from the logging section. Level sets
// the capture level. Unknown names fall back to the logging defaults; call
// Validate to reject them instead.
func (s *Settings) LoggingConfig() logging.Config {
	cfg := logging.Config{}
	if format, err := logging.ParseFormat(s.Logging.Format); err == nil {
		cfg.Format = format
	}
	if level, err := logging.ParseLevel(s.Logging.Level); err == nil && s.Logging.Level != "" {
		cfg.CaptureLevel = level
	}
	if level, err := logging.ParseLevel(s.Logging.ConsoleLevel); err == nil && s.Logging.ConsoleLevel != "" {
		cfg.ConsoleLevel = level
	}
	return cfg
}

func invalid(format string, args ...any) error {
	return errors.NewError("validate", errors.ErrInvalidConfiguration).WithMessage(fmt.Sprintf(format, args...))
}
