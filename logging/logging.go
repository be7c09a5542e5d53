// Package logging builds slog loggers that write to the console and to an
// in-memory capture buffer at the same time.
//
// The capture buffer holds every record at DEBUG and above, so a job can ship
// its full log to object storage once it finishes while the console only
// shows INFO and above.
//
//	logger, capture := logging.New(logging.Config{})
//	logger.Info("starting export", "table", "people")
//	...
//	_ = client.Put(ctx, bucket, "logs/run.log", strings.NewReader(capture.String()))
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
)

// Format selects the line encoding.
type Format string

const (
	// FormatHuman renders fields joined by Config.Separator.
	FormatHuman Format = "human"

	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// Built-in field names. Any other name in Config.Fields is looked up among
// the record's attributes.
const (
	FieldTime    = "time"
	FieldFunc    = "func"
	FieldLevel   = "level"
	FieldMessage = "msg"
)

// Defaults applied by New when the corresponding Config field is empty.
const (
	DefaultSeparator  = " | "
	DefaultTimeFormat = "2006-01-02 15:04:05"
)

// DefaultFields mirrors the "time | function | level | message" layout.
var DefaultFields = []string{FieldTime, FieldFunc, FieldLevel, FieldMessage}

// Config configures New. The zero value is usable.
type Config struct {
	// Format is the line encoding (default FormatHuman).
	Format Format

	// Fields lists the fields rendered on every line, in order.
	Fields []string

	// Separator joins human-format fields.
	Separator string

	// TimeFormat is the layout for the time field.
	TimeFormat string

	// Console receives records at ConsoleLevel and above. Nil means os.Stderr;
	// use io.Discard to silence it.
	Console io.Writer

	// ConsoleLevel is the minimum console level (default INFO).
	ConsoleLevel slog.Leveler

	// CaptureLevel is the minimum capture level (default DEBUG).
	CaptureLevel slog.Leveler
}

func (c Config) withDefaults() Config {
	if c.Format == "" {
		c.Format = FormatHuman
	}
	if len(c.Fields) == 0 {
		c.Fields = DefaultFields
	}
	if c.Separator == "" {
		c.Separator = DefaultSeparator
	}
	if c.TimeFormat == "" {
		c.TimeFormat = DefaultTimeFormat
	}
	if c.Console == nil {
		c.Console = os.Stderr
	}
	if c.ConsoleLevel == nil {
		c.ConsoleLevel = slog.LevelInfo
	}
	if c.CaptureLevel == nil {
		c.CaptureLevel = slog.LevelDebug
	}
	return c
}

// New returns a logger and the capture buffer it writes to. Each call creates
// an independent pair; nothing is registered globally.
func New(cfg Config) (*slog.Logger, *Capture) {
	capture := &Capture{}
	h := newHandler(cfg.withDefaults(), capture)
	return slog.New(h), capture
}

// Discard returns a logger that drops every record. Library components use
// it when no logger is configured.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrDiscard returns logger, or a discarding logger when it is nil.
func OrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.NewError("parseLevel", errors.ErrInvalidConfiguration).
			WithMessage("unknown log level " + s)
	}
	return level, nil
}

// ParseFormat parses "human" or "json" (case-insensitive). Empty means human.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatHuman:
		return FormatHuman, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", errors.NewError("parseFormat", errors.ErrInvalidConfiguration).
		WithMessage("unknown log format " + s)
}
