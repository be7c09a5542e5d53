package logging

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/isojson"
)

// handler fans each record out to the capture buffer and the console, each
// with its own minimum level.
type handler struct {
	cfg     Config
	capture *Capture
	mu      *sync.Mutex // guards cfg.Console
	attrs   []slog.Attr
	groups  []string
}

func newHandler(cfg Config, capture *Capture) *handler {
	return &handler{cfg: cfg, capture: capture, mu: &sync.Mutex{}}
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.CaptureLevel.Level() || level >= h.cfg.ConsoleLevel.Level()
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	attrs := slices.Clone(h.attrs)
	prefix := h.groupPrefix()
	r.Attrs(func(a slog.Attr) bool {
		a.Key = prefix + a.Key
		attrs = append(attrs, a)
		return true
	})

	var line string
	if h.cfg.Format == FormatJSON {
		encoded, err := h.formatJSON(r, attrs)
		if err != nil {
			return err
		}
		line = encoded
	} else {
		line = h.formatHuman(r, attrs)
	}

	if r.Level >= h.cfg.CaptureLevel.Level() {
		h.capture.append(line)
	}
	if r.Level >= h.cfg.ConsoleLevel.Level() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, err := h.cfg.Console.Write([]byte(line + "\n")); err != nil {
			return err
		}
	}
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	prefix := h.groupPrefix()
	clone.attrs = slices.Clone(h.attrs)
	for _, a := range attrs {
		a.Key = prefix + a.Key
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(slices.Clone(h.groups), name)
	return &clone
}

func (h *handler) groupPrefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

// field resolves a configured field name for r. The boolean reports whether
// the name referred to an attribute, so the caller can skip it later.
func (h *handler) field(name string, r slog.Record, attrs []slog.Attr) (any, bool) {
	switch name {
	case FieldTime:
		return r.Time.Format(h.cfg.TimeFormat), false
	case FieldFunc:
		return funcName(r.PC), false
	case FieldLevel:
		return r.Level.String(), false
	case FieldMessage:
		return r.Message, false
	}
	for _, a := range attrs {
		if a.Key == name {
			return value(a.Value), true
		}
	}
	return nil, true
}

func (h *handler) formatHuman(r slog.Record, attrs []slog.Attr) string {
	var b strings.Builder
	listed := make(map[string]bool, len(h.cfg.Fields))
	for i, name := range h.cfg.Fields {
		if i > 0 {
			b.WriteString(h.cfg.Separator)
		}
		v, isAttr := h.field(name, r, attrs)
		if isAttr {
			listed[name] = true
		}
		if v != nil {
			fmt.Fprint(&b, v)
		}
	}
	for _, a := range attrs {
		if listed[a.Key] {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		s := fmt.Sprint(value(a.Value))
		if strings.ContainsAny(s, " \t\"=") {
			s = strconv.Quote(s)
		}
		b.WriteString(s)
	}
	return b.String()
}

func (h *handler) formatJSON(r slog.Record, attrs []slog.Attr) (string, error) {
	var b bytes.Buffer
	listed := make(map[string]bool, len(h.cfg.Fields))
	b.WriteByte('{')
	n := 0
	writeMember := func(key string, v any) error {
		if n > 0 {
			b.WriteByte(',')
		}
		n++
		k, err := isojson.Marshal(key)
		if err != nil {
			return err
		}
		val, err := isojson.Marshal(v)
		if err != nil {
			return err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(val)
		return nil
	}
	for _, name := range h.cfg.Fields {
		v, isAttr := h.field(name, r, attrs)
		if isAttr {
			listed[name] = true
		}
		if err := writeMember(name, v); err != nil {
			return "", err
		}
	}
	for _, a := range attrs {
		if listed[a.Key] {
			continue
		}
		if err := writeMember(a.Key, value(a.Value)); err != nil {
			return "", err
		}
	}
	b.WriteByte('}')
	return b.String(), nil
}

func value(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindTime:
		return isojson.FormatTime(v.Time())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindGroup:
		group := make(map[string]any, len(v.Group()))
		for _, a := range v.Group() {
			group[a.Key] = value(a.Value)
		}
		return group
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	default:
		return v.Any()
	}
}

// funcName returns the bare function or method name of the call site.
func funcName(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	name := frame.Function
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
