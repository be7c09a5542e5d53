// Package isojson encodes values as JSON with time values rendered as
// ISO-8601 strings.
//
// encoding/json renders time.Time through its own MarshalJSON using
// RFC 3339 with nanoseconds and a "Z" suffix. Values coming back from
// database drivers are usually wall-clock timestamps, and downstream tools
// expect the shorter ISO form (2111-01-01T01:01:01). This package rewrites
// time values before handing the value tree to encoding/json, so every other
// type keeps the standard encoding rules.
package isojson

import (
	"bytes"
	"encoding/json"
	"io"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
	"unsafe"
)

var timeType = reflect.TypeOf(time.Time{})

// FormatTime renders t as an ISO-8601 timestamp with seconds
// precision, microseconds when non-zero, and a numeric offset unless t is in
// UTC. UTC values are treated as naive wall-clock times.
func FormatTime(t time.Time) string {
	layout := "2006-01-02T15:04:05"
	if t.Nanosecond()/1000 != 0 {
		layout += ".000000"
	}
	if t.Location() != time.UTC {
		layout += "-07:00"
	}
	return t.Format(layout)
}

// Marshal returns the JSON encoding of v with time values as ISO-8601 strings.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(Normalize(v))
}

// MarshalIndent is like Marshal but applies Indent to format the output.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(Normalize(v), prefix, indent)
}

// Encoder writes ISO-time JSON values to an output stream.
type Encoder struct {
	enc *json.Encoder
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

// SetIndent instructs the encoder to format each subsequent encoded value as
// if indented by MarshalIndent.
func (e *Encoder) SetIndent(prefix, indent string) {
	e.enc.SetIndent(prefix, indent)
}

// SetEscapeHTML specifies whether problematic HTML characters are escaped.
func (e *Encoder) SetEscapeHTML(on bool) {
	e.enc.SetEscapeHTML(on)
}

// Encode writes the JSON encoding of v followed by a newline.
func (e *Encoder) Encode(v any) error {
	return e.enc.Encode(Normalize(v))
}

// Line encodes v as a single JSON line without the trailing newline.
// Used to build JSON Lines records.
func Line(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Normalize(v)); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Normalize returns a copy of v in which every time.Time has been replaced by
// its ISO-8601 string. Values that contain no times are returned unchanged.
func Normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if !containsTime(rv.Type(), map[reflect.Type]bool{}) {
		return v
	}
	return normalize(rv)
}

func normalize(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if v.Kind() == reflect.Pointer && v.Type().Elem() == timeType {
			return FormatTime(v.Elem().Interface().(time.Time))
		}
		return normalize(v.Elem())
	case reflect.Struct:
		if v.Type() == timeType {
			return FormatTime(v.Interface().(time.Time))
		}
		if !containsTime(v.Type(), map[reflect.Type]bool{}) || implementsMarshaler(v) {
			return v.Interface()
		}
		return normalizeStruct(v)
	case reflect.Map:
		if v.IsNil() {
			return v.Interface()
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key, ok := mapKey(iter.Key())
			if !ok {
				return v.Interface()
			}
			out[key] = normalize(iter.Value())
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v.Interface()
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Interface()
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = normalize(v.Index(i))
		}
		return out
	default:
		return v.Interface()
	}
}

func normalizeStruct(v reflect.Value) any {
	if !v.CanAddr() {
		c := reflect.New(v.Type()).Elem()
		c.Set(v)
		v = c
	}

	var fields []structField
	collectFields(v.Type(), v, nil, map[reflect.Type]bool{}, &fields)

	out := make(orderedObject, 0, len(fields))
	for _, f := range dominantFields(fields) {
		if !f.value.IsValid() {
			continue
		}
		if f.omitEmpty && isEmpty(f.value) {
			continue
		}
		if f.quoted {
			out = append(out, member{key: f.name, value: quote(f.value)})
			continue
		}
		out = append(out, member{key: f.name, value: normalize(f.value)})
	}
	return out
}

// structField is a JSON object member found while walking a struct,
// including members promoted from embedded structs.
type structField struct {
	name      string
	depth     int
	tagged    bool
	omitEmpty bool
	quoted    bool

	// value is invalid when the field sits behind a nil embedded pointer.
	value reflect.Value
}

// collectFields walks t in field order, flattening untagged embedded structs
// and embedded struct pointers. v may be invalid, in which case the fields
// are still collected for name resolution but carry no value.
func collectFields(t reflect.Type, v reflect.Value, index []int, visiting map[reflect.Type]bool, out *[]structField) {
	if visiting[t] {
		return
	}
	visiting[t] = true
	defer delete(visiting, t)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if !sf.IsExported() && ft.Kind() != reflect.Struct {
				continue
			}
		} else if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts := parseTag(tag)

		var fv reflect.Value
		if v.IsValid() {
			fv = readable(v.Field(i))
		}

		ft := sf.Type
		if ft.Name() == "" && ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}

		if name == "" && sf.Anonymous && ft.Kind() == reflect.Struct {
			if fv.IsValid() && fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					fv = reflect.Value{}
				} else {
					fv = fv.Elem()
				}
			}
			collectFields(ft, fv, append(slices.Clone(index), i), visiting, out)
			continue
		}

		field := structField{
			name:      name,
			depth:     len(index),
			tagged:    name != "",
			omitEmpty: hasOption(opts, "omitempty"),
			value:     fv,
		}
		if field.name == "" {
			field.name = sf.Name
		}
		if hasOption(opts, "string") {
			switch ft.Kind() {
			case reflect.Bool,
				reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
				reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
				reflect.Float32, reflect.Float64,
				reflect.String:
				field.quoted = true
			}
		}
		*out = append(*out, field)
	}
}

// dominantFields applies the encoding/json rules for duplicate names: the
// shallowest field wins, a tagged field beats untagged ones at the same
// depth, and any other tie drops the name. Field order is preserved.
func dominantFields(fields []structField) []structField {
	best := make(map[string]int, len(fields))
	ambiguous := make(map[string]bool)
	for i, f := range fields {
		j, seen := best[f.name]
		if !seen {
			best[f.name] = i
			continue
		}
		cur := fields[j]
		switch {
		case f.depth < cur.depth, f.depth == cur.depth && f.tagged && !cur.tagged:
			best[f.name] = i
			ambiguous[f.name] = false
		case f.depth == cur.depth && f.tagged == cur.tagged:
			ambiguous[f.name] = true
		}
	}

	out := make([]structField, 0, len(best))
	for i, f := range fields {
		if best[f.name] == i && !ambiguous[f.name] {
			out = append(out, f)
		}
	}
	return out
}

// readable returns a usable view of a field promoted through an unexported
// embedded struct. v must be addressable.
func readable(v reflect.Value) reflect.Value {
	if v.CanInterface() || !v.CanAddr() {
		return v
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}

// quote renders a field carrying the ",string" option. Nil pointers stay null.
func quote(v reflect.Value) any {
	if implementsMarshaler(v) {
		return v.Interface()
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	b, err := json.Marshal(v.Interface())
	if err != nil {
		return v.Interface()
	}
	if v.Kind() == reflect.String {
		return string(b)
	}
	return json.RawMessage(`"` + string(b) + `"`)
}

func hasOption(opts, option string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == option {
			return true
		}
	}
	return false
}

func mapKey(k reflect.Value) (string, bool) {
	switch k.Kind() {
	case reflect.String:
		return k.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), true
	}
	return "", false
}

func containsTime(t reflect.Type, seen map[reflect.Type]bool) bool {
	if t == timeType {
		return true
	}
	if seen[t] {
		return false
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return containsTime(t.Elem(), seen)
	case reflect.Map:
		return containsTime(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if containsTime(t.Field(i).Type, seen) {
				return true
			}
		}
	}
	return false
}

func implementsMarshaler(v reflect.Value) bool {
	marshaler := reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	if v.Type().Implements(marshaler) {
		return true
	}
	return v.CanAddr() && v.Addr().Type().Implements(marshaler)
}

func parseTag(tag string) (string, string) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, opts
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

type member struct {
	key   string
	value any
}

// orderedObject keeps struct field order, which a map[string]any would lose.
type orderedObject []member

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
