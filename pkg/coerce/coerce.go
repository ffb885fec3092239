// Package coerce converts weakly typed values read from a schema-less document
// store into the canonical Go types the content models expect.
//
// Documents in the store are open to drift: older code paths and manual edits
// have persisted the same logical field as a boolean, a string, a number or not
// at all. Every function here is total. It never returns an error and never
// panics, so decoding a document can never fail because of a drifted field.
package coerce

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Bool converts v to its canonical boolean.
//
// The checks run in a fixed order:
//
//  1. a native bool is returned unchanged;
//  2. nil (absent) is false;
//  3. a string is true only when it equals "true" after trimming, ignoring case,
//     so "false", "1", "yes" and "" are all false;
//  4. a number is true when it is non-zero;
//  5. anything else falls back to truthiness: nil maps, slices and pointers are
//     false, other values are true, and pointers are dereferenced first.
func Bool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case nil:
		return false
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return false
		}
		return f != 0
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	case []byte:
		return strings.EqualFold(strings.TrimSpace(string(t)), "true")
	}

	if f, ok := Number(v); ok {
		return f != 0
	}

	return truthy(reflect.ValueOf(v))
}

// IsCanonicalBool reports whether v is already stored as a native boolean.
func IsCanonicalBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

// Int converts v to an int, returning def when v is absent or cannot be read
// as a number. Fractions are truncated toward zero and values outside the int
// range saturate at math.MinInt or math.MaxInt.
func Int(v any, def int) int {
	switch t := v.(type) {
	case nil:
		return def
	case bool:
		if t {
			return 1
		}
		return 0
	case int:
		return t
	case int64:
		return clampInt64(t)
	case uint:
		return clampUint64(uint64(t))
	case uint64:
		return clampUint64(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return clampInt64(i)
		}
		if f, err := t.Float64(); err == nil {
			return clampFloat(f, def)
		}
		return def
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return clampInt64(i)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return clampFloat(f, def)
		}
		return def
	}
	if f, ok := Number(v); ok {
		return clampFloat(f, def)
	}
	return def
}

func clampInt64(i int64) int {
	switch {
	case i > math.MaxInt:
		return math.MaxInt
	case i < math.MinInt:
		return math.MinInt
	}
	return int(i)
}

func clampUint64(u uint64) int {
	if u > math.MaxInt {
		return math.MaxInt
	}
	return int(u)
}

// clampFloat truncates f. NaN and infinities are not numbers here.
func clampFloat(f float64, def int) int {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return def
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

// String converts v to a string. nil becomes "", strings are returned as-is
// and scalars are formatted the way they would print.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	}
	if f, ok := Number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		return String(rv.Elem().Interface())
	}
	return ""
}

// Strings converts v to an ordered list of strings.
//
// A list keeps its order and drops nil entries. A single string is treated as
// a comma separated list, which is how early admin forms persisted tags.
// Anything else yields nil.
func Strings(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, 0, len(t))
		out = append(out, t...)
		return out
	case string:
		return splitList(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, String(item))
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item := rv.Index(i).Interface()
			if item == nil {
				continue
			}
			out = append(out, String(item))
		}
		return out
	}
	return nil
}

// Time converts v to a time.Time. RFC 3339 strings and unix seconds are
// accepted. Unreadable values yield the zero time.
func Time(v any) time.Time {
	switch t := v.(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return t
	case *time.Time:
		if t == nil {
			return time.Time{}
		}
		return *t
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}
		}
		return parsed
	}
	if f, ok := Number(v); ok {
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return time.Unix(i, 0).UTC()
		}
	}
	return time.Time{}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Number reports v as a float64 when it is any Go numeric kind. Strings and
// json.Number are not numeric kinds.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func truthy(rv reflect.Value) bool {
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return Bool(rv.Elem().Interface())
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	case reflect.String:
		return Bool(rv.String())
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	}
	return true
}
