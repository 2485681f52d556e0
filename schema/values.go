/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
)

// ValueError reports why a value does not fit a column.
type ValueError struct {
	Rule   string
	Detail string
}

func (e *ValueError) Error() string {
	return e.Detail
}

func typeError(c Column, v any) error {
	return &ValueError{Rule: "type", Detail: fmt.Sprintf("%T is not assignable to %s column", v, c.Type)}
}

// TimePrecision is the resolution kept for DateTime values by every backend.
const TimePrecision = time.Millisecond

// CanonicalTime converts t to the stored representation.
func CanonicalTime(t time.Time) time.Time {
	return t.UTC().Truncate(TimePrecision)
}

// Normalize converts v into the canonical representation of the column's type.
// nil stays nil; NOT NULL is checked by the caller.
func (c Column) Normalize(v any) (any, error) {
	v = deref(v)
	if v == nil {
		return nil, nil
	}

	switch c.Type {
	case Integer:
		return toInt64(c, v)
	case Real:
		return toFloat64(c, v)
	case Text:
		s, ok := asString(v)
		if !ok {
			return nil, typeError(c, v)
		}
		if c.Format != "" && !strfmt.Default.Validates(c.Format, s) {
			return nil, &ValueError{Rule: "format", Detail: fmt.Sprintf("%q is not a valid %s", s, c.Format)}
		}
		return s, nil
	case Boolean:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Bool {
			return nil, typeError(c, v)
		}
		return rv.Bool(), nil
	case DateTime:
		switch tv := v.(type) {
		case time.Time:
			return CanonicalTime(tv), nil
		case strfmt.DateTime:
			return CanonicalTime(time.Time(tv)), nil
		case string:
			dt, err := strfmt.ParseDateTime(tv)
			if err != nil {
				return nil, &ValueError{Rule: "type", Detail: fmt.Sprintf("%q is not a date-time", tv)}
			}
			return CanonicalTime(time.Time(dt)), nil
		}
		return nil, typeError(c, v)
	}
	return nil, typeError(c, v)
}

// Parse converts a textual value (as typed on a command line) into a canonical value.
// The literal "null" yields nil.
func (c Column) Parse(s string) (any, error) {
	if s == "null" {
		return nil, nil
	}
	switch c.Type {
	case Integer:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: %q is not an integer", c.Name, s)
		}
		return n, nil
	case Real:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: %q is not a number", c.Name, s)
		}
		return f, nil
	case Boolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("column %s: %q is not a boolean", c.Name, s)
		}
		return b, nil
	}
	return c.Normalize(s)
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func asString(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

func toInt64(c Column, v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, &ValueError{Rule: "type", Detail: fmt.Sprintf("%d overflows integer column", u)}
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, &ValueError{Rule: "type", Detail: fmt.Sprintf("%v is not an integral value", f)}
		}
		return int64(f), nil
	}
	return nil, typeError(c, v)
}

func toFloat64(c Column, v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &ValueError{Rule: "type", Detail: "NaN and infinities are not storable"}
		}
		return f, nil
	}
	return nil, typeError(c, v)
}

// FormatValue renders a canonical value for keys and log lines.
func FormatValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return tv.UTC().Format(time.RFC3339Nano)
	case string:
		return strconv.Quote(tv)
	case float64:
		return strconv.FormatFloat(tv, 'g', -1, 64)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
