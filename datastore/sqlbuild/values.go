/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlbuild

import (
	"fmt"
	"strconv"
	"time"

	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// mysqlTimeLayout is the text form of DATETIME(3) values.
const mysqlTimeLayout = "2006-01-02 15:04:05.999"

// Decode converts a value scanned from a driver into the canonical value of c.
func Decode(c schema.Column, v any) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil, nil
	}

	switch c.Type {
	case schema.Integer:
		switch tv := v.(type) {
		case int64:
			return tv, nil
		case int32:
			return int64(tv), nil
		case int:
			return int64(tv), nil
		case float64:
			return int64(tv), nil
		case string:
			return strconv.ParseInt(tv, 10, 64)
		}
	case schema.Real:
		switch tv := v.(type) {
		case float64:
			return tv, nil
		case float32:
			return float64(tv), nil
		case int64:
			return float64(tv), nil
		case string:
			return strconv.ParseFloat(tv, 64)
		}
	case schema.Text:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case schema.Boolean:
		switch tv := v.(type) {
		case bool:
			return tv, nil
		case int64:
			return tv != 0, nil
		case string:
			n, err := strconv.ParseInt(tv, 10, 64)
			if err != nil {
				return strconv.ParseBool(tv)
			}
			return n != 0, nil
		}
	case schema.DateTime:
		switch tv := v.(type) {
		case time.Time:
			return schema.CanonicalTime(tv), nil
		case int64:
			return time.UnixMilli(tv).UTC(), nil
		case string:
			t, err := time.ParseInLocation(mysqlTimeLayout, tv, time.UTC)
			if err != nil {
				return nil, err
			}
			return schema.CanonicalTime(t), nil
		}
	}
	return nil, fmt.Errorf("cannot decode %T into %s column %s", v, c.Type, c.Name)
}

// DecodeRow converts scanned values, in ColumnNames order, into a canonical row.
func DecodeRow(t *schema.Table, values []any) (storagemodels.Row, error) {
	names := t.ColumnNames()
	if len(values) != len(names) {
		return nil, fmt.Errorf("table %s: scanned %d values for %d columns", t.Name, len(values), len(names))
	}
	row := make(storagemodels.Row, len(names))
	for i, name := range names {
		c, _ := t.Column(name)
		v, err := Decode(c, values[i])
		if err != nil {
			return nil, err
		}
		row[name] = v
	}
	return row, nil
}
