/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package eval evaluates predicates, orderings and aggregates over rows held
// in process. Backends without a query engine of their own share it.
package eval

import (
	"sort"
	"strings"
	"time"

	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// Compare orders two canonical values. nil sorts before every value.
// Integers and reals compare numerically with each other.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			return cmpOrdered(av, bv)
		case float64:
			return cmpOrdered(float64(av), bv)
		}
	case float64:
		switch bv := b.(type) {
		case float64:
			return cmpOrdered(av, bv)
		case int64:
			return cmpOrdered(av, float64(bv))
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	// Mismatched types never occur for normalized rows; keep the order total.
	return strings.Compare(schema.FormatValue(a), schema.FormatValue(b))
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Equal reports structural equality of canonical values; nil equals nil.
func Equal(a, b any) bool {
	return Compare(a, b) == 0
}

// Match reports whether row satisfies every condition of where.
// A nil condition matches a nil or missing column.
func Match(row storagemodels.Row, where storagemodels.Predicate) bool {
	for col, want := range where {
		if !Equal(row[col], want) {
			return false
		}
	}
	return true
}

// Filter returns the rows matching where, preserving order.
func Filter(rows []storagemodels.Row, where storagemodels.Predicate) []storagemodels.Row {
	out := make([]storagemodels.Row, 0, len(rows))
	for _, r := range rows {
		if Match(r, where) {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders rows by the given orderings, then by the table's row key ascending.
func Sort(t *schema.Table, rows []storagemodels.Row, orderings []storagemodels.Ordering) {
	key := t.RowKey()
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orderings {
			c := Compare(rows[i][o.Column], rows[j][o.Column])
			if o.Direction == storagemodels.Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		for _, k := range key {
			if c := Compare(rows[i][k], rows[j][k]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// Page applies offset and limit. A zero limit means unlimited.
func Page(rows []storagemodels.Row, limit, offset int) []storagemodels.Row {
	if offset >= len(rows) {
		return rows[:0]
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// Apply filters, orders and pages rows for q. The input slice is not modified.
func Apply(t *schema.Table, rows []storagemodels.Row, q *storagemodels.QuerySpec) []storagemodels.Row {
	out := Filter(rows, q.Filter)
	Sort(t, out, q.Orderings)
	return Page(out, q.Limit, q.Offset)
}

// Max returns the largest non-null value of column among rows.
func Max(rows []storagemodels.Row, column string) (any, bool) {
	var best any
	for _, r := range rows {
		v := r[column]
		if v == nil {
			continue
		}
		if best == nil || Compare(v, best) > 0 {
			best = v
		}
	}
	return best, best != nil
}

// First returns the row with the smallest row key among rows matching where.
func First(t *schema.Table, rows []storagemodels.Row, where storagemodels.Predicate) (storagemodels.Row, bool) {
	matched := Filter(rows, where)
	if len(matched) == 0 {
		return nil, false
	}
	Sort(t, matched, nil)
	return matched[0], true
}
