/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suparena/rowstore/errors"
)

// Row is one record of a named table: column name to canonical value.
// Canonical values are nil, int64, float64, string, bool and time.Time (UTC).
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Columns returns the row's column names in sorted order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Predicate is a conjunctive equality filter. A nil value matches NULL.
type Predicate map[string]any

// Columns returns the predicate's column names in sorted order.
func (p Predicate) Columns() []string {
	return Row(p).Columns()
}

// String renders the predicate deterministically, e.g. "left=1,right=2".
func (p Predicate) String() string {
	parts := make([]string, 0, len(p))
	for _, c := range p.Columns() {
		parts = append(parts, fmt.Sprintf("%s=%v", c, p[c]))
	}
	return strings.Join(parts, ",")
}

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// Ordering sorts query results by one column.
type Ordering struct {
	Column    string
	Direction Direction
}

// QuerySpec describes which rows of a table a query selects.
type QuerySpec struct {
	// Table is the queried table name.
	Table string
	// Filter is an optional conjunctive equality filter.
	Filter Predicate
	// Orderings are applied in order; later entries break ties of earlier ones.
	Orderings []Ordering
	// Limit caps the number of returned rows. Zero means unlimited.
	Limit int
	// Offset skips the first rows of the ordered result.
	Offset int
}

// NewQuery starts a query over table.
func NewQuery(table string) *QuerySpec {
	return &QuerySpec{Table: table}
}

// Where adds an equality condition.
func (q *QuerySpec) Where(column string, value any) *QuerySpec {
	if q.Filter == nil {
		q.Filter = make(Predicate)
	}
	q.Filter[column] = value
	return q
}

// OrderBy appends an ordering.
func (q *QuerySpec) OrderBy(column string, dir Direction) *QuerySpec {
	q.Orderings = append(q.Orderings, Ordering{Column: column, Direction: dir})
	return q
}

// WithLimit sets limit and offset.
func (q *QuerySpec) WithLimit(limit, offset int) *QuerySpec {
	q.Limit = limit
	q.Offset = offset
	return q
}

// Validate checks the structural parts of the query that do not depend on a schema.
func (q *QuerySpec) Validate() error {
	if q == nil {
		return errors.NewValidationError("query", "query is required")
	}
	if strings.TrimSpace(q.Table) == "" {
		return errors.NewValidationError("table", "table is required")
	}
	if q.Limit < 0 {
		return errors.NewValidationError("limit", "must not be negative")
	}
	if q.Offset < 0 {
		return errors.NewValidationError("offset", "must not be negative")
	}
	for _, o := range q.Orderings {
		if o.Column == "" {
			return errors.NewValidationError("orderings", "column is required")
		}
		if o.Direction != Ascending && o.Direction != Descending {
			return errors.NewValidationError("orderings", fmt.Sprintf("unknown direction %q", o.Direction))
		}
	}
	return nil
}

// ValueObject is the comparable field content of a value object persisted in Table.
type ValueObject struct {
	Table  string
	Fields Row
}
