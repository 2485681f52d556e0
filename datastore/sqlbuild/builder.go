/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlbuild

import (
	"strings"

	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// QueryResult represents the built SQL query and parameters
type QueryResult struct {
	SQL    string
	Params []any
}

// Builder renders statements for one table.
type Builder struct {
	d Dialect
	t *schema.Table

	params []any
}

// For creates a builder for table t.
func For(d Dialect, t *schema.Table) *Builder {
	return &Builder{d: d, t: t}
}

func (b *Builder) reset() {
	b.params = nil
}

func (b *Builder) bind(column string, v any) string {
	c, _ := b.t.Column(column)
	b.params = append(b.params, b.d.Encode(c, v))
	return b.d.Placeholder(len(b.params))
}

func (b *Builder) result(sql string) QueryResult {
	return QueryResult{SQL: sql, Params: b.params}
}

func (b *Builder) table() string {
	return b.d.Quote(b.t.Name)
}

// Columns returns the quoted select list in ColumnNames order.
func (b *Builder) Columns() string {
	names := b.t.ColumnNames()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = b.d.Quote(n)
	}
	return strings.Join(quoted, ", ")
}

// where renders a conjunctive equality filter; nil values become IS NULL.
func (b *Builder) where(p storagemodels.Predicate) string {
	if len(p) == 0 {
		return ""
	}
	clauses := make([]string, 0, len(p))
	for _, col := range p.Columns() {
		if p[col] == nil {
			clauses = append(clauses, b.d.Quote(col)+" IS NULL")
			continue
		}
		clauses = append(clauses, b.d.Quote(col)+" = "+b.bind(col, p[col]))
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

// orderBy renders the requested orderings followed by the row key as tie breaker.
func (b *Builder) orderBy(orderings []storagemodels.Ordering) string {
	terms := make([]string, 0, len(orderings)+len(b.t.RowKey()))
	for _, o := range orderings {
		terms = append(terms, b.d.OrderTerm(b.d.Quote(o.Column), o.Direction))
	}
	for _, k := range b.t.RowKey() {
		terms = append(terms, b.d.OrderTerm(b.d.Quote(k), storagemodels.Ascending))
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// Insert renders an INSERT of a prepared row. Primary tables return the new identity
// when the dialect supports RETURNING.
func (b *Builder) Insert(row storagemodels.Row) QueryResult {
	b.reset()
	cols := row.Columns()
	quoted := make([]string, len(cols))
	values := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = b.d.Quote(c)
		values[i] = b.bind(c, row[c])
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.table())
	switch {
	case len(cols) == 0 && b.d.Name() == "mysql":
		sb.WriteString(" () VALUES ()")
	case len(cols) == 0:
		sb.WriteString(" DEFAULT VALUES")
	default:
		sb.WriteString(" (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(values, ", ") + ")")
	}
	if id := b.t.Identity(); id != "" && b.d.Returning() {
		sb.WriteString(" RETURNING " + b.d.Quote(id))
	}
	return b.result(sb.String())
}

// Update renders an UPDATE of the row identified by key. With nothing to set it
// renders an existence probe instead so callers can still detect a missing row.
func (b *Builder) Update(key storagemodels.Predicate, set storagemodels.Row) QueryResult {
	if len(set) == 0 {
		return b.Exists(key)
	}
	b.reset()
	cols := set.Columns()
	assignments := make([]string, len(cols))
	for i, c := range cols {
		assignments[i] = b.d.Quote(c) + " = " + b.bind(c, set[c])
	}
	sql := "UPDATE " + b.table() + " SET " + strings.Join(assignments, ", ") + b.where(key)
	return b.result(sql)
}

// Exists renders a query returning one row when a row matches where.
func (b *Builder) Exists(where storagemodels.Predicate) QueryResult {
	b.reset()
	sql := "SELECT 1 FROM " + b.table() + b.where(where) + b.d.LimitOffset(1, 0)
	return b.result(sql)
}

// Delete renders a DELETE of every row matching where.
func (b *Builder) Delete(where storagemodels.Predicate) QueryResult {
	b.reset()
	return b.result("DELETE FROM " + b.table() + b.where(where))
}

// Select renders the data query for q.
func (b *Builder) Select(q *storagemodels.QuerySpec) QueryResult {
	return b.SelectPage(q, q.Offset, q.Limit)
}

// SelectPage renders the data query for q with an explicit offset and limit.
func (b *Builder) SelectPage(q *storagemodels.QuerySpec, offset, limit int) QueryResult {
	b.reset()
	sql := "SELECT " + b.Columns() + " FROM " + b.table() + b.where(q.Filter) + b.orderBy(q.Orderings) + b.d.LimitOffset(limit, offset)
	return b.result(sql)
}

// Count renders a count that equals the number of rows Select returns.
func (b *Builder) Count(q *storagemodels.QuerySpec) QueryResult {
	b.reset()
	if q.Limit == 0 && q.Offset == 0 {
		return b.result("SELECT COUNT(*) FROM " + b.table() + b.where(q.Filter))
	}
	inner := "SELECT 1 FROM " + b.table() + b.where(q.Filter) + b.orderBy(q.Orderings) + b.d.LimitOffset(q.Limit, q.Offset)
	return b.result("SELECT COUNT(*) FROM (" + inner + ") counted")
}

// Max renders the aggregate maximum of column among rows matching where.
func (b *Builder) Max(where storagemodels.Predicate, column schema.Column) QueryResult {
	b.reset()
	expr := b.d.MaxExpression(b.d.Quote(column.Name), column)
	return b.result("SELECT " + expr + " FROM " + b.table() + b.where(where))
}

// FirstIdentity renders a query for the lowest identity among rows matching where.
func (b *Builder) FirstIdentity(where storagemodels.Predicate) QueryResult {
	b.reset()
	id := b.d.Quote(b.t.Identity())
	sql := "SELECT " + id + " FROM " + b.table() + b.where(where) + " ORDER BY " + id + " ASC" + b.d.LimitOffset(1, 0)
	return b.result(sql)
}
