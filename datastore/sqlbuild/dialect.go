/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sqlbuild generates SQL statements for the relational backends from
// the table catalog. Statements differ per engine only where a Dialect says so.
package sqlbuild

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// Dialect captures the differences between SQL engines.
type Dialect interface {
	// Name is the engine name used in logs and metrics.
	Name() string
	// Quote quotes an identifier.
	Quote(ident string) string
	// Placeholder returns the n-th (1-based) bind parameter.
	Placeholder(n int) string
	// ColumnType returns the column type used in CREATE TABLE; key marks row key columns.
	ColumnType(c schema.Column, key bool) string
	// IdentityDefinition returns the full definition of an identity column.
	IdentityDefinition(name string) string
	// TableOptions is appended after the closing parenthesis of CREATE TABLE.
	TableOptions() string
	// OrderTerm renders one ORDER BY term placing NULL first ascending and last descending.
	OrderTerm(quoted string, dir storagemodels.Direction) string
	// MaxExpression renders the aggregate returning the largest value of a column.
	MaxExpression(quoted string, c schema.Column) string
	// LimitOffset renders the LIMIT/OFFSET suffix; limit 0 means unlimited.
	LimitOffset(limit, offset int) string
	// Returning reports whether INSERT ... RETURNING is supported.
	Returning() bool
	// Encode converts a canonical value into a driver argument.
	Encode(c schema.Column, v any) any
}

type base struct{}

func (base) OrderTerm(quoted string, dir storagemodels.Direction) string {
	return quoted + " " + string(dir)
}

func (base) MaxExpression(quoted string, _ schema.Column) string {
	return "MAX(" + quoted + ")"
}

func (base) TableOptions() string { return "" }

func (base) Encode(_ schema.Column, v any) any { return v }

// SQLite stores DateTime as INTEGER milliseconds and Boolean as 0/1.
// NULL is the smallest value in its default ordering.
type SQLite struct{ base }

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Quote(ident string) string { return `"` + ident + `"` }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) ColumnType(c schema.Column, _ bool) string {
	switch c.Type {
	case schema.Integer, schema.Boolean, schema.DateTime:
		return "INTEGER"
	case schema.Real:
		return "REAL"
	}
	return "TEXT COLLATE BINARY"
}

func (d SQLite) IdentityDefinition(name string) string {
	return d.Quote(name) + " INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (SQLite) LimitOffset(limit, offset int) string {
	switch {
	case limit == 0 && offset == 0:
		return ""
	case limit == 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

func (SQLite) Returning() bool { return true }

func (SQLite) Encode(_ schema.Column, v any) any {
	switch tv := v.(type) {
	case time.Time:
		return tv.UnixMilli()
	case bool:
		if tv {
			return int64(1)
		}
		return int64(0)
	}
	return v
}

// MySQL uses binary collation for text and DATETIME(3) for timestamps.
// NULL is the smallest value in its default ordering.
type MySQL struct{ base }

func (MySQL) Name() string { return "mysql" }

func (MySQL) Quote(ident string) string { return "`" + ident + "`" }

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) ColumnType(c schema.Column, key bool) string {
	switch c.Type {
	case schema.Integer:
		return "BIGINT"
	case schema.Real:
		return "DOUBLE"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.DateTime:
		return "DATETIME(3)"
	}
	if key {
		return "VARCHAR(191)"
	}
	return "TEXT"
}

func (d MySQL) IdentityDefinition(name string) string {
	return d.Quote(name) + " BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY"
}

func (MySQL) TableOptions() string {
	return " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin"
}

func (MySQL) LimitOffset(limit, offset int) string {
	switch {
	case limit == 0 && offset == 0:
		return ""
	case limit == 0:
		return fmt.Sprintf(" LIMIT 18446744073709551615 OFFSET %d", offset)
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

func (MySQL) Returning() bool { return false }

// Postgres sorts NULL last by default, so order terms state the placement.
type Postgres struct{ base }

func (Postgres) Name() string { return "postgres" }

func (Postgres) Quote(ident string) string { return `"` + ident + `"` }

func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Postgres) ColumnType(c schema.Column, _ bool) string {
	switch c.Type {
	case schema.Integer:
		return "BIGINT"
	case schema.Real:
		return "DOUBLE PRECISION"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.DateTime:
		return "TIMESTAMPTZ(3)"
	}
	return `TEXT COLLATE "C"`
}

func (d Postgres) IdentityDefinition(name string) string {
	return d.Quote(name) + " BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY"
}

func (Postgres) OrderTerm(quoted string, dir storagemodels.Direction) string {
	if dir == storagemodels.Descending {
		return quoted + " DESC NULLS LAST"
	}
	return quoted + " ASC NULLS FIRST"
}

func (Postgres) MaxExpression(quoted string, c schema.Column) string {
	if c.Type == schema.Boolean {
		return "BOOL_OR(" + quoted + ")"
	}
	return "MAX(" + quoted + ")"
}

func (Postgres) LimitOffset(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", offset)
	}
	return b.String()
}

func (Postgres) Returning() bool { return true }

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case "sqlite":
		return SQLite{}, nil
	case "mysql":
		return MySQL{}, nil
	case "postgres":
		return Postgres{}, nil
	}
	return nil, fmt.Errorf("sqlbuild: unknown dialect %q", name)
}
